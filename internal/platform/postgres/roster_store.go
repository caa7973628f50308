package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// PostgresRosterStore implements the store.RosterStore interface as a
// read-only view over the enrollment tables owned by the classroom
// management side of the platform.
type PostgresRosterStore struct {
	db store.DBTX
}

// NewPostgresRosterStore creates a new PostgreSQL implementation of the
// RosterStore interface.
func NewPostgresRosterStore(db store.DBTX) *PostgresRosterStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresRosterStore{db: db}
}

// Ensure PostgresRosterStore implements store.RosterStore interface
var _ store.RosterStore = (*PostgresRosterStore)(nil)

// TeacherOwnsClassroom implements store.RosterStore.TeacherOwnsClassroom.
func (s *PostgresRosterStore) TeacherOwnsClassroom(
	ctx context.Context,
	teacherID, classroomID uuid.UUID,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM classroom_teachers
			WHERE teacher_id = $1 AND classroom_id = $2
		)
	`

	var owns bool
	if err := s.db.QueryRowContext(ctx, query, teacherID, classroomID).Scan(&owns); err != nil {
		return false, fmt.Errorf("failed to check classroom ownership: %w", err)
	}

	return owns, nil
}

// TeacherOwnsStudent implements store.RosterStore.TeacherOwnsStudent.
func (s *PostgresRosterStore) TeacherOwnsStudent(
	ctx context.Context,
	teacherID, studentID uuid.UUID,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM classroom_teachers t
			JOIN classroom_enrollments e ON e.classroom_id = t.classroom_id
			WHERE t.teacher_id = $1 AND e.student_id = $2
		)
	`

	var owns bool
	if err := s.db.QueryRowContext(ctx, query, teacherID, studentID).Scan(&owns); err != nil {
		return false, fmt.Errorf("failed to check student ownership: %w", err)
	}

	return owns, nil
}

// Ancestors implements store.RosterStore.Ancestors.
func (s *PostgresRosterStore) Ancestors(
	ctx context.Context,
	scope domain.Scope,
	scopeID uuid.UUID,
) ([]domain.ScopeRef, error) {
	switch scope {
	case domain.ScopeStudent:
		return s.studentAncestors(ctx, scopeID)
	case domain.ScopeClassroom:
		return s.classroomAncestors(ctx, scopeID)
	case domain.ScopeSchool:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidScope, scope)
	}
}

func (s *PostgresRosterStore) studentAncestors(
	ctx context.Context,
	studentID uuid.UUID,
) ([]domain.ScopeRef, error) {
	query := `
		SELECT e.classroom_id, cl.school_id
		FROM classroom_enrollments e
		JOIN classrooms cl ON cl.id = e.classroom_id
		WHERE e.student_id = $1
	`

	rows, err := s.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query student ancestors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var refs []domain.ScopeRef
	schools := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var classroomID, schoolID uuid.UUID
		if err := rows.Scan(&classroomID, &schoolID); err != nil {
			return nil, fmt.Errorf("failed to scan ancestor row: %w", err)
		}
		refs = append(refs, domain.ScopeRef{Scope: domain.ScopeClassroom, ScopeID: classroomID})
		schools[schoolID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ancestor rows: %w", err)
	}

	for schoolID := range schools {
		refs = append(refs, domain.ScopeRef{Scope: domain.ScopeSchool, ScopeID: schoolID})
	}

	return refs, nil
}

func (s *PostgresRosterStore) classroomAncestors(
	ctx context.Context,
	classroomID uuid.UUID,
) ([]domain.ScopeRef, error) {
	query := `SELECT school_id FROM classrooms WHERE id = $1`

	var schoolID uuid.UUID
	err := s.db.QueryRowContext(ctx, query, classroomID).Scan(&schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrScopeNotFound
		}
		return nil, fmt.Errorf("failed to query classroom school: %w", err)
	}

	return []domain.ScopeRef{{Scope: domain.ScopeSchool, ScopeID: schoolID}}, nil
}

// ScopeExists implements store.RosterStore.ScopeExists.
func (s *PostgresRosterStore) ScopeExists(
	ctx context.Context,
	scope domain.Scope,
	scopeID uuid.UUID,
) (bool, error) {
	var query string
	switch scope {
	case domain.ScopeStudent:
		query = `SELECT EXISTS (SELECT 1 FROM classroom_enrollments WHERE student_id = $1)`
	case domain.ScopeClassroom:
		query = `SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)`
	case domain.ScopeSchool:
		query = `SELECT EXISTS (SELECT 1 FROM classrooms WHERE school_id = $1)`
	default:
		return false, fmt.Errorf("%w: %q", domain.ErrInvalidScope, scope)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, scopeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check scope existence: %w", err)
	}

	return exists, nil
}
