package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

// RosterStore is a read-only view of the enrollment data owned by the
// classroom-management side of the platform. The core never writes it;
// it is consulted for authorization checks and for walking a scope's
// ancestors when invalidating cached metrics.
type RosterStore interface {
	// TeacherOwnsClassroom reports whether the teacher teaches the classroom.
	TeacherOwnsClassroom(ctx context.Context, teacherID, classroomID uuid.UUID) (bool, error)

	// TeacherOwnsStudent reports whether the student is enrolled in any of
	// the teacher's classrooms.
	TeacherOwnsStudent(ctx context.Context, teacherID, studentID uuid.UUID) (bool, error)

	// Ancestors returns the scopes above the given one, narrowest first:
	// a student's classrooms then their school, or a classroom's school.
	// A school has no ancestors. Returns ErrScopeNotFound for unknown IDs.
	Ancestors(ctx context.Context, scope domain.Scope, scopeID uuid.UUID) ([]domain.ScopeRef, error)

	// ScopeExists reports whether the scope entity is known to the roster.
	ScopeExists(ctx context.Context, scope domain.Scope, scopeID uuid.UUID) (bool, error)
}
