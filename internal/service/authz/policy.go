// Package authz decides which principals may view health metrics and
// execute quick actions on a scope. It is a pure policy layer over the
// read-only roster; nothing here mutates state.
package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// Policy answers authorization questions against the roster.
type Policy struct {
	roster store.RosterStore
}

// NewPolicy creates a Policy backed by the given roster.
func NewPolicy(roster store.RosterStore) *Policy {
	if roster == nil {
		panic("roster cannot be nil")
	}
	return &Policy{roster: roster}
}

// CanView reports whether the principal may read health metrics for the
// scope. Students see only their own student scope; teachers see their
// own students and classrooms; admins and system callers see everything.
func (p *Policy) CanView(
	ctx context.Context,
	principal domain.Principal,
	scope domain.Scope,
	scopeID uuid.UUID,
) (bool, error) {
	if err := principal.Validate(); err != nil {
		return false, err
	}

	switch principal.Role {
	case domain.RoleAdmin, domain.RoleSystem:
		return true, nil

	case domain.RoleStudent:
		return scope == domain.ScopeStudent && scopeID == principal.StudentID, nil

	case domain.RoleTeacher:
		return p.teacherOwnsScope(ctx, principal, scope, scopeID)

	default:
		return false, nil
	}
}

// CanAct reports whether the principal may execute the given quick
// action on the scope. The rules extend CanView with one restriction:
// students cannot raise teacher alerts, even about themselves.
func (p *Policy) CanAct(
	ctx context.Context,
	principal domain.Principal,
	actionType domain.ActionType,
	scope domain.Scope,
	scopeID uuid.UUID,
) (bool, error) {
	if !actionType.IsValid() {
		return false, fmt.Errorf("%w: %q", domain.ErrInvalidActionType, actionType)
	}

	if principal.Role == domain.RoleStudent && actionType == domain.ActionTeacherAlert {
		return false, nil
	}

	return p.CanView(ctx, principal, scope, scopeID)
}

// AllowedActions lists the action types the principal may execute on the
// scope, in the stable order of domain.AllActionTypes. Types that cannot
// target the scope level at all are left out, so a listing never
// advertises an action the executor would reject.
func (p *Policy) AllowedActions(
	ctx context.Context,
	principal domain.Principal,
	scope domain.Scope,
	scopeID uuid.UUID,
) ([]domain.ActionType, error) {
	allowed := make([]domain.ActionType, 0, len(domain.AllActionTypes))
	for _, actionType := range domain.AllActionTypes {
		if !actionType.AppliesToScope(scope) {
			continue
		}
		ok, err := p.CanAct(ctx, principal, actionType, scope, scopeID)
		if err != nil {
			return nil, err
		}
		if ok {
			allowed = append(allowed, actionType)
		}
	}
	return allowed, nil
}

// teacherOwnsScope resolves a teacher's relationship to the scope via
// the roster. School scope is denied: teachers act on their own
// classrooms and students, not a whole school.
func (p *Policy) teacherOwnsScope(
	ctx context.Context,
	principal domain.Principal,
	scope domain.Scope,
	scopeID uuid.UUID,
) (bool, error) {
	switch scope {
	case domain.ScopeStudent:
		owns, err := p.roster.TeacherOwnsStudent(ctx, principal.UserID, scopeID)
		if err != nil {
			return false, fmt.Errorf("failed to check student ownership: %w", err)
		}
		return owns, nil

	case domain.ScopeClassroom:
		owns, err := p.roster.TeacherOwnsClassroom(ctx, principal.UserID, scopeID)
		if err != nil {
			return false, fmt.Errorf("failed to check classroom ownership: %w", err)
		}
		return owns, nil

	default:
		return false, nil
	}
}
