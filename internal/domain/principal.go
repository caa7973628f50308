package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the access role carried by an authenticated principal.
// Authentication itself happens outside this service; we only consume
// the role and scope claims of an already-issued token.
type Role string

// Supported roles.
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
	RoleSystem  Role = "system"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin, RoleSystem:
		return true
	default:
		return false
	}
}

// Scope identifies the aggregation level of a health metric or quick action.
type Scope string

// Supported scopes, from narrowest to widest.
const (
	ScopeStudent   Scope = "student"
	ScopeClassroom Scope = "classroom"
	ScopeSchool    Scope = "school"
)

// IsValid reports whether the scope is one of the known values.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeStudent, ScopeClassroom, ScopeSchool:
		return true
	default:
		return false
	}
}

// ScopeRef pairs a scope level with the identity of the entity at that level.
type ScopeRef struct {
	Scope   Scope     `json:"scope"`
	ScopeID uuid.UUID `json:"scope_id"`
}

// Validate checks that the reference names a known scope and a real ID.
func (r ScopeRef) Validate() error {
	if !r.Scope.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidScope, r.Scope)
	}
	if r.ScopeID == uuid.Nil {
		return fmt.Errorf("%w: scope ID cannot be empty", ErrValidation)
	}
	return nil
}

// Principal is the already-authenticated caller of an endpoint.
// StudentID is set for student-role principals, SchoolID for teachers
// and school-level admins. Classroom ownership is resolved against the
// roster, not carried in the token.
type Principal struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	StudentID uuid.UUID `json:"student_id,omitempty"`
	SchoolID  uuid.UUID `json:"school_id,omitempty"`
}

// Validate checks the principal's role and identity fields.
func (p Principal) Validate() error {
	if p.UserID == uuid.Nil {
		return fmt.Errorf("%w: user ID cannot be empty", ErrValidation)
	}
	if !p.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, p.Role)
	}
	if p.Role == RoleStudent && p.StudentID == uuid.Nil {
		return fmt.Errorf("%w: student principal has no student ID", ErrValidation)
	}
	return nil
}
