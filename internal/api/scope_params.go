package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

// scopeFromQuery resolves the scope selector query parameters. Exactly
// one of student_id, classroom_id or school_id must be present.
func scopeFromQuery(r *http.Request) (domain.Scope, uuid.UUID, error) {
	q := r.URL.Query()

	selectors := []struct {
		param string
		scope domain.Scope
	}{
		{"student_id", domain.ScopeStudent},
		{"classroom_id", domain.ScopeClassroom},
		{"school_id", domain.ScopeSchool},
	}

	var (
		scope domain.Scope
		raw   string
		found int
	)
	for _, s := range selectors {
		if v := q.Get(s.param); v != "" {
			scope = s.scope
			raw = v
			found++
		}
	}

	if found != 1 {
		return "", uuid.Nil, fmt.Errorf(
			"%w: exactly one of student_id, classroom_id or school_id is required",
			domain.ErrValidation)
	}

	scopeID, err := uuid.Parse(raw)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%w: malformed %s ID", domain.ErrInvalidID, scope)
	}

	return scope, scopeID, nil
}
