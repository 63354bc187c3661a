package access

import (
	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/session"
)

// Result is a session-bound permission answer.
type Result struct {
	HasPermission bool `json:"has_permission"`
	IsLoading     bool `json:"is_loading"`
}

// Query evaluates the check for whoever src currently represents. While
// the session is still pending the answer is always a denial.
func (r *Resolver) Query(src session.Source, resource model.Resource, required Level) Result {
	if src == nil {
		return Result{HasPermission: r.HasPermission(Subject{}, resource, required)}
	}

	status := src.Status()
	switch status.Kind {
	case session.Authenticated:
		return Result{HasPermission: r.HasPermission(SubjectFor(status.Role), resource, required)}
	case session.Unauthenticated:
		return Result{HasPermission: r.HasPermission(Subject{}, resource, required)}
	default:
		return Result{HasPermission: false, IsLoading: true}
	}
}
