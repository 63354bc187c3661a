package access

import "go-extension-dashboard/internal/model"

// Subject is whoever asks for access. A nil Role is an unauthenticated
// visitor and is evaluated as the lowest-privilege role.
type Subject struct {
	Role *model.RoleCode
}

// SubjectFor is a convenience for a known role.
func SubjectFor(role model.RoleCode) Subject {
	return Subject{Role: &role}
}

func (s Subject) role() model.RoleCode {
	if s.Role == nil {
		return model.RoleConsulta
	}
	return s.Role.Canonical()
}

// Resolver answers permission questions against an immutable matrix.
type Resolver struct {
	matrix Matrix
}

// NewResolver uses DefaultMatrix when m is nil.
func NewResolver(m Matrix) *Resolver {
	if m == nil {
		m = DefaultMatrix()
	}
	return &Resolver{matrix: m}
}

var defaultResolver = NewResolver(nil)

// HasPermission checks subject against the default matrix.
func HasPermission(subject Subject, resource model.Resource, required Level) bool {
	return defaultResolver.HasPermission(subject, resource, required)
}

// Level is the effective level of role on resource. Superadmin
// short-circuits to Admin before the matrix is consulted.
func (r *Resolver) Level(role model.RoleCode, resource model.Resource) Level {
	if role.Canonical() == model.RoleSuperAdmin {
		return Admin
	}
	return r.matrix.Lookup(role, resource)
}

// HasPermission is pure and total: it never fails, and absence of data is
// a denial.
func (r *Resolver) HasPermission(subject Subject, resource model.Resource, required Level) bool {
	if required <= None {
		return true
	}
	return r.Level(subject.role(), resource).Satisfies(required)
}

// Row returns the effective level of role on every catalog resource.
func (r *Resolver) Row(role model.RoleCode) map[model.Resource]Level {
	row := make(map[model.Resource]Level, len(model.DefaultResources))
	for _, resource := range model.AllResources() {
		row[resource] = r.Level(role, resource)
	}
	return row
}
