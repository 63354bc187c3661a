package access

import "go-extension-dashboard/internal/model"

// ResourcePolicy is the maximum level each non-superadmin role holds on one
// resource. Superadmin is deliberately absent: it is the implicit ceiling
// of every column and is applied by the resolver.
type ResourcePolicy struct {
	Consulta  Level
	Usuario   Level
	Operacion Level
	Admin     Level
}

func (p ResourcePolicy) forRole(role model.RoleCode) Level {
	switch role {
	case model.RoleConsulta:
		return p.Consulta
	case model.RoleUsuario:
		return p.Usuario
	case model.RoleOperacion:
		return p.Operacion
	case model.RoleAdmin:
		return p.Admin
	default:
		return None
	}
}

// DefaultPolicies holds one row per resource in model.AllResources.
var DefaultPolicies = map[model.Resource]ResourcePolicy{
	model.ResourceUsers:             {Operacion: Read, Admin: Admin},
	model.ResourceRoles:             {Admin: Read},
	model.ResourceForms:             {Consulta: Read, Usuario: Read, Operacion: Write, Admin: Admin},
	model.ResourceDocuments:         {Consulta: Read, Usuario: Read, Operacion: Write, Admin: Admin},
	model.ResourceHistory:           {Consulta: Read, Usuario: Read, Operacion: Read, Admin: Read},
	model.ResourceProjects:          {Consulta: Read, Usuario: Read, Operacion: Write, Admin: Admin},
	model.ResourceDashboard:         {Consulta: Read, Usuario: Read, Operacion: Read, Admin: Admin},
	model.ResourceBudget:            {Usuario: Read, Operacion: Write, Admin: Admin},
	model.ResourceFinancialTracking: {Usuario: Read, Operacion: Write, Admin: Admin},
	model.ResourceSettings:          {Operacion: Read, Admin: Admin},
	model.ResourceReports:           {Consulta: Read, Usuario: Read, Operacion: Read, Admin: Admin},
	model.ResourceExcelImport:       {Operacion: Write, Admin: Admin},
	model.ResourceCenters:           {Consulta: Read, Usuario: Read, Operacion: Read, Admin: Admin},
}

// Matrix maps (role, resource) to the maximum level granted. Missing
// entries mean None.
type Matrix map[model.RoleCode]map[model.Resource]Level

// NewMatrix builds a matrix from per-resource policies. Only levels above
// None are stored.
func NewMatrix(policies map[model.Resource]ResourcePolicy) Matrix {
	m := make(Matrix)
	for resource, policy := range policies {
		for _, role := range []model.RoleCode{model.RoleConsulta, model.RoleUsuario, model.RoleOperacion, model.RoleAdmin} {
			level := policy.forRole(role)
			if level <= None {
				continue
			}
			if m[role] == nil {
				m[role] = make(map[model.Resource]Level)
			}
			m[role][resource] = level
		}
	}
	return m
}

// DefaultMatrix is built from DefaultPolicies.
func DefaultMatrix() Matrix {
	return NewMatrix(DefaultPolicies)
}

// Lookup never panics; unknown roles and resources resolve to None.
func (m Matrix) Lookup(role model.RoleCode, resource model.Resource) Level {
	row, ok := m[role.Canonical()]
	if !ok {
		return None
	}
	return row[resource]
}
