package model

import "strings"

// RoleCode identifies a user's authority class. A user holds exactly one.
type RoleCode string

const (
	RoleConsulta   RoleCode = "consulta"
	RoleUsuario    RoleCode = "usuario"
	RoleOperacion  RoleCode = "operacion"
	RoleAdmin      RoleCode = "admin"
	RoleSuperAdmin RoleCode = "superadmin"

	// roleGuestAlias is accepted on input and normalised to RoleConsulta.
	roleGuestAlias RoleCode = "guest"
)

// Role describes a role for listings and the admin screens.
type Role struct {
	Code        RoleCode `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}

// DefaultRoles is the closed role catalog, lowest privilege first.
var DefaultRoles = []Role{
	{Code: RoleConsulta, Name: "Consulta", Description: "Read-only access for guests and auditors"},
	{Code: RoleUsuario, Name: "Usuario", Description: "Basic access to fichas, projects and reports"},
	{Code: RoleOperacion, Name: "Operacion", Description: "Operational write access"},
	{Code: RoleAdmin, Name: "Administrador", Description: "Administrative access within assigned centers"},
	{Code: RoleSuperAdmin, Name: "Super Administrador", Description: "Unrestricted access to every resource"},
}

// AllRoles returns every role code, lowest privilege first.
func AllRoles() []RoleCode {
	codes := make([]RoleCode, len(DefaultRoles))
	for i, r := range DefaultRoles {
		codes[i] = r.Code
	}
	return codes
}

// Canonical folds aliases onto their catalog code. Unknown codes are
// returned unchanged so lookups against them resolve to nothing.
func (r RoleCode) Canonical() RoleCode {
	if r == roleGuestAlias {
		return RoleConsulta
	}
	return r
}

// Valid reports whether r (after alias folding) is in the catalog.
func (r RoleCode) Valid() bool {
	c := r.Canonical()
	for _, known := range DefaultRoles {
		if known.Code == c {
			return true
		}
	}
	return false
}

// ParseRole normalises user input into a catalog role code.
func ParseRole(s string) (RoleCode, bool) {
	code := RoleCode(strings.ToLower(strings.TrimSpace(s))).Canonical()
	if !code.Valid() {
		return "", false
	}
	return code, true
}
