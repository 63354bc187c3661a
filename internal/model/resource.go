package model

// Resource names a protected area of the dashboard. The set is closed;
// adding a tag here also requires a row in the access policy table.
type Resource string

const (
	ResourceUsers             Resource = "users"
	ResourceRoles             Resource = "roles"
	ResourceForms             Resource = "forms"
	ResourceDocuments         Resource = "documents"
	ResourceHistory           Resource = "history"
	ResourceProjects          Resource = "projects"
	ResourceDashboard         Resource = "dashboard"
	ResourceBudget            Resource = "budget"
	ResourceFinancialTracking Resource = "financial_tracking"
	ResourceSettings          Resource = "settings"
	ResourceReports           Resource = "reports"
	ResourceExcelImport       Resource = "excel_import"
	ResourceCenters           Resource = "centers"
)

// ResourceInfo is the catalog entry served to the admin screens.
type ResourceInfo struct {
	Code Resource `json:"code"`
	Name string   `json:"name"`
}

// DefaultResources is the resource catalog.
var DefaultResources = []ResourceInfo{
	{Code: ResourceUsers, Name: "Usuarios"},
	{Code: ResourceRoles, Name: "Roles"},
	{Code: ResourceForms, Name: "Fichas"},
	{Code: ResourceDocuments, Name: "Documentos"},
	{Code: ResourceHistory, Name: "Historial"},
	{Code: ResourceProjects, Name: "Proyectos"},
	{Code: ResourceDashboard, Name: "Dashboard"},
	{Code: ResourceBudget, Name: "Presupuesto"},
	{Code: ResourceFinancialTracking, Name: "Seguimiento financiero"},
	{Code: ResourceSettings, Name: "Configuracion"},
	{Code: ResourceReports, Name: "Reportes"},
	{Code: ResourceExcelImport, Name: "Importacion Excel"},
	{Code: ResourceCenters, Name: "Centros"},
}

// AllResources returns every resource tag in catalog order.
func AllResources() []Resource {
	codes := make([]Resource, len(DefaultResources))
	for i, r := range DefaultResources {
		codes[i] = r.Code
	}
	return codes
}

// Valid reports whether r is in the catalog.
func (r Resource) Valid() bool {
	for _, known := range DefaultResources {
		if known.Code == r {
			return true
		}
	}
	return false
}
