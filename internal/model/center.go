package model

import "time"

// Center is an organizational unit that scopes the whole dashboard.
// Centers are deactivated, never deleted.
type Center struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,max=150"`
	Slug        string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"slug" validate:"required,slug,max=80"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	Active      *bool     `gorm:"default:true" json:"active,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsActive treats a missing flag as active.
func (c Center) IsActive() bool {
	return c.Active == nil || *c.Active
}

// DefaultCenters are seeded on first start.
var DefaultCenters = []Center{
	{Name: "Sede Central", Slug: "sede-central", Description: "Coordinacion general de extension", IsDefault: true},
	{Name: "Centro Regional Norte", Slug: "regional-norte", Description: "Programas de extension zona norte"},
	{Name: "Centro Regional Sur", Slug: "regional-sur", Description: "Programas de extension zona sur"},
}
