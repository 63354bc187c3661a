package center

import (
	"sort"

	"go-extension-dashboard/internal/model"
)

// Available is the list of centers a user may select: active centers
// intersected with the user's assignments, ordered by ID. A superadmin
// without assignments sees every active center.
func Available(all []model.Center, assigned []uint, role model.RoleCode) []model.Center {
	exempt := len(assigned) == 0 && role.Canonical() == model.RoleSuperAdmin

	allowed := make(map[uint]struct{}, len(assigned))
	for _, id := range assigned {
		allowed[id] = struct{}{}
	}

	out := make([]model.Center, 0, len(all))
	for _, c := range all {
		if !c.IsActive() {
			continue
		}
		if _, ok := allowed[c.ID]; !ok && !exempt {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fallback picks the default-flagged center, else the first one.
func fallback(centers []model.Center) *model.Center {
	for i := range centers {
		if centers[i].IsDefault {
			c := centers[i]
			return &c
		}
	}
	if len(centers) == 0 {
		return nil
	}
	c := centers[0]
	return &c
}

func indexByID(centers []model.Center, id uint) int {
	for i := range centers {
		if centers[i].ID == id {
			return i
		}
	}
	return -1
}

func indexBySlug(centers []model.Center, slug string) int {
	for i := range centers {
		if centers[i].Slug == slug {
			return i
		}
	}
	return -1
}
