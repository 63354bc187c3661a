package center

import "strings"

// scopeSegment marks a center-scoped location: .../center/<slug>/...
const scopeSegment = "center"

func splitLocation(location string) (path, query string) {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		return location[:i], location[i:]
	}
	return location, ""
}

func scopeIndex(segments []string) int {
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == scopeSegment && segments[i+1] != "" {
			return i
		}
	}
	return -1
}

// ParseScope returns the center slug embedded in location.
func ParseScope(location string) (string, bool) {
	path, _ := splitLocation(location)
	segments := strings.Split(path, "/")
	i := scopeIndex(segments)
	if i < 0 {
		return "", false
	}
	return segments[i+1], true
}

// RewriteScope swaps the slug segment of a center-scoped location. It
// reports false when location is not center-scoped.
func RewriteScope(location, slug string) (string, bool) {
	path, query := splitLocation(location)
	segments := strings.Split(path, "/")
	i := scopeIndex(segments)
	if i < 0 {
		return location, false
	}
	segments[i+1] = slug
	return strings.Join(segments, "/") + query, true
}

// ScopedDashboard is the dashboard of slug under the same prefix as
// location, e.g. /api/v1/center/x/forms -> /api/v1/center/<slug>/dashboard.
func ScopedDashboard(location, slug string) string {
	path, _ := splitLocation(location)
	segments := strings.Split(path, "/")
	prefix := ""
	if i := scopeIndex(segments); i > 0 {
		prefix = strings.TrimSuffix(strings.Join(segments[:i], "/"), "/")
	}
	return prefix + "/" + scopeSegment + "/" + slug + "/dashboard"
}
