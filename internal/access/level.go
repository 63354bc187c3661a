package access

import (
	"fmt"
	"strings"
)

// Level is an ordered capability tier. A higher tier implies every
// capability of the tiers below it.
type Level int

const (
	None Level = iota
	Read
	Write
	Admin
)

// Edit is the dashboard's name for Write.
const Edit = Write

func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case Read:
		return "read"
	case Write:
		return "write"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel accepts none, read, write, edit and admin in any case.
// Anything else is None.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read":
		return Read
	case "write", "edit":
		return Write
	case "admin":
		return Admin
	default:
		return None
	}
}

// Satisfies reports whether l grants at least required.
func (l Level) Satisfies(required Level) bool {
	return l >= required
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	*l = ParseLevel(string(text))
	return nil
}
