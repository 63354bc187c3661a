// Package session tracks whether a browsing session has been resolved to a
// user, and where that session's client currently is.
package session

import "go-extension-dashboard/internal/model"

// Kind is the resolution phase of a session.
type Kind int

const (
	Pending Kind = iota
	Authenticated
	Unauthenticated
)

func (k Kind) String() string {
	switch k {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "pending"
	}
}

// Status is the current session state. UserID and Role are only set for
// Authenticated.
type Status struct {
	Kind   Kind
	UserID string
	Role   model.RoleCode
}

func PendingStatus() Status {
	return Status{Kind: Pending}
}

func AuthenticatedStatus(userID string, role model.RoleCode) Status {
	return Status{Kind: Authenticated, UserID: userID, Role: role}
}

func UnauthenticatedStatus() Status {
	return Status{Kind: Unauthenticated}
}

// Resolved reports whether the session has left Pending.
func (s Status) Resolved() bool {
	return s.Kind != Pending
}

// Source exposes the session status to the core. Done is closed once the
// status is no longer Pending.
type Source interface {
	Status() Status
	Done() <-chan struct{}
}
