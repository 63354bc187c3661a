package session

import (
	"sync"
	"time"
)

// Session is a Source that is resolved exactly once.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.RWMutex
	status   Status
	lastSeen time.Time
	done     chan struct{}
	once     sync.Once
}

// New returns a pending session.
func New(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		status:    PendingStatus(),
		lastSeen:  now,
		done:      make(chan struct{}),
	}
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Resolve moves the session out of Pending. Only the first resolution
// counts; resolving to Pending is ignored.
func (s *Session) Resolve(status Status) bool {
	if !status.Resolved() {
		return false
	}
	resolved := false
	s.once.Do(func() {
		s.mu.Lock()
		s.status = status
		s.mu.Unlock()
		close(s.done)
		resolved = true
	})
	return resolved
}

// Touch records activity.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	if now.After(s.lastSeen) {
		s.lastSeen = now
	}
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}
