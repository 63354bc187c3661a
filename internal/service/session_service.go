package service

import (
	"context"
	"sync"
	"time"

	"go-extension-dashboard/internal/center"
	"go-extension-dashboard/internal/metrics"
	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types pushed to a user's websocket connections.
const (
	EventCenterChanged    = "center_changed"
	EventNavigate         = "navigate"
	EventUserStatusUpdate = "user_status_update"
	EventCenterUpdated    = "center_updated"
)

// SelectedCenterKeyPrefix prefixes the per-user key the selected center id
// is persisted under.
const SelectedCenterKeyPrefix = "selected_center:"

// Notifier delivers events to connected clients.
type Notifier interface {
	SendToUser(userID, eventType string, data interface{})
	BroadcastEvent(eventType string, data interface{})
}

// ActiveSession is the server-side session of a signed-in user.
type ActiveSession struct {
	*session.Session
	UserID uuid.UUID
	Role   model.RoleCode
	Nav    *session.Navigator
	Center *center.Context

	cancel context.CancelFunc
}

type SessionService interface {
	Open(user *model.User) *ActiveSession
	Ensure(user *model.User) *ActiveSession
	Get(userID uuid.UUID) (*ActiveSession, bool)
	Close(userID uuid.UUID) bool
	Touch(userID uuid.UUID)
	SweepIdle(maxIdle time.Duration) []uuid.UUID
	SyncAvailable(ctx context.Context, userID uuid.UUID) error
	SyncAll(ctx context.Context) error
	Count() int
}

type sessionService struct {
	store       center.Store
	directory   CenterDirectory
	notifier    Notifier
	metrics     *metrics.Metrics
	logger      *zap.Logger
	initTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*ActiveSession
}

// NewSessionService keeps one session per user. store may be nil to keep
// center selections in memory only; notifier may be nil in tests.
func NewSessionService(store center.Store, directory CenterDirectory, notifier Notifier, m *metrics.Metrics, logger *zap.Logger, initTimeout time.Duration) SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sessionService{
		store:       store,
		directory:   directory,
		notifier:    notifier,
		metrics:     m,
		logger:      logger.Named("sessions"),
		initTimeout: initTimeout,
		now:         time.Now,
		sessions:    make(map[uuid.UUID]*ActiveSession),
	}
}

// Open starts a fresh session for user, replacing any previous one, and
// starts loading its center context in the background.
func (s *sessionService) Open(user *model.User) *ActiveSession {
	userID := user.ID.String()
	logger := s.logger.With(zap.String("user_id", userID))

	nav := session.NewNavigator(func(ev session.NavigateEvent) {
		s.notify(userID, EventNavigate, ev)
	})
	ctx, cancel := context.WithCancel(context.Background())
	active := &ActiveSession{
		Session: session.New(uuid.NewString(), s.now()),
		UserID:  user.ID,
		Role:    user.Role.Canonical(),
		Nav:     nav,
		Center: center.New(s.store, nav,
			center.WithStorageKey(SelectedCenterKeyPrefix+userID),
			center.WithInitTimeout(s.initTimeout),
			center.WithLogger(logger),
		),
		cancel: cancel,
	}

	s.mu.Lock()
	previous := s.sessions[user.ID]
	s.sessions[user.ID] = active
	count := len(s.sessions)
	s.mu.Unlock()

	if previous != nil {
		s.teardown(previous)
	}
	s.metrics.SetActiveSessions(count)

	updates, _ := active.Center.Subscribe()
	go func() {
		for st := range updates {
			s.notify(userID, EventCenterChanged, st)
		}
	}()

	active.Resolve(session.AuthenticatedStatus(userID, active.Role))
	go active.Center.Initialize(ctx, active, s.loader(user.ID))

	logger.Info("session opened", zap.String("session_id", active.ID), zap.String("role", string(active.Role)))
	return active
}

// Ensure returns the user's live session, opening one when there is none
// or when the user's role changed since it was opened.
func (s *sessionService) Ensure(user *model.User) *ActiveSession {
	if active, ok := s.Get(user.ID); ok && active.Role == user.Role.Canonical() {
		return active
	}
	return s.Open(user)
}

func (s *sessionService) Get(userID uuid.UUID) (*ActiveSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, ok := s.sessions[userID]
	return active, ok
}

func (s *sessionService) Close(userID uuid.UUID) bool {
	s.mu.Lock()
	active, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
	}
	count := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.teardown(active)
	s.metrics.SetActiveSessions(count)
	s.logger.Info("session closed", zap.String("user_id", userID.String()), zap.String("session_id", active.ID))
	return true
}

func (s *sessionService) teardown(active *ActiveSession) {
	active.cancel()
	active.Center.Teardown()
}

func (s *sessionService) Touch(userID uuid.UUID) {
	if active, ok := s.Get(userID); ok {
		active.Touch(s.now())
	}
}

// SweepIdle closes every session not seen for longer than maxIdle and
// returns the ids of their users.
func (s *sessionService) SweepIdle(maxIdle time.Duration) []uuid.UUID {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var idle []*ActiveSession
	for id, active := range s.sessions {
		if active.LastSeen().Before(cutoff) {
			idle = append(idle, active)
			delete(s.sessions, id)
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(idle))
	for _, active := range idle {
		s.teardown(active)
		ids = append(ids, active.UserID)
	}
	s.metrics.SetActiveSessions(count)
	s.metrics.AddEvictedSessions(len(ids))
	return ids
}

// SyncAvailable brings the user's live center list in line with the
// current assignments and active centers.
func (s *sessionService) SyncAvailable(ctx context.Context, userID uuid.UUID) error {
	active, ok := s.Get(userID)
	if !ok {
		return nil
	}
	if err := active.Center.WaitReady(ctx); err != nil {
		return err
	}

	want, err := s.directory.AvailableFor(ctx, userID, active.Role)
	if err != nil {
		return err
	}

	wanted := make(map[uint]model.Center, len(want))
	for _, c := range want {
		wanted[c.ID] = c
	}
	have := make(map[uint]model.Center)
	for _, c := range active.Center.Snapshot().AvailableCenters {
		have[c.ID] = c
		if _, keep := wanted[c.ID]; !keep {
			active.Center.RemoveCenter(ctx, c.ID)
		}
	}
	for _, c := range want {
		if old, ok := have[c.ID]; ok {
			if !sameCenter(old, c) {
				if err := active.Center.UpdateCenter(c); err != nil {
					s.logger.Warn("refreshing center in live session failed",
						zap.String("user_id", userID.String()), zap.Uint("center_id", c.ID), zap.Error(err))
				}
			}
			continue
		}
		if err := active.Center.AddCenter(c); err != nil {
			s.logger.Warn("adding center to live session failed",
				zap.String("user_id", userID.String()), zap.Uint("center_id", c.ID), zap.Error(err))
		}
	}
	return nil
}

// sameCenter compares the fields a session shows or selects by.
func sameCenter(a, b model.Center) bool {
	return a.Name == b.Name && a.Slug == b.Slug && a.Description == b.Description &&
		a.IsDefault == b.IsDefault && a.IsActive() == b.IsActive()
}

// SyncAll runs SyncAvailable for every live session.
func (s *sessionService) SyncAll(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := s.SyncAvailable(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *sessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *sessionService) loader(userID uuid.UUID) center.Loader {
	return func(ctx context.Context, status session.Status) ([]model.Center, error) {
		return s.directory.AvailableFor(ctx, userID, status.Role)
	}
}

func (s *sessionService) notify(userID, eventType string, data interface{}) {
	if s.notifier != nil {
		s.notifier.SendToUser(userID, eventType, data)
	}
}
