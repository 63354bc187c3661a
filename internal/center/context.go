// Package center keeps the active organizational center of a session and
// keeps it consistent with the location the client is on.
package center

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/session"

	"go.uber.org/zap"
)

var (
	ErrDuplicateSlug      = errors.New("a center with this slug already exists")
	ErrAlreadyAvailable   = errors.New("center is already available")
	ErrCenterNotAvailable = errors.New("center is not available to this user")
	ErrClosed             = errors.New("center context is closed")
)

// DefaultInitTimeout caps how long Initialize waits for the session and
// the center list before giving up.
const DefaultInitTimeout = 10 * time.Second

// Store persists the selected center id across sessions. Best effort.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Navigator is the client location as seen by the core.
type Navigator interface {
	CurrentLocation() string
	Replace(path string)
	Push(path string)
}

// Loader returns the centers available to a resolved session.
type Loader func(ctx context.Context, status session.Status) ([]model.Center, error)

// State is a copy of the context's state; safe to keep and serialize.
type State struct {
	CurrentCenter    *model.Center  `json:"current_center"`
	AvailableCenters []model.Center `json:"available_centers"`
	Loading          bool           `json:"loading"`
}

// SwitchResult describes what a SwitchCenter call did. Location is the
// rewritten location when a navigation happened.
type SwitchResult struct {
	Changed  bool   `json:"changed"`
	Location string `json:"location,omitempty"`
}

type Outcome int

const (
	NotScoped Outcome = iota
	Matched
	Switched
	Redirected
	NoCenters
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Switched:
		return "switched"
	case Redirected:
		return "redirected"
	case NoCenters:
		return "no_centers"
	default:
		return "not_scoped"
	}
}

// ReconcileResult is returned by Reconcile. Location is set for Redirected.
type ReconcileResult struct {
	Outcome  Outcome
	Location string
}

type Option func(*Context)

func WithInitTimeout(d time.Duration) Option {
	return func(c *Context) {
		if d > 0 {
			c.initTimeout = d
		}
	}
}

// WithStorageKey sets the key the selection is persisted under.
func WithStorageKey(key string) Option {
	return func(c *Context) {
		if key != "" {
			c.key = key
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Context is the single writer of a session's center selection. All other
// components read snapshots or subscribe.
type Context struct {
	store       Store
	nav         Navigator
	logger      *zap.Logger
	key         string
	initTimeout time.Duration

	mu         sync.RWMutex
	current    *model.Center
	available  []model.Center
	loading    bool
	closed     bool
	generation uint64

	persistMu   sync.Mutex
	storeFailed bool

	initOnce  sync.Once
	ready     chan struct{}
	readyOnce sync.Once

	subMu   sync.Mutex
	subs    map[int]chan State
	nextSub int
}

// New returns a context in the loading state. store and nav may be nil,
// in which case the selection is in-memory only and no navigation happens.
func New(store Store, nav Navigator, opts ...Option) *Context {
	c := &Context{
		store:       store,
		nav:         nav,
		logger:      zap.NewNop(),
		key:         "selected_center",
		initTimeout: DefaultInitTimeout,
		loading:     true,
		ready:       make(chan struct{}),
		subs:        make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Context) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Context) snapshotLocked() State {
	s := State{Loading: c.loading}
	if c.current != nil {
		cur := *c.current
		s.CurrentCenter = &cur
	}
	s.AvailableCenters = make([]model.Center, len(c.available))
	copy(s.AvailableCenters, c.available)
	return s
}

// Ready is closed once the loading phase is over.
func (c *Context) Ready() <-chan struct{} {
	return c.ready
}

// WaitReady blocks until loading is over or ctx is done.
func (c *Context) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Initialize resolves the starting center once src leaves Pending:
// persisted choice if still available, else the default center, else the
// first available, else none. Only the first call has any effect, and the
// loading phase always ends, on timeout included.
func (c *Context) Initialize(ctx context.Context, src session.Source, load Loader) {
	c.initOnce.Do(func() {
		defer c.finishLoading()
		c.initialize(ctx, src, load)
	})
}

func (c *Context) initialize(ctx context.Context, src session.Source, load Loader) {
	ctx, cancel := context.WithTimeout(ctx, c.initTimeout)
	defer cancel()

	select {
	case <-src.Done():
	case <-ctx.Done():
		c.logger.Warn("center initialization gave up waiting for the session",
			zap.Duration("timeout", c.initTimeout), zap.Error(ctx.Err()))
		return
	}

	status := src.Status()
	if status.Kind != session.Authenticated {
		c.logger.Debug("session is not authenticated, no center selected", zap.Stringer("status", status.Kind))
		return
	}

	centers, err := load(ctx, status)
	if err != nil {
		c.logger.Warn("loading available centers failed", zap.String("user_id", status.UserID), zap.Error(err))
		return
	}

	selected := c.restore(ctx, centers)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.available = append([]model.Center(nil), centers...)
	c.current = selected
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	if selected != nil {
		c.persist(ctx, selected.ID, gen)
	}
}

// restore returns the persisted center when it is still in centers, and
// the fallback otherwise.
func (c *Context) restore(ctx context.Context, centers []model.Center) *model.Center {
	if c.store == nil {
		return fallback(centers)
	}

	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		c.logger.Warn("reading persisted center failed", zap.String("key", c.key), zap.Error(err))
		return fallback(centers)
	}
	if !ok {
		return fallback(centers)
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.logger.Debug("discarding malformed persisted center", zap.String("value", raw))
		return fallback(centers)
	}
	if i := indexByID(centers, uint(id)); i >= 0 {
		selected := centers[i]
		return &selected
	}

	c.logger.Debug("persisted center is no longer available", zap.Uint64("center_id", id))
	return fallback(centers)
}

func (c *Context) finishLoading() {
	c.mu.Lock()
	c.loading = false
	if !c.closed {
		c.broadcast(c.snapshotLocked())
	}
	c.mu.Unlock()

	c.readyOnce.Do(func() { close(c.ready) })
}

// persist writes id unless a newer selection happened since gen. After
// the first failed write the context stops writing for the rest of the
// session; memory stays authoritative.
func (c *Context) persist(ctx context.Context, id uint, gen uint64) {
	if c.store == nil {
		return
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	if c.storeFailed || c.currentGeneration() != gen {
		return
	}
	if err := c.store.Set(ctx, c.key, strconv.FormatUint(uint64(id), 10)); err != nil {
		c.storeFailed = true
		c.logger.Warn("persisting selected center failed, keeping selections in memory",
			zap.String("key", c.key), zap.Uint("center_id", id), zap.Error(err))
	}
}

func (c *Context) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// SwitchCenter makes target the current center. Switching to the current
// center does nothing. Otherwise memory is updated first, then the choice
// is persisted, then a center-scoped location is rewritten to the new slug.
// When calls overlap the latest one wins.
func (c *Context) SwitchCenter(ctx context.Context, target model.Center) (SwitchResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return SwitchResult{}, ErrClosed
	}
	if c.current != nil && c.current.ID == target.ID {
		c.mu.Unlock()
		return SwitchResult{}, nil
	}
	i := indexByID(c.available, target.ID)
	if i < 0 {
		c.mu.Unlock()
		return SwitchResult{}, ErrCenterNotAvailable
	}
	selected := c.available[i]
	c.current = &selected
	c.generation++
	gen := c.generation
	c.broadcast(c.snapshotLocked())
	c.mu.Unlock()

	c.persist(ctx, selected.ID, gen)

	result := SwitchResult{Changed: true}
	if c.nav == nil {
		return result, nil
	}

	location := c.nav.CurrentLocation()
	rewritten, scoped := RewriteScope(location, selected.Slug)
	if !scoped || rewritten == location {
		return result, nil
	}
	if c.currentGeneration() != gen {
		return result, nil
	}

	c.nav.Replace(rewritten)
	result.Location = rewritten
	return result, nil
}

// AddCenter makes center selectable without selecting it.
func (c *Context) AddCenter(center model.Center) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if indexBySlug(c.available, center.Slug) >= 0 {
		c.mu.Unlock()
		return ErrDuplicateSlug
	}
	if indexByID(c.available, center.ID) >= 0 {
		c.mu.Unlock()
		return ErrAlreadyAvailable
	}
	c.available = append(c.available, center)
	c.broadcast(c.snapshotLocked())
	c.mu.Unlock()
	return nil
}

// UpdateCenter replaces the stored copy of an available center, keyed by
// id, without changing which center is selected.
func (c *Context) UpdateCenter(center model.Center) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	i := indexByID(c.available, center.ID)
	if i < 0 {
		return ErrCenterNotAvailable
	}
	if j := indexBySlug(c.available, center.Slug); j >= 0 && j != i {
		return ErrDuplicateSlug
	}
	c.available[i] = center
	if c.current != nil && c.current.ID == center.ID {
		updated := center
		c.current = &updated
	}
	c.broadcast(c.snapshotLocked())
	return nil
}

// RemoveCenter drops a center that is no longer available to the user.
// When it was the current center the selection falls back to the default
// or first remaining center.
func (c *Context) RemoveCenter(ctx context.Context, id uint) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	i := indexByID(c.available, id)
	if i < 0 {
		c.mu.Unlock()
		return false
	}

	remaining := make([]model.Center, 0, len(c.available)-1)
	remaining = append(remaining, c.available[:i]...)
	remaining = append(remaining, c.available[i+1:]...)
	c.available = remaining

	// Only a change of the current center counts as a new selection; an
	// in-flight switch must still navigate when an unrelated center goes.
	var (
		reselected *model.Center
		gen        uint64
	)
	if c.current != nil && c.current.ID == id {
		c.current = fallback(remaining)
		reselected = c.current
		c.generation++
		gen = c.generation
	}
	c.broadcast(c.snapshotLocked())
	c.mu.Unlock()

	if reselected != nil {
		c.persist(ctx, reselected.ID, gen)
	}
	return true
}

// Reconcile aligns the current center with the slug in location. The
// location wins when it names a known center. An unknown slug is
// redirected to the first available center's dashboard; with no centers
// at all the location is left alone.
func (c *Context) Reconcile(ctx context.Context, location string) ReconcileResult {
	slug, scoped := ParseScope(location)
	if !scoped {
		return ReconcileResult{Outcome: NotScoped}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ReconcileResult{Outcome: NoCenters}
	}
	if c.current != nil && c.current.Slug == slug {
		c.mu.Unlock()
		return ReconcileResult{Outcome: Matched}
	}

	if i := indexBySlug(c.available, slug); i >= 0 {
		selected := c.available[i]
		c.current = &selected
		c.generation++
		gen := c.generation
		c.broadcast(c.snapshotLocked())
		c.mu.Unlock()

		c.persist(ctx, selected.ID, gen)
		return ReconcileResult{Outcome: Switched}
	}

	if len(c.available) == 0 {
		c.mu.Unlock()
		return ReconcileResult{Outcome: NoCenters}
	}
	target := ScopedDashboard(location, c.available[0].Slug)
	c.mu.Unlock()

	if c.nav != nil {
		c.nav.Replace(target)
	}
	return ReconcileResult{Outcome: Redirected, Location: target}
}

// Subscribe returns a channel that receives the newest state after every
// change. Slow readers only miss intermediate states.
func (c *Context) Subscribe() (<-chan State, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	ch := make(chan State, 1)
	if c.subs == nil {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// broadcast must be called with mu held so subscribers see states in the
// order they were written.
func (c *Context) broadcast(s State) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// Teardown ends the context: subscribers are closed, waiters released and
// every later mutation is refused.
func (c *Context) Teardown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.readyOnce.Do(func() { close(c.ready) })

	c.subMu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subs = nil
	c.subMu.Unlock()
}
