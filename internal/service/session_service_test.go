package service

import (
	"context"
	"testing"
	"time"

	"go-extension-dashboard/internal/center"
	"go-extension-dashboard/internal/metrics"
	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/pkg/kvstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCenterDirectory struct {
	mock.Mock
}

func (m *MockCenterDirectory) AvailableFor(ctx context.Context, userID uuid.UUID, role model.RoleCode) ([]model.Center, error) {
	args := m.Called(ctx, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Center), args.Error(1)
}

func newTestSessions(dir CenterDirectory, store center.Store, notifier Notifier) *sessionService {
	return NewSessionService(store, dir, notifier, metrics.New(), nil, time.Second).(*sessionService)
}

func TestSessionService_OpenLoadsCenters(t *testing.T) {
	user := newUser(t, "ana@uni.edu", model.RoleUsuario)
	dir := new(MockCenterDirectory)
	dir.On("AvailableFor", mock.Anything, user.ID, model.RoleUsuario).
		Return([]model.Center{sedeCentral, regionalNorte}, nil)
	store := kvstore.NewMemoryStore()
	notifier := &recordingNotifier{}

	sessions := newTestSessions(dir, store, notifier)
	active := sessions.Open(user)
	waitReady(t, active)

	st := active.Center.Snapshot()
	require.NotNil(t, st.CurrentCenter)
	assert.Equal(t, sedeCentral.ID, st.CurrentCenter.ID)
	assert.Len(t, st.AvailableCenters, 2)

	v, ok, err := store.Get(context.Background(), SelectedCenterKeyPrefix+user.ID.String())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	require.Eventually(t, func() bool { return notifier.count(EventCenterChanged) >= 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, sessions.Count())
	dir.AssertExpectations(t)
}

func TestSessionService_RestoresPersistedCenter(t *testing.T) {
	user := newUser(t, "ana@uni.edu", model.RoleUsuario)
	dir := new(MockCenterDirectory)
	dir.On("AvailableFor", mock.Anything, user.ID, model.RoleUsuario).
		Return([]model.Center{sedeCentral, regionalNorte}, nil)
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), SelectedCenterKeyPrefix+user.ID.String(), "2"))

	active := newTestSessions(dir, store, nil).Open(user)
	waitReady(t, active)

	assert.Equal(t, regionalNorte.ID, active.Center.Snapshot().CurrentCenter.ID)
}

func TestSessionService_OpenReplacesPrevious(t *testing.T) {
	user := newUser(t, "ana@uni.edu", model.RoleUsuario)
	dir := new(MockCenterDirectory)
	dir.On("AvailableFor", mock.Anything, user.ID, mock.Anything).
		Return([]model.Center{sedeCentral, regionalNorte}, nil)

	sessions := newTestSessions(dir, nil, nil)
	first := sessions.Open(user)
	waitReady(t, first)
	second := sessions.Open(user)
	waitReady(t, second)

	_, err := first.Center.SwitchCenter(context.Background(), regionalNorte)
	assert.ErrorIs(t, err, center.ErrClosed)

	got, ok := sessions.Get(user.ID)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, sessions.Count())
}

func TestSessionService_Ensure(t *testing.T) {
	user := newUser(t, "ana@uni.edu", model.RoleUsuario)
	dir := new(MockCenterDirectory)
	dir.On("AvailableFor", mock.Anything, user.ID, mock.Anything).Return([]model.Center{sedeCentral}, nil)

	sessions := newTestSessions(dir, nil, nil)
	first := sessions.Ensure(user)
	assert.Same(t, first, sessions.Ensure(user))

	user.Role = model.RoleOperacion
	reopened := sessions.Ensure(user)
	assert.NotSame(t, first, reopened)
	assert.Equal(t, model.RoleOperacion, reopened.Role)
}

func TestSessionService_Close(t *testing.T) {
	user := newUser(t, "ana@uni.edu", model.RoleUsuario)
	dir := new(MockCenterDirectory)
	dir.On("AvailableFor", mock.Anything, user.ID, mock.Anything).Return([]model.Center{sedeCentral}, nil)

	sessions := newTestSessions(dir, nil, nil)
	active := sessions.Open(user)
	waitReady(t, active)

	assert.True(t, sessions.Close(user.ID))
	assert.False(t, sessions.Close(user.ID))

	_, ok := sessions.Get(user.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, active.Center.AddCenter(regionalSur), center.ErrClosed)
}

func TestSessionService_SweepIdle(t *testing.T) {
	idleUser := newUser(t, "idle@uni.edu", model.RoleUsuario)
	busyUser := newUser(t, "busy@uni.edu", model.RoleUsuario)
	dir := new(MockCenterDirectory)
	dir.On("AvailableFor", mock.Anything, mock.Anything, mock.Anything).Return([]model.Center{sedeCentral}, nil)

	start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	clock := start
	sessions := newTestSessions(dir, nil, nil)
	sessions.now = func() time.Time { return clock }

	sessions.Open(idleUser)
	sessions.Open(busyUser)

	clock = start.Add(20 * time.Minute)
	sessions.Touch(busyUser.ID)

	clock = start.Add(31 * time.Minute)
	evicted := sessions.SweepIdle(30 * time.Minute)

	assert.Equal(t, []uuid.UUID{idleUser.ID}, evicted)
	_, ok := sessions.Get(busyUser.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, sessions.Count())
}

func TestSessionService_SyncAvailable(t *testing.T) {
	user := newUser(t, "ana@uni.edu", model.RoleAdmin)
	dir := new(MockCenterDirectory)
	dir.On("AvailableFor", mock.Anything, user.ID, model.RoleAdmin).
		Return([]model.Center{sedeCentral, regionalNorte}, nil).Once()
	dir.On("AvailableFor", mock.Anything, user.ID, model.RoleAdmin).
		Return([]model.Center{regionalNorte, regionalSur}, nil).Once()

	sessions := newTestSessions(dir, kvstore.NewMemoryStore(), nil)
	active := sessions.Open(user)
	waitReady(t, active)
	require.Equal(t, sedeCentral.ID, active.Center.Snapshot().CurrentCenter.ID)

	require.NoError(t, sessions.SyncAvailable(context.Background(), user.ID))

	st := active.Center.Snapshot()
	ids := make([]uint, 0, len(st.AvailableCenters))
	for _, c := range st.AvailableCenters {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []uint{2, 3}, ids)
	assert.Equal(t, regionalNorte.ID, st.CurrentCenter.ID)
	dir.AssertExpectations(t)
}

func TestSessionService_SyncAvailableRefreshesChangedCenters(t *testing.T) {
	user := newUser(t, "ana@uni.edu", model.RoleAdmin)
	dir := new(MockCenterDirectory)
	dir.On("AvailableFor", mock.Anything, user.ID, model.RoleAdmin).
		Return([]model.Center{sedeCentral, regionalNorte, regionalSur}, nil).Once()

	oldDefault := sedeCentral
	oldDefault.IsDefault = false
	newDefault := regionalSur
	newDefault.IsDefault = true
	newDefault.Name = "Centro Regional Sur (Sede)"
	dir.On("AvailableFor", mock.Anything, user.ID, model.RoleAdmin).
		Return([]model.Center{oldDefault, regionalNorte, newDefault}, nil).Once()

	sessions := newTestSessions(dir, kvstore.NewMemoryStore(), nil)
	active := sessions.Open(user)
	waitReady(t, active)
	require.Equal(t, sedeCentral.ID, active.Center.Snapshot().CurrentCenter.ID)

	require.NoError(t, sessions.SyncAvailable(context.Background(), user.ID))

	st := active.Center.Snapshot()
	require.Len(t, st.AvailableCenters, 3)
	assert.False(t, st.CurrentCenter.IsDefault)
	for _, c := range st.AvailableCenters {
		if c.ID == regionalSur.ID {
			assert.True(t, c.IsDefault)
			assert.Equal(t, "Centro Regional Sur (Sede)", c.Name)
		}
	}

	require.True(t, active.Center.RemoveCenter(context.Background(), sedeCentral.ID))
	assert.Equal(t, regionalSur.ID, active.Center.Snapshot().CurrentCenter.ID)
	dir.AssertExpectations(t)
}

func TestSessionService_SyncWithoutSessionIsNoop(t *testing.T) {
	dir := new(MockCenterDirectory)
	sessions := newTestSessions(dir, nil, nil)

	assert.NoError(t, sessions.SyncAvailable(context.Background(), uuid.New()))
	assert.NoError(t, sessions.SyncAll(context.Background()))
	dir.AssertNotCalled(t, "AvailableFor", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_NavigationReachesClient(t *testing.T) {
	user := newUser(t, "ana@uni.edu", model.RoleUsuario)
	dir := new(MockCenterDirectory)
	dir.On("AvailableFor", mock.Anything, user.ID, mock.Anything).
		Return([]model.Center{sedeCentral, regionalNorte}, nil)
	notifier := &recordingNotifier{}

	active := newTestSessions(dir, nil, notifier).Open(user)
	waitReady(t, active)
	active.Nav.SetLocation("/center/sede-central/forms")

	res, err := active.Center.SwitchCenter(context.Background(), regionalNorte)
	require.NoError(t, err)
	assert.Equal(t, "/center/regional-norte/forms", res.Location)
	assert.Equal(t, 1, notifier.count(EventNavigate))
}
