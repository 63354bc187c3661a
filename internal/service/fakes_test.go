package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"go-extension-dashboard/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) copyOf(u *model.User) *model.User {
	c := *u
	return &c
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return r.copyOf(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return r.copyOf(u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = r.copyOf(user)
	return nil
}

func (r *fakeUserRepo) Update(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = r.copyOf(user)
	return nil
}

func (r *fakeUserRepo) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID].Password = hashedPassword
	return nil
}

func (r *fakeUserRepo) UpdateRole(userID uuid.UUID, role model.RoleCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID].Role = role
	return nil
}

func (r *fakeUserRepo) FindAll() ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) CountByRole(role model.RoleCode) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) UpdateTokenVersion(userID uuid.UUID, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.TokenVersion = version
	}
	return nil
}

func (r *fakeUserRepo) UpdateLastSeen(userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		now := time.Now()
		u.LastSeenAt = &now
	}
	return nil
}

type fakeCenterRepo struct {
	mu      sync.Mutex
	centers []model.Center
	nextID  uint
}

func newFakeCenterRepo(centers ...model.Center) *fakeCenterRepo {
	r := &fakeCenterRepo{centers: centers}
	for _, c := range centers {
		if c.ID >= r.nextID {
			r.nextID = c.ID
		}
	}
	return r
}

func (r *fakeCenterRepo) FindAll(context.Context) ([]model.Center, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Center(nil), r.centers...), nil
}

func (r *fakeCenterRepo) FindActive(context.Context) ([]model.Center, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Center
	for _, c := range r.centers {
		if c.IsActive() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCenterRepo) FindByID(_ context.Context, id uint) (*model.Center, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.centers {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCenterRepo) FindBySlug(_ context.Context, slug string) (*model.Center, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.centers {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCenterRepo) FindByIDs(_ context.Context, ids []uint) ([]model.Center, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Center
	for _, c := range r.centers {
		for _, id := range ids {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (r *fakeCenterRepo) Create(_ context.Context, center *model.Center) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.centers {
		if c.Slug == center.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	if center.IsDefault {
		for i := range r.centers {
			r.centers[i].IsDefault = false
		}
	}
	r.nextID++
	center.ID = r.nextID
	r.centers = append(r.centers, *center)
	return nil
}

func (r *fakeCenterRepo) Deactivate(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.centers {
		if r.centers[i].ID == id {
			inactive := false
			r.centers[i].Active = &inactive
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeCenterRepo) SeedDefaults(context.Context) error { return nil }

type fakeAssignmentRepo struct {
	mu       sync.Mutex
	assigned map[uuid.UUID][]uint
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assigned: make(map[uuid.UUID][]uint)}
}

func (r *fakeAssignmentRepo) GetAssignedCenters(_ context.Context, userID uuid.UUID) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := append([]uint(nil), r.assigned[userID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeAssignmentRepo) SetAssignedCenters(_ context.Context, userID uuid.UUID, centerIDs []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assigned[userID] = append([]uint(nil), centerIDs...)
	return nil
}

func (r *fakeAssignmentRepo) FindUsersByCenter(_ context.Context, centerID uint) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for u, ids := range r.assigned {
		for _, id := range ids {
			if id == centerID {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) CountUsersByCenter(ctx context.Context, centerID uint) (int64, error) {
	users, _ := r.FindUsersByCenter(ctx, centerID)
	return int64(len(users)), nil
}

type sentEvent struct {
	UserID string
	Type   string
	Data   interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) SendToUser(userID, eventType string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{UserID: userID, Type: eventType, Data: data})
}

func (n *recordingNotifier) BroadcastEvent(eventType string, data interface{}) {
	n.SendToUser("", eventType, data)
}

func (n *recordingNotifier) count(eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, ev := range n.events {
		if ev.Type == eventType {
			c++
		}
	}
	return c
}

var (
	sedeCentral   = model.Center{ID: 1, Name: "Sede Central", Slug: "sede-central", IsDefault: true}
	regionalNorte = model.Center{ID: 2, Name: "Centro Regional Norte", Slug: "regional-norte"}
	regionalSur   = model.Center{ID: 3, Name: "Centro Regional Sur", Slug: "regional-sur"}
)

func newUser(t *testing.T, email string, role model.RoleCode) *model.User {
	t.Helper()
	u := &model.User{Email: email, FullName: email, Role: role, IsActive: true}
	u.ID = uuid.New()
	require.NoError(t, u.SetPassword("secret123"))
	return u
}

// waitReady blocks until the session's center context finished loading.
func waitReady(t *testing.T, active *ActiveSession) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, active.Center.WaitReady(ctx))
}
