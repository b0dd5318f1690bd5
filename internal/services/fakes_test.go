package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/imagetext/apiserver/internal/store"
	"github.com/imagetext/apiserver/types"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[int]types.User
	nextID  int
	failGet error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User), nextID: 1}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return types.User{}, r.failGet
	}
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return types.User{}, r.failGet
	}
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = r.nextID
	user.RegisteredAt = time.Now().UTC()
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, id int, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = hash
	r.users[id] = user
	return nil
}

type fakeImageRepo struct {
	images     []types.Image
	nextID     int
	clock      time.Time
	deleteMany int
	failCreate error
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{nextID: 1, clock: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (r *fakeImageRepo) Create(_ context.Context, image types.Image) (types.Image, error) {
	if r.failCreate != nil {
		return types.Image{}, r.failCreate
	}
	image.ID = r.nextID
	image.UploadedAt = r.clock
	r.nextID++
	r.clock = r.clock.Add(time.Minute)
	r.images = append(r.images, image)
	return image, nil
}

func (r *fakeImageRepo) ListByUser(_ context.Context, userID int) ([]types.Image, error) {
	out := make([]types.Image, 0)
	for _, image := range r.images {
		if image.UserID == userID {
			out = append(out, image)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeImageRepo) ListMetaByUser(ctx context.Context, userID int) ([]types.Image, error) {
	images, err := r.ListByUser(ctx, userID)
	for i := range images {
		images[i].Blob = nil
	}
	return images, err
}

func (r *fakeImageRepo) GetOwned(_ context.Context, id, userID int) (types.Image, error) {
	for _, image := range r.images {
		if image.ID == id && image.UserID == userID {
			return image, nil
		}
	}
	return types.Image{}, store.ErrNotFound
}

func (r *fakeImageRepo) DeleteOwned(_ context.Context, id, userID int) (bool, error) {
	for i, image := range r.images {
		if image.ID == id && image.UserID == userID {
			r.images = append(r.images[:i], r.images[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeImageRepo) DeleteManyOwned(_ context.Context, ids []int, userID int) (int, error) {
	r.deleteMany++
	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	kept := r.images[:0]
	removed := 0
	for _, image := range r.images {
		if wanted[image.ID] && image.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, image)
	}
	r.images = kept
	return removed, nil
}

type fakeStatsRepo struct {
	images *fakeImageRepo
	since  time.Time
}

func (r *fakeStatsRepo) CountByUser(ctx context.Context, userID int) (int, error) {
	images, _ := r.images.ListByUser(ctx, userID)
	return len(images), nil
}

func (r *fakeStatsRepo) LatestUpload(ctx context.Context, userID int) (*time.Time, error) {
	images, _ := r.images.ListByUser(ctx, userID)
	if len(images) == 0 {
		return nil, nil
	}
	latest := images[0].UploadedAt
	return &latest, nil
}

func (r *fakeStatsRepo) UploadsSince(ctx context.Context, userID int, since time.Time) ([]time.Time, error) {
	r.since = since
	images, _ := r.images.ListByUser(ctx, userID)
	out := make([]time.Time, 0)
	for i := len(images) - 1; i >= 0; i-- {
		if !images[i].UploadedAt.Before(since) {
			out = append(out, images[i].UploadedAt)
		}
	}
	return out, nil
}

type fakePublisher struct {
	events []types.ActivityEvent
	err    error
}

func (p *fakePublisher) PublishActivity(_ context.Context, event types.ActivityEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type fakeArchiver struct {
	keys   []string
	values []any
	err    error
}

func (a *fakeArchiver) PutJSON(_ context.Context, key string, value any) error {
	if a.err != nil {
		return a.err
	}
	a.keys = append(a.keys, key)
	a.values = append(a.values, value)
	return nil
}

var errBoom = errors.New("boom")
