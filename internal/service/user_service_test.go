package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"user-management-app/internal/apperror"
	"user-management-app/internal/cache"
	"user-management-app/internal/entity"
	"user-management-app/internal/repository"
)

// Mock implementations

type mockCache struct {
	mu       sync.Mutex
	users    map[int]entity.User
	deleted  map[int]bool
	keys     map[string]bool
	getErr   error
	claimErr error
	released []string
}

func newMockCache() *mockCache {
	return &mockCache{users: map[int]entity.User{}, deleted: map[int]bool{}, keys: map[string]bool{}}
}

func (c *mockCache) Get(ctx context.Context, id int) (*entity.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	if c.deleted[id] {
		return nil, cache.ErrDeleted
	}
	u, ok := c.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (c *mockCache) Set(ctx context.Context, user *entity.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.deleted[user.ID] {
		c.users[user.ID] = *user
	}
	return nil
}

func (c *mockCache) Fill(ctx context.Context, user *entity.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[user.ID]; !ok && !c.deleted[user.ID] {
		c.users[user.ID] = *user
	}
	return nil
}

func (c *mockCache) MarkDeleted(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, id)
	c.deleted[id] = true
	return nil
}

func (c *mockCache) ClaimIdempotencyKey(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.claimErr != nil {
		return false, c.claimErr
	}
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

func (c *mockCache) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	c.released = append(c.released, key)
	return nil
}

type published struct {
	event string
	user  entity.User
}

type mockPublisher struct {
	events []published
	err    error
}

func (p *mockPublisher) Publish(ctx context.Context, event string, user *entity.User) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{event, *user})
	return nil
}

func (p *mockPublisher) Close() error { return nil }

type countingRepo struct {
	*repository.MemoryRepository
	gets int
}

func (r *countingRepo) GetByID(ctx context.Context, id int) (*entity.User, error) {
	r.gets++
	return r.MemoryRepository.GetByID(ctx, id)
}

// flakyRepo fails the first Create with a store error.
type flakyRepo struct {
	*repository.MemoryRepository
	failed bool
}

func (r *flakyRepo) Create(ctx context.Context, input entity.UserInput) (*entity.User, error) {
	if !r.failed {
		r.failed = true
		return nil, apperror.Internal(errors.New("connection reset"))
	}
	return r.MemoryRepository.Create(ctx, input)
}

// slowReadRepo parks the first GetByID after it has read the row, until
// release is closed.
type slowReadRepo struct {
	*repository.MemoryRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newSlowReadRepo() *slowReadRepo {
	return &slowReadRepo{
		MemoryRepository: repository.NewMemoryRepository(),
		read:             make(chan struct{}),
		release:          make(chan struct{}),
	}
}

func (r *slowReadRepo) GetByID(ctx context.Context, id int) (*entity.User, error) {
	user, err := r.MemoryRepository.GetByID(ctx, id)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return user, err
}

// Tests

func TestCreateUser(t *testing.T) {
	pub := &mockPublisher{}
	c := newMockCache()
	svc := NewUserService(repository.NewMemoryRepository(), c, pub)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, entity.UserInput{Name: "Jane Doe", Email: "jane@example.com"}, "")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == 0 || user.Name != "Jane Doe" || user.Email != "jane@example.com" {
		t.Errorf("CreateUser() = %+v", user)
	}

	if len(pub.events) != 1 || pub.events[0].event != "created" || pub.events[0].user.ID != user.ID {
		t.Errorf("events = %+v", pub.events)
	}
	if _, ok := c.users[user.ID]; !ok {
		t.Error("created user not cached")
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 1 || users[0] != *user {
		t.Errorf("ListUsers() = %+v, want created user", users)
	}
}

func TestCreateUser_IdempotencyKey(t *testing.T) {
	svc := NewUserService(repository.NewMemoryRepository(), newMockCache(), nil)
	ctx := context.Background()
	input := entity.UserInput{Name: "Jane Doe", Email: "jane@example.com"}

	if _, err := svc.CreateUser(ctx, input, "key-1"); err != nil {
		t.Fatalf("first CreateUser() error = %v", err)
	}
	_, err := svc.CreateUser(ctx, input, "key-1")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("replayed CreateUser() error = %v, want conflict", err)
	}

	users, _ := svc.ListUsers(ctx)
	if len(users) != 1 {
		t.Errorf("got %d users, want 1", len(users))
	}
}

func TestCreateUser_IdempotencyStoreDownStillCreates(t *testing.T) {
	c := newMockCache()
	c.claimErr = errors.New("redis down")
	svc := NewUserService(repository.NewMemoryRepository(), c, nil)

	if _, err := svc.CreateUser(context.Background(), entity.UserInput{Name: "Jane", Email: "j@example.com"}, "k"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
}

func TestCreateUser_PublishFailureDoesNotFail(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	svc := NewUserService(repository.NewMemoryRepository(), nil, pub)

	if _, err := svc.CreateUser(context.Background(), entity.UserInput{Name: "Jane", Email: "j@example.com"}, ""); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
}

func TestGetUser_ReadsThroughCache(t *testing.T) {
	repo := &countingRepo{MemoryRepository: repository.NewMemoryRepository()}
	c := newMockCache()
	svc := NewUserService(repo, c, nil)
	ctx := context.Background()

	created, _ := repo.Create(ctx, entity.UserInput{Name: "Jane", Email: "j@example.com"})

	for i := 0; i < 3; i++ {
		got, err := svc.GetUser(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetUser() error = %v", err)
		}
		if *got != *created {
			t.Errorf("GetUser() = %+v, want %+v", got, created)
		}
	}
	if repo.gets != 1 {
		t.Errorf("repository hit %d times, want 1", repo.gets)
	}
}

func TestGetUser_CacheErrorFallsBackToStore(t *testing.T) {
	repo := repository.NewMemoryRepository()
	c := newMockCache()
	c.getErr = errors.New("redis down")
	svc := NewUserService(repo, c, nil)
	ctx := context.Background()

	created, _ := repo.Create(ctx, entity.UserInput{Name: "Jane", Email: "j@example.com"})
	if _, err := svc.GetUser(ctx, created.ID); err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	svc := NewUserService(repository.NewMemoryRepository(), nil, nil)

	_, err := svc.GetUser(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUser() error = %v, want not found", err)
	}
}

func TestUpdateUser(t *testing.T) {
	pub := &mockPublisher{}
	c := newMockCache()
	svc := NewUserService(repository.NewMemoryRepository(), c, pub)
	ctx := context.Background()

	created, _ := svc.CreateUser(ctx, entity.UserInput{Name: "Jane", Email: "j@example.com"}, "")
	if _, err := svc.GetUser(ctx, created.ID); err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}

	updated, err := svc.UpdateUser(ctx, created.ID, entity.UserInput{Name: "Janet", Email: "janet@example.com"})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if updated.ID != created.ID || updated.Name != "Janet" {
		t.Errorf("UpdateUser() = %+v", updated)
	}

	got, _ := svc.GetUser(ctx, created.ID)
	if got.Name != "Janet" || got.Email != "janet@example.com" {
		t.Errorf("GetUser() after update = %+v, stale cache?", got)
	}
	if cached := c.users[created.ID]; cached != *updated {
		t.Errorf("cached user = %+v, want %+v", cached, *updated)
	}
	if last := pub.events[len(pub.events)-1]; last.event != "updated" {
		t.Errorf("last event = %q, want updated", last.event)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewUserService(repository.NewMemoryRepository(), nil, pub)

	_, err := svc.UpdateUser(context.Background(), 3, entity.UserInput{Name: "Jane", Email: "j@example.com"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateUser() error = %v, want not found", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("published %d events for a failed update", len(pub.events))
	}
}

func TestDeleteUser(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewUserService(repository.NewMemoryRepository(), newMockCache(), pub)
	ctx := context.Background()

	created, _ := svc.CreateUser(ctx, entity.UserInput{Name: "Jane", Email: "j@example.com"}, "")

	deleted, err := svc.DeleteUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if *deleted != *created {
		t.Errorf("DeleteUser() = %+v, want %+v", deleted, created)
	}

	if _, err := svc.GetUser(ctx, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUser() after delete error = %v, want not found", err)
	}
	if _, err := svc.DeleteUser(ctx, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteUser() error = %v, want not found", err)
	}
	if last := pub.events[len(pub.events)-1]; last.event != "deleted" {
		t.Errorf("last event = %q, want deleted", last.event)
	}
}

func TestCreateUser_FailedCreateReleasesIdempotencyKey(t *testing.T) {
	repo := &flakyRepo{MemoryRepository: repository.NewMemoryRepository()}
	c := newMockCache()
	svc := NewUserService(repo, c, nil)
	ctx := context.Background()
	input := entity.UserInput{Name: "Jane Doe", Email: "jane@example.com"}

	if _, err := svc.CreateUser(ctx, input, "k1"); !errors.Is(err, apperror.ErrInternal) {
		t.Fatalf("first CreateUser() error = %v, want internal", err)
	}
	if len(c.released) != 1 || c.released[0] != "k1" {
		t.Errorf("released keys = %v, want [k1]", c.released)
	}

	user, err := svc.CreateUser(ctx, input, "k1")
	if err != nil {
		t.Fatalf("retried CreateUser() error = %v", err)
	}
	if user.Name != "Jane Doe" {
		t.Errorf("retried CreateUser() = %+v", user)
	}

	if _, err := svc.CreateUser(ctx, input, "k1"); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("replay after success error = %v, want conflict", err)
	}
	users, _ := svc.ListUsers(ctx)
	if len(users) != 1 {
		t.Errorf("got %d users, want 1", len(users))
	}
}

func TestCreateUser_UnclaimedKeyIsNotReleased(t *testing.T) {
	repo := &flakyRepo{MemoryRepository: repository.NewMemoryRepository()}
	c := newMockCache()
	c.claimErr = errors.New("redis down")
	svc := NewUserService(repo, c, nil)

	svc.CreateUser(context.Background(), entity.UserInput{Name: "Jane", Email: "j@example.com"}, "k1")
	if len(c.released) != 0 {
		t.Errorf("released keys = %v, want none", c.released)
	}
}

func TestGetUser_SlowReadDoesNotOverwriteUpdate(t *testing.T) {
	repo := newSlowReadRepo()
	svc := NewUserService(repo, newMockCache(), nil)
	ctx := context.Background()

	created, _ := repo.Create(ctx, entity.UserInput{Name: "Old Name", Email: "old@example.com"})

	done := make(chan *entity.User)
	go func() {
		user, _ := svc.GetUser(ctx, created.ID)
		done <- user
	}()

	<-repo.read
	if _, err := svc.UpdateUser(ctx, created.ID, entity.UserInput{Name: "New Name", Email: "new@example.com"}); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	close(repo.release)
	if stale := <-done; stale.Name != "Old Name" {
		t.Fatalf("in-flight GetUser() = %+v, want the row it read", stale)
	}

	got, err := svc.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.Name != "New Name" || got.Email != "new@example.com" {
		t.Errorf("GetUser() after update = %+v, want updated fields", got)
	}
}

func TestGetUser_SlowReadDoesNotResurrectDeletedUser(t *testing.T) {
	repo := newSlowReadRepo()
	svc := NewUserService(repo, newMockCache(), nil)
	ctx := context.Background()

	created, _ := repo.Create(ctx, entity.UserInput{Name: "Jane", Email: "j@example.com"})

	done := make(chan struct{})
	go func() {
		svc.GetUser(ctx, created.ID)
		close(done)
	}()

	<-repo.read
	if _, err := svc.DeleteUser(ctx, created.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	close(repo.release)
	<-done

	if _, err := svc.GetUser(ctx, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUser() after delete error = %v, want not found", err)
	}
}
