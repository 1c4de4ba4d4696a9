package repository

import (
	"context"
	"sort"
	"sync"

	"user-management-app/internal/apperror"
	"user-management-app/internal/entity"
)

// MemoryRepository is an in-memory UserRepository for development and
// tests. Ids start at 1 and are never reused.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[int]entity.User
	nextID int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:  make(map[int]entity.User),
		nextID: 1,
	}
}

func (r *MemoryRepository) List(ctx context.Context) ([]entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]entity.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (r *MemoryRepository) Create(ctx context.Context, input entity.UserInput) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := entity.User{ID: r.nextID, Name: input.Name, Email: input.Email}
	r.users[u.ID] = u
	r.nextID++
	return &u, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id int, input entity.UserInput) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	u.Name = input.Name
	u.Email = input.Email
	r.users[id] = u
	return &u, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id int) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	delete(r.users, id)
	return &u, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
