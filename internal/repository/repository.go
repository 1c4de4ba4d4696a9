package repository

import (
	"context"

	"user-management-app/internal/entity"
)

// UserRepository persists users. Missing ids are reported as
// apperror NotFound errors.
type UserRepository interface {
	List(ctx context.Context) ([]entity.User, error)
	GetByID(ctx context.Context, id int) (*entity.User, error)
	Create(ctx context.Context, input entity.UserInput) (*entity.User, error)
	Update(ctx context.Context, id int, input entity.UserInput) (*entity.User, error)
	// Delete removes the user and returns the removed record.
	Delete(ctx context.Context, id int) (*entity.User, error)
	Ping(ctx context.Context) error
	Close() error
}
