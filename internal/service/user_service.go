package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"user-management-app/internal/apperror"
	"user-management-app/internal/cache"
	"user-management-app/internal/entity"
	"user-management-app/internal/events"
	"user-management-app/internal/repository"
)

type UserService struct {
	repo      repository.UserRepository
	cache     cache.UserCache
	publisher events.Publisher
}

// NewUserService creates a new instance of UserService. A nil cache or
// publisher disables that side effect.
func NewUserService(repo repository.UserRepository, userCache cache.UserCache, publisher events.Publisher) *UserService {
	if userCache == nil {
		userCache = cache.Noop{}
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &UserService{
		repo:      repo,
		cache:     userCache,
		publisher: publisher,
	}
}

// ListUsers returns every user in store order.
func (s *UserService) ListUsers(ctx context.Context) ([]entity.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error listing users")
		return nil, err
	}
	return users, nil
}

// GetUser reads through the cache.
func (s *UserService) GetUser(ctx context.Context, id int) (*entity.User, error) {
	cached, err := s.cache.Get(ctx, id)
	switch {
	case errors.Is(err, cache.ErrDeleted):
		return nil, apperror.NotFound("user", id)
	case err != nil:
		log.Warn().Err(err).Msgf("Error getting user %d from cache", id)
	case cached != nil:
		return cached, nil
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Msgf("Error getting user by ID %d", id)
		return nil, err
	}

	if err := s.cache.Fill(ctx, user); err != nil {
		log.Warn().Err(err).Msgf("Error filling user %d in cache", id)
	}
	return user, nil
}

// CreateUser stores a new user. A non-empty idempotencyKey that was already
// used by a successful create yields a Conflict error.
func (s *UserService) CreateUser(ctx context.Context, input entity.UserInput, idempotencyKey string) (*entity.User, error) {
	claimed := false
	if idempotencyKey != "" {
		fresh, err := s.cache.ClaimIdempotencyKey(ctx, idempotencyKey)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Error checking idempotency key, continuing without it")
		case !fresh:
			return nil, apperror.Conflict("duplicate request", fmt.Errorf("idempotency key %q already used", idempotencyKey))
		default:
			claimed = true
		}
	}

	user, err := s.repo.Create(ctx, input)
	if err != nil {
		log.Error().Err(err).Msg("Error creating user")
		if claimed {
			if err := s.cache.ReleaseIdempotencyKey(ctx, idempotencyKey); err != nil {
				log.Warn().Err(err).Msg("Error releasing idempotency key")
			}
		}
		return nil, err
	}

	s.cacheUser(ctx, user)
	s.publish(ctx, events.UserCreated, user)
	return user, nil
}

// UpdateUser overwrites name and email of user id.
func (s *UserService) UpdateUser(ctx context.Context, id int, input entity.UserInput) (*entity.User, error) {
	user, err := s.repo.Update(ctx, id, input)
	if err != nil {
		log.Error().Err(err).Msgf("Error updating user %d", id)
		return nil, err
	}

	s.cacheUser(ctx, user)
	s.publish(ctx, events.UserUpdated, user)
	return user, nil
}

// DeleteUser removes user id and returns the removed record.
func (s *UserService) DeleteUser(ctx context.Context, id int) (*entity.User, error) {
	user, err := s.repo.Delete(ctx, id)
	if err != nil {
		log.Error().Err(err).Msgf("Error deleting user %d", id)
		return nil, err
	}

	if err := s.cache.MarkDeleted(ctx, id); err != nil {
		log.Warn().Err(err).Msgf("Error marking user %d deleted in cache", id)
	}
	s.publish(ctx, events.UserDeleted, user)
	return user, nil
}

// Ping checks the store.
func (s *UserService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *UserService) cacheUser(ctx context.Context, user *entity.User) {
	if err := s.cache.Set(ctx, user); err != nil {
		log.Warn().Err(err).Msgf("Error setting user %d in cache", user.ID)
	}
}

// publish failures are logged only; the store write already happened.
func (s *UserService) publish(ctx context.Context, event string, user *entity.User) {
	if err := s.publisher.Publish(ctx, event, user); err != nil {
		log.Error().Err(err).Msgf("Error publishing %s event for user %d", event, user.ID)
	}
}
