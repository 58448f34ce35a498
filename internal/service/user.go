package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/recipe-share/internal/model"
	"github.com/iliyamo/recipe-share/internal/repository"
	"github.com/iliyamo/recipe-share/internal/storage"
)

// UserService covers account administration.
type UserService struct {
	users *repository.UserRepo
	// store holds uploaded images; nil skips object cleanup on delete.
	store storage.Store
	// OnChange runs after an account delete removed recipes. It may be nil.
	OnChange func(ctx context.Context)
}

func NewUserService(users *repository.UserRepo, store storage.Store) *UserService {
	return &UserService{users: users, store: store}
}

// List returns every user. Admins only.
func (s *UserService) List(ctx context.Context, actor Actor) ([]model.User, error) {
	if !actor.IsAdmin {
		return nil, forbidden("admin only")
	}
	out, err := s.users.List(ctx)
	if err != nil {
		return nil, internal("could not list users", err)
	}
	return out, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userLookupErr(err)
	}
	return u, nil
}

// UpdateProfile changes name and/or email of the actor's own account, or of
// any account for an admin.
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, id uint64, name, email string) (*model.User, error) {
	if !actor.CanManage(id) {
		return nil, forbidden("you can only update your own account")
	}
	if email != "" && !strings.Contains(email, "@") {
		return nil, validation("invalid email")
	}
	if err := s.users.UpdateProfile(ctx, id, name, email); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, conflict("email already in use")
		}
		return nil, userLookupErr(err)
	}
	return s.Get(ctx, id)
}

// Delete removes an account and everything it owns.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uint64) error {
	if !actor.CanManage(id) {
		return forbidden("you can only delete your own account")
	}
	paths, err := s.users.Delete(ctx, id)
	if err != nil {
		return userLookupErr(err)
	}
	if s.store != nil {
		for _, p := range paths {
			if err := s.store.Delete(ctx, p); err != nil && !errors.Is(err, storage.ErrNotExist) {
				log.Warn().Err(err).Str("file", p).Uint64("user_id", id).Msg("delete image object")
			}
		}
	}
	if s.OnChange != nil {
		s.OnChange(ctx)
	}
	return nil
}

// SetAdmin grants or revokes admin rights. Admins only; the operator CLI
// calls it as SystemActor.
func (s *UserService) SetAdmin(ctx context.Context, actor Actor, id uint64, isAdmin bool) (*model.User, error) {
	if !actor.IsAdmin {
		return nil, forbidden("admin only")
	}
	if err := s.users.SetAdmin(ctx, id, isAdmin); err != nil {
		return nil, userLookupErr(err)
	}
	return s.Get(ctx, id)
}

// SetDisabled disables or re-enables an account. Disabled users can neither
// log in nor refresh; access tokens already issued run until they expire.
// Admins only.
func (s *UserService) SetDisabled(ctx context.Context, actor Actor, id uint64, disabled bool) (*model.User, error) {
	if !actor.IsAdmin {
		return nil, forbidden("admin only")
	}
	status := model.UserStatusActive
	if disabled {
		status = model.UserStatusDisabled
	}
	if err := s.users.SetStatus(ctx, id, status); err != nil {
		return nil, userLookupErr(err)
	}
	return s.Get(ctx, id)
}

// SystemActor is the identity used by operator commands.
var SystemActor = Actor{IsAdmin: true}

func userLookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("user not found")
	}
	return internal("user operation failed", err)
}
