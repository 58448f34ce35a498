package service

import (
	"context"
	"errors"

	"github.com/iliyamo/recipe-share/internal/model"
	"github.com/iliyamo/recipe-share/internal/repository"
)

// FavoriteService manages a user's favorite recipes.
type FavoriteService struct {
	favorites *repository.FavoriteRepo
	recipes   *repository.RecipeRepo
}

func NewFavoriteService(favorites *repository.FavoriteRepo, recipes *repository.RecipeRepo) *FavoriteService {
	return &FavoriteService{favorites: favorites, recipes: recipes}
}

// Add marks recipeID as a favorite of userID. The unique (user, recipe)
// index decides duplicates, so concurrent adds yield exactly one row.
func (s *FavoriteService) Add(ctx context.Context, userID, recipeID uint64) (*model.Favorite, error) {
	if recipeID == 0 {
		return nil, validation("recipeId is required")
	}
	ok, err := s.recipes.Exists(ctx, recipeID)
	if err != nil {
		return nil, internal("could not add favorite", err)
	}
	if !ok {
		return nil, notFound("recipe not found")
	}
	fav, err := s.favorites.Add(ctx, userID, recipeID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("recipe already in favorites")
		}
		return nil, internal("could not add favorite", err)
	}
	return fav, nil
}

// Remove unmarks a favorite.
func (s *FavoriteService) Remove(ctx context.Context, userID, recipeID uint64) error {
	if err := s.favorites.Remove(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("favorite not found")
		}
		return internal("could not remove favorite", err)
	}
	return nil
}

// List returns the user's favorites newest first with recipe details.
func (s *FavoriteService) List(ctx context.Context, userID uint64) ([]model.Favorite, error) {
	out, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal("could not list favorites", err)
	}
	return out, nil
}

// Check reports whether recipeID is a favorite of userID and its row id.
func (s *FavoriteService) Check(ctx context.Context, userID, recipeID uint64) (bool, uint64, error) {
	fav, err := s.favorites.Find(ctx, userID, recipeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, 0, nil
		}
		return false, 0, internal("could not check favorite", err)
	}
	return true, fav.ID, nil
}
