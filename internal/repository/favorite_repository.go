package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/iliyamo/recipe-share/internal/model"
)

// FavoriteRepo persists (user, recipe) favorite pairs.
type FavoriteRepo struct{ DB *gorm.DB }

func NewFavoriteRepo(db *gorm.DB) *FavoriteRepo { return &FavoriteRepo{DB: db} }

// Add inserts the pair. The unique index turns a repeat into ErrDuplicate.
func (r *FavoriteRepo) Add(ctx context.Context, userID, recipeID uint64) (*model.Favorite, error) {
	fav := model.Favorite{UserID: userID, RecipeID: recipeID}
	if err := r.DB.WithContext(ctx).Omit("Recipe").Create(&fav).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &fav, nil
}

// Find returns the favorite row of the pair.
func (r *FavoriteRepo) Find(ctx context.Context, userID, recipeID uint64) (*model.Favorite, error) {
	var fav model.Favorite
	err := r.DB.WithContext(ctx).Where("user_id = ? AND recipe_id = ?", userID, recipeID).First(&fav).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &fav, nil
}

// Remove deletes the pair; ErrNotFound when it was not a favorite.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, recipeID uint64) error {
	res := r.DB.WithContext(ctx).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(&model.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns the user's favorites newest first with the recipe,
// its children and its owner loaded.
func (r *FavoriteRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Favorite, error) {
	var out []model.Favorite
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id") }
	err := r.DB.WithContext(ctx).
		Preload("Recipe").
		Preload("Recipe.Owner").
		Preload("Recipe.Ingredients", byID).
		Preload("Recipe.Steps", byID).
		Preload("Recipe.Tags", byID).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
