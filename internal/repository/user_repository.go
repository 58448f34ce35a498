package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/iliyamo/recipe-share/internal/model"
)

// UserRepo persists users.
type UserRepo struct{ DB *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lower-cases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts u and fills its ID. A taken email yields ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Status == "" {
		u.Status = model.UserStatusActive
	}
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := r.DB.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile changes name and email. Empty values leave the column as is.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, email string) error {
	fields := map[string]any{}
	if name = strings.TrimSpace(name); name != "" {
		fields["name"] = name
	}
	if email = NormalizeEmail(email); email != "" {
		fields["email"] = email
	}
	if len(fields) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	res := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return ErrEmailExists
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports 0 affected rows when values are unchanged
		_, err := r.GetByID(ctx, id)
		return err
	}
	return nil
}

// SetAdmin sets or clears the admin flag.
func (r *UserRepo) SetAdmin(ctx context.Context, id uint64, isAdmin bool) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("is_admin", isAdmin).Error
}

// SetStatus changes the account status.
func (r *UserRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("status", status).Error
}

// Delete removes a user together with the rows that reference them:
// sessions, reset tokens, favorites, uploaded image records, and their
// recipes with the recipes' children and favorites. The whole cascade runs
// in one transaction. It returns the storage keys of the removed images so
// the caller can drop the objects.
func (r *UserRepo) Delete(ctx context.Context, id uint64) ([]string, error) {
	var paths []string
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.Select("id").First(&u, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&model.Image{}).Where("owner_id = ?", id).Pluck("path", &paths).Error; err != nil {
			return err
		}
		recipeIDs := tx.Model(&model.Recipe{}).Select("id").Where("owner_id = ?", id)
		steps := []struct {
			model any
			query string
			args  []any
		}{
			{&model.RefreshToken{}, "user_id = ?", []any{id}},
			{&model.PasswordResetToken{}, "user_id = ?", []any{id}},
			{&model.Favorite{}, "user_id = ? OR recipe_id IN (?)", []any{id, recipeIDs}},
			{&model.Ingredient{}, "recipe_id IN (?)", []any{recipeIDs}},
			{&model.Step{}, "recipe_id IN (?)", []any{recipeIDs}},
			{&model.Tag{}, "recipe_id IN (?)", []any{recipeIDs}},
			{&model.Recipe{}, "owner_id = ?", []any{id}},
			{&model.Image{}, "owner_id = ?", []any{id}},
			{&model.User{}, "id = ?", []any{id}},
		}
		for _, s := range steps {
			if err := tx.Where(s.query, s.args...).Delete(s.model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
