package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/iliyamo/recipe-share/internal/model"
	"github.com/iliyamo/recipe-share/internal/reconcile"
)

// RecipeRepo persists recipes and their owned children.
type RecipeRepo struct{ DB *gorm.DB }

func NewRecipeRepo(db *gorm.DB) *RecipeRepo { return &RecipeRepo{DB: db} }

// RecipeQuery filters List. Zero values disable a filter; PageSize 0 returns
// every match.
type RecipeQuery struct {
	Name     string
	Tag      string
	OwnerID  uint64
	Page     int
	PageSize int
}

// RecipeChanges is a validated update: the scalar columns of Recipe plus one
// reconcile plan per child collection.
type RecipeChanges struct {
	Recipe      model.Recipe
	Ingredients reconcile.Plan[model.Ingredient]
	Steps       reconcile.Plan[model.Step]
	Tags        reconcile.Plan[model.Tag]
}

// withChildren preloads the owned collections and the owner.
func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Owner").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

// Create inserts r with its children. The owner row is never written.
func (r *RecipeRepo) Create(ctx context.Context, rec *model.Recipe) error {
	if err := r.DB.WithContext(ctx).Omit("Owner").Create(rec).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID returns a recipe with children and owner.
func (r *RecipeRepo) GetByID(ctx context.Context, id uint64) (*model.Recipe, error) {
	var rec model.Recipe
	if err := withChildren(r.DB.WithContext(ctx)).First(&rec, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// GetByName returns a recipe by its exact name.
func (r *RecipeRepo) GetByName(ctx context.Context, name string) (*model.Recipe, error) {
	var rec model.Recipe
	if err := withChildren(r.DB.WithContext(ctx)).Where("name = ?", name).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// OwnerOf returns the owner id of a recipe without loading it.
func (r *RecipeRepo) OwnerOf(ctx context.Context, id uint64) (uint64, error) {
	var rec model.Recipe
	if err := r.DB.WithContext(ctx).Select("id", "owner_id").First(&rec, id).Error; err != nil {
		return 0, notFound(err)
	}
	return rec.OwnerID, nil
}

// Exists reports whether a recipe row exists.
func (r *RecipeRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// NameTaken reports whether another recipe than excludeID already uses name.
func (r *RecipeRepo) NameTaken(ctx context.Context, name string, excludeID uint64) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&model.Recipe{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns recipes matching q ordered by id, and the total number of
// matches before pagination.
func (r *RecipeRepo) List(ctx context.Context, q RecipeQuery) ([]model.Recipe, int64, error) {
	base := r.DB.WithContext(ctx).Model(&model.Recipe{})
	if q.Name != "" {
		base = base.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q.Name)+"%")
	}
	if q.OwnerID != 0 {
		base = base.Where("owner_id = ?", q.OwnerID)
	}
	if q.Tag != "" {
		base = base.Where("id IN (?)", r.DB.Model(&model.Tag{}).Select("recipe_id").Where("value = ?", q.Tag))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	data := withChildren(base.Session(&gorm.Session{})).Order("id")
	if q.PageSize > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		data = data.Limit(q.PageSize).Offset((page - 1) * q.PageSize)
	}
	var out []model.Recipe
	if err := data.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// IngredientNames returns the distinct ingredient names in alphabetical order.
func (r *RecipeRepo) IngredientNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.DB.WithContext(ctx).Model(&model.Ingredient{}).
		Distinct("name").Order("name").Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Children returns the stored child collections of a recipe.
func (r *RecipeRepo) Children(ctx context.Context, id uint64) ([]model.Ingredient, []model.Step, []model.Tag, error) {
	db := r.DB.WithContext(ctx)
	var (
		ings  []model.Ingredient
		steps []model.Step
		tags  []model.Tag
	)
	if err := db.Where("recipe_id = ?", id).Order("id").Find(&ings).Error; err != nil {
		return nil, nil, nil, err
	}
	if err := db.Where("recipe_id = ?", id).Order("id").Find(&steps).Error; err != nil {
		return nil, nil, nil, err
	}
	if err := db.Where("recipe_id = ?", id).Order("id").Find(&tags).Error; err != nil {
		return nil, nil, nil, err
	}
	return ings, steps, tags, nil
}

// ApplyUpdate writes the scalar columns and the three child plans in one
// transaction. A name collision rolls everything back with ErrDuplicate.
func (r *RecipeRepo) ApplyUpdate(ctx context.Context, ch RecipeChanges) error {
	id := ch.Recipe.ID
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Recipe{}).Where("id = ?", id).Updates(recipeColumns(ch.Recipe))
		if res.Error != nil {
			if isDuplicate(res.Error) {
				return ErrDuplicate
			}
			return res.Error
		}
		var n int64
		if err := tx.Model(&model.Recipe{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}

		err := applyPlan(tx, id, ch.Ingredients,
			func(i model.Ingredient) uint64 { return i.ID },
			func(i model.Ingredient) map[string]any {
				return map[string]any{"name": i.Name, "unit": i.Unit, "value": i.Value}
			},
			func(i model.Ingredient, rid uint64) model.Ingredient { i.ID, i.RecipeID = 0, rid; return i })
		if err != nil {
			return err
		}
		err = applyPlan(tx, id, ch.Steps,
			func(s model.Step) uint64 { return s.ID },
			func(s model.Step) map[string]any {
				return map[string]any{"description": s.Description, "image": s.Image}
			},
			func(s model.Step, rid uint64) model.Step { s.ID, s.RecipeID = 0, rid; return s })
		if err != nil {
			return err
		}
		return applyPlan(tx, id, ch.Tags,
			func(t model.Tag) uint64 { return t.ID },
			func(t model.Tag) map[string]any { return map[string]any{"value": t.Value} },
			func(t model.Tag, rid uint64) model.Tag { t.ID, t.RecipeID = 0, rid; return t })
	})
}

func recipeColumns(rec model.Recipe) map[string]any {
	return map[string]any{
		"name":                   rec.Name,
		"date":                   rec.Date,
		"image":                  rec.Image,
		"preparation_time_value": rec.PreparationTimeValue,
		"preparation_time_unit":  rec.PreparationTimeUnit,
		"baking_time_value":      rec.BakingTimeValue,
		"baking_time_unit":       rec.BakingTimeUnit,
		"thermostat":             rec.Thermostat,
		"resting_time_value":     rec.RestingTimeValue,
		"resting_time_unit":      rec.RestingTimeUnit,
		"number_of_persons":      rec.NumberOfPersons,
		"link":                   rec.Link,
	}
}

// applyPlan deletes, updates and creates rows of one child table. Every
// statement is scoped by recipe_id so ids of other recipes are never touched.
func applyPlan[T any](
	tx *gorm.DB,
	recipeID uint64,
	plan reconcile.Plan[T],
	idOf func(T) uint64,
	columns func(T) map[string]any,
	attach func(T, uint64) T,
) error {
	if len(plan.Delete) > 0 {
		var row T
		if err := tx.Where("recipe_id = ? AND id IN ?", recipeID, plan.Delete).Delete(&row).Error; err != nil {
			return err
		}
	}
	for _, it := range plan.Update {
		var row T
		err := tx.Model(&row).Where("id = ? AND recipe_id = ?", idOf(it), recipeID).Updates(columns(it)).Error
		if err != nil {
			return err
		}
	}
	if len(plan.Create) > 0 {
		rows := make([]T, 0, len(plan.Create))
		for _, it := range plan.Create {
			rows = append(rows, attach(it, recipeID))
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a recipe with its children and the favorites pointing at it.
func (r *RecipeRepo) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&model.Favorite{}, &model.Ingredient{}, &model.Step{}, &model.Tag{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&model.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddTag attaches value to a recipe unless it already carries it.
func (r *RecipeRepo) AddTag(ctx context.Context, recipeID uint64, value string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Recipe{}).Where("id = ?", recipeID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		if err := tx.Model(&model.Tag{}).Where("recipe_id = ? AND value = ?", recipeID, value).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		return tx.Create(&model.Tag{RecipeID: recipeID, Value: value}).Error
	})
}

// RemoveTag detaches every tag equal to value from a recipe.
func (r *RecipeRepo) RemoveTag(ctx context.Context, recipeID uint64, value string) error {
	ok, err := r.Exists(ctx, recipeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return r.DB.WithContext(ctx).Where("recipe_id = ? AND value = ?", recipeID, value).Delete(&model.Tag{}).Error
}
