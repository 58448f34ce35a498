package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/recipe-share/internal/model"
	"github.com/iliyamo/recipe-share/internal/reconcile"
	"github.com/iliyamo/recipe-share/internal/repository"
)

// RecipeService implements recipe reads and owner-gated writes.
type RecipeService struct {
	recipes *repository.RecipeRepo
	// OnChange runs after every successful write, e.g. to purge cached
	// recipe responses. It may be nil.
	OnChange func(ctx context.Context)
}

func NewRecipeService(recipes *repository.RecipeRepo) *RecipeService {
	return &RecipeService{recipes: recipes}
}

func (s *RecipeService) changed(ctx context.Context) {
	if s.OnChange != nil {
		s.OnChange(ctx)
	}
}

func ingredientID(i model.Ingredient) uint64 { return i.ID }
func stepID(st model.Step) uint64          { return st.ID }
func tagID(t model.Tag) uint64             { return t.ID }

// List returns recipes matching q and the total match count.
func (s *RecipeService) List(ctx context.Context, q repository.RecipeQuery) ([]model.Recipe, int64, error) {
	out, total, err := s.recipes.List(ctx, q)
	if err != nil {
		return nil, 0, internal("could not list recipes", err)
	}
	return out, total, nil
}

// Get returns one recipe with children and owner.
func (s *RecipeService) Get(ctx context.Context, id uint64) (*model.Recipe, error) {
	rec, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, recipeLookupErr(err)
	}
	return rec, nil
}

// GetByName returns the recipe with exactly this name.
func (s *RecipeService) GetByName(ctx context.Context, name string) (*model.Recipe, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validation("name is required")
	}
	rec, err := s.recipes.GetByName(ctx, name)
	if err != nil {
		return nil, recipeLookupErr(err)
	}
	return rec, nil
}

// IngredientNames lists every distinct ingredient name.
func (s *RecipeService) IngredientNames(ctx context.Context) ([]string, error) {
	names, err := s.recipes.IngredientNames(ctx)
	if err != nil {
		return nil, internal("could not list ingredients", err)
	}
	return names, nil
}

// Create stores rec owned by the actor. Child ids in the payload are ignored.
func (s *RecipeService) Create(ctx context.Context, actor Actor, rec model.Recipe) (*model.Recipe, error) {
	if actor.UserID == 0 {
		return nil, unauthorized("authentication required")
	}
	if err := normalizeRecipe(&rec); err != nil {
		return nil, err
	}
	taken, err := s.recipes.NameTaken(ctx, rec.Name, 0)
	if err != nil {
		return nil, internal("could not create recipe", err)
	}
	if taken {
		return nil, conflict("a recipe with this name already exists")
	}

	rec.ID = 0
	rec.OwnerID = actor.UserID
	rec.Owner = model.User{}
	for i := range rec.Ingredients {
		rec.Ingredients[i].ID, rec.Ingredients[i].RecipeID = 0, 0
	}
	for i := range rec.Steps {
		rec.Steps[i].ID, rec.Steps[i].RecipeID = 0, 0
	}
	for i := range rec.Tags {
		rec.Tags[i].ID, rec.Tags[i].RecipeID = 0, 0
	}
	if err := s.recipes.Create(ctx, &rec); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("a recipe with this name already exists")
		}
		return nil, internal("could not create recipe", err)
	}
	s.changed(ctx)
	return s.Get(ctx, rec.ID)
}

// Update replaces the recipe's scalar fields and reconciles its ingredients,
// steps and tags against the submitted collections: items without an id are
// created, items with a stored id are updated, stored items not resubmitted
// are deleted. Everything is applied in one transaction.
func (s *RecipeService) Update(ctx context.Context, actor Actor, id uint64, in model.Recipe) (*model.Recipe, error) {
	if err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := normalizeRecipe(&in); err != nil {
		return nil, err
	}
	taken, err := s.recipes.NameTaken(ctx, in.Name, id)
	if err != nil {
		return nil, internal("could not update recipe", err)
	}
	if taken {
		return nil, conflict("a recipe with this name already exists")
	}

	ings, steps, tags, err := s.recipes.Children(ctx, id)
	if err != nil {
		return nil, internal("could not update recipe", err)
	}
	changes := repository.RecipeChanges{
		Recipe:      in,
		Ingredients: reconcile.Diff(ings, in.Ingredients, ingredientID),
		Steps:       reconcile.Diff(steps, in.Steps, stepID),
		Tags:        reconcile.Diff(tags, in.Tags, tagID),
	}
	changes.Recipe.ID = id
	if err := unknownChildren("ingredient", changes.Ingredients.Unknown); err != nil {
		return nil, err
	}
	if err := unknownChildren("step", changes.Steps.Unknown); err != nil {
		return nil, err
	}
	if err := unknownChildren("tag", changes.Tags.Unknown); err != nil {
		return nil, err
	}

	if err := s.recipes.ApplyUpdate(ctx, changes); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, conflict("a recipe with this name already exists")
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("recipe not found")
		}
		return nil, internal("could not update recipe", err)
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// Delete removes a recipe the actor owns, or any recipe for an admin.
func (s *RecipeService) Delete(ctx context.Context, actor Actor, id uint64) error {
	if err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("recipe not found")
		}
		return internal("could not delete recipe", err)
	}
	s.changed(ctx)
	return nil
}

// SetBest adds or removes the best tag. Admins only.
func (s *RecipeService) SetBest(ctx context.Context, actor Actor, id uint64, best bool) (*model.Recipe, error) {
	if !actor.IsAdmin {
		return nil, forbidden("admin only")
	}
	var err error
	if best {
		err = s.recipes.AddTag(ctx, id, model.BestTag)
	} else {
		err = s.recipes.RemoveTag(ctx, id, model.BestTag)
	}
	if err != nil {
		return nil, recipeLookupErr(err)
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

func (s *RecipeService) authorize(ctx context.Context, actor Actor, id uint64) error {
	if actor.UserID == 0 {
		return unauthorized("authentication required")
	}
	ownerID, err := s.recipes.OwnerOf(ctx, id)
	if err != nil {
		return recipeLookupErr(err)
	}
	if !actor.CanManage(ownerID) {
		return forbidden("only the owner or an admin can change this recipe")
	}
	return nil
}

func recipeLookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("recipe not found")
	}
	return internal("could not load recipe", err)
}

func unknownChildren(kind string, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return validation(fmt.Sprintf("unknown %s id %d for this recipe", kind, ids[0]))
}

// normalizeRecipe trims text fields and checks the required ones.
func normalizeRecipe(rec *model.Recipe) error {
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		return validation("recipe name is required")
	}
	for _, v := range []int{rec.PreparationTimeValue, rec.BakingTimeValue, rec.RestingTimeValue, rec.NumberOfPersons} {
		if v < 0 {
			return validation("times and number of persons cannot be negative")
		}
	}
	for i := range rec.Ingredients {
		rec.Ingredients[i].Name = strings.TrimSpace(rec.Ingredients[i].Name)
		if rec.Ingredients[i].Name == "" {
			return validation("ingredient name is required")
		}
	}
	for i := range rec.Steps {
		rec.Steps[i].Description = strings.TrimSpace(rec.Steps[i].Description)
		if rec.Steps[i].Description == "" {
			return validation("step description is required")
		}
	}
	for i := range rec.Tags {
		rec.Tags[i].Value = strings.TrimSpace(rec.Tags[i].Value)
		if rec.Tags[i].Value == "" {
			return validation("tag value is required")
		}
	}
	return nil
}
