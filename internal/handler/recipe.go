package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-share/internal/repository"
	"github.com/iliyamo/recipe-share/internal/service"
)

const maxPageSize = 100

// RecipeHandler serves the recipe endpoints.
type RecipeHandler struct {
	Recipes *service.RecipeService
}

func NewRecipeHandler(recipes *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{Recipes: recipes}
}

// queryInt parses an optional non-negative query parameter.
func queryInt(c echo.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil && n >= 0
}

func (h *RecipeHandler) list(c echo.Context, q repository.RecipeQuery) error {
	page, ok := queryInt(c, "page")
	if !ok {
		return badRequest(c, "invalid page")
	}
	size, ok := queryInt(c, "page_size")
	if !ok {
		return badRequest(c, "invalid page_size")
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	q.Page, q.PageSize = page, size

	ctx, cancel := requestCtx(c)
	defer cancel()
	recs, total, err := h.Recipes.List(ctx, q)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	return c.JSON(http.StatusOK, recipesFrom(recs))
}

// List returns every recipe, optionally filtered by ?name= and ?tag= and
// paginated by ?page=&page_size=. The total match count is sent in
// X-Total-Count.
func (h *RecipeHandler) List(c echo.Context) error {
	return h.list(c, repository.RecipeQuery{
		Name: strings.TrimSpace(c.QueryParam("name")),
		Tag:  strings.TrimSpace(c.QueryParam("tag")),
	})
}

// Mine lists the caller's recipes.
func (h *RecipeHandler) Mine(c echo.Context) error {
	return h.list(c, repository.RecipeQuery{OwnerID: actor(c).UserID})
}

func (h *RecipeHandler) ByOwner(c echo.Context) error {
	ownerID, ok := pathID(c, "ownerId")
	if !ok {
		return badRequest(c, "invalid owner id")
	}
	return h.list(c, repository.RecipeQuery{OwnerID: ownerID})
}

func (h *RecipeHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid recipe id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	rec, err := h.Recipes.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, recipeFrom(rec))
}

func (h *RecipeHandler) GetByName(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	rec, err := h.Recipes.GetByName(ctx, c.Param("name"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, recipeFrom(rec))
}

// Ingredients lists the distinct ingredient names used across recipes.
func (h *RecipeHandler) Ingredients(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	names, err := h.Recipes.IngredientNames(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, names)
}

func (h *RecipeHandler) Create(c echo.Context) error {
	var req recipeDTO
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	rec, err := h.Recipes.Create(ctx, actor(c), req.toModel())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, recipeFrom(rec))
}

// Update replaces the recipe and reconciles its child collections against
// the submitted ones.
func (h *RecipeHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid recipe id")
	}
	var req recipeDTO
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	rec, err := h.Recipes.Update(ctx, actor(c), id, req.toModel())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, recipeFrom(rec))
}

func (h *RecipeHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid recipe id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Recipes.Delete(ctx, actor(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Best adds the best tag on POST and removes it on DELETE.
func (h *RecipeHandler) Best(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid recipe id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	rec, err := h.Recipes.SetBest(ctx, actor(c), id, c.Request().Method == http.MethodPost)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, recipeFrom(rec))
}
