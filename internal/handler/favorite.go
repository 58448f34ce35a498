package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-share/internal/service"
)

// FavoriteHandler serves the caller's favorites. Every route is behind
// RequireAuth.
type FavoriteHandler struct {
	Favorites *service.FavoriteService
	Recipes   *service.RecipeService
}

func NewFavoriteHandler(f *service.FavoriteService, r *service.RecipeService) *FavoriteHandler {
	return &FavoriteHandler{Favorites: f, Recipes: r}
}

type addFavoriteReq struct {
	RecipeID uint64 `json:"recipeId"`
}

func (h *FavoriteHandler) Add(c echo.Context) error {
	var req addFavoriteReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	fav, err := h.Favorites.Add(ctx, actor(c).UserID, req.RecipeID)
	if err != nil {
		return writeError(c, err)
	}
	rec, err := h.Recipes.Get(ctx, fav.RecipeID)
	if err != nil {
		return writeError(c, err)
	}
	fav.Recipe = *rec
	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "added to favorites",
		"favorite": favoriteFrom(fav),
	})
}

// List returns the caller's favorites, newest first.
func (h *FavoriteHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	favs, err := h.Favorites.List(ctx, actor(c).UserID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]favoriteResp, 0, len(favs))
	for i := range favs {
		out = append(out, favoriteFrom(&favs[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"favorites": out})
}

func (h *FavoriteHandler) Check(c echo.Context) error {
	recipeID, ok := pathID(c, "recipeId")
	if !ok {
		return badRequest(c, "invalid recipe id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	isFav, favID, err := h.Favorites.Check(ctx, actor(c).UserID, recipeID)
	if err != nil {
		return writeError(c, err)
	}
	var id *uint64
	if isFav {
		id = &favID
	}
	return c.JSON(http.StatusOK, echo.Map{"isFavorite": isFav, "favoriteId": id})
}

func (h *FavoriteHandler) Remove(c echo.Context) error {
	recipeID, ok := pathID(c, "recipeId")
	if !ok {
		return badRequest(c, "invalid recipe id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Favorites.Remove(ctx, actor(c).UserID, recipeID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "removed from favorites"})
}
