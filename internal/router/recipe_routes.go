package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-share/internal/handler"
	"github.com/iliyamo/recipe-share/internal/middleware"
)

// RegisterRecipes registers the /recipes routes.
//
// Public reads use RefreshingAuth: an expired access token is silently
// renewed from the refresh cookie, and anonymous callers are served too.
// Their responses go through the Redis cache, which sits inside the auth
// middleware so renewal still happens on a cache hit. Everything else
// requires a valid access token.
func RegisterRecipes(e *echo.Echo, d Deps) {
	h := handler.NewRecipeHandler(d.Recipes)
	strict := middleware.RequireAuth(d.Auth.Codec())
	lenient := middleware.RefreshingAuth(d.Auth, CookieOptions(d.Cfg))
	cache := middleware.NewRedisCache(d.Cfg.Cache, d.Redis)

	g := e.Group("/recipes")
	g.GET("", h.List, lenient, cache)
	g.GET("/ingredients", h.Ingredients, lenient, cache)
	g.GET("/name/:name", h.GetByName, lenient, cache)
	g.GET("/:id", h.Get, lenient, cache)

	g.GET("/my", h.Mine, strict)
	g.GET("/owner/:ownerId", h.ByOwner, strict)
	g.POST("", h.Create, strict)
	g.PUT("/:id", h.Update, strict)
	g.DELETE("/:id", h.Delete, strict)
	g.POST("/:id/best", h.Best, strict, middleware.RequireAdmin())
	g.DELETE("/:id/best", h.Best, strict, middleware.RequireAdmin())
}
