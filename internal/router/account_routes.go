package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-share/internal/handler"
	"github.com/iliyamo/recipe-share/internal/middleware"
)

// RegisterAccount registers favorites, uploads and user administration.
// Every route here requires a valid access token.
func RegisterAccount(e *echo.Echo, d Deps) {
	strict := middleware.RequireAuth(d.Auth.Codec())

	f := handler.NewFavoriteHandler(d.Favorites, d.Recipes)
	fav := e.Group("/favorites", strict)
	fav.POST("", f.Add)
	fav.GET("", f.List)
	fav.GET("/check/:recipeId", f.Check)
	fav.DELETE("/:recipeId", f.Remove)

	up := handler.NewUploadHandler(d.Images)
	upload := e.Group("/upload", strict)
	upload.POST("", up.Upload)
	upload.DELETE("/:id", up.Delete)

	u := handler.NewUserHandler(d.Users)
	users := e.Group("/users", strict)
	users.GET("", u.List, middleware.RequireAdmin())
	users.GET("/:id", u.Get)
	users.PUT("/:id", u.Update)
	users.DELETE("/:id", u.Delete)
	users.PUT("/:id/admin", u.SetAdmin, middleware.RequireAdmin())
}
