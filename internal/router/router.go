package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/recipe-share/internal/config"
	"github.com/iliyamo/recipe-share/internal/handler"
	"github.com/iliyamo/recipe-share/internal/middleware"
	"github.com/iliyamo/recipe-share/internal/service"
)

// Deps carries everything the HTTP layer needs. Redis may be nil, in which
// case rate limiting and response caching are disabled.
type Deps struct {
	Cfg       config.Config
	Auth      *service.AuthService
	Recipes   *service.RecipeService
	Favorites *service.FavoriteService
	Images    *service.ImageService
	Users     *service.UserService
	Redis     *redis.Client
	Metrics   *middleware.Metrics
}

// CookieOptions derives the auth cookie settings from the config.
func CookieOptions(cfg config.Config) middleware.CookieOptions {
	return middleware.CookieOptions{
		Secure:     cfg.CookieSecure,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}
}

// New builds the echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	if d.Metrics == nil {
		d.Metrics = middleware.NewMetrics()
	}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(d.Metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	// data URI uploads arrive inside JSON bodies
	e.Use(echomw.BodyLimit(bodyLimit(d.Cfg)))

	RegisterRoutes(e, d)
	RegisterAuth(e, d)
	RegisterRecipes(e, d)
	RegisterAccount(e, d)
	return e
}

// RegisterRoutes registers health, metrics and static upload serving.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	if strings.EqualFold(d.Cfg.Storage.Backend, "local") && d.Cfg.Storage.UploadDir != "" {
		e.Static(publicPath(d.Cfg), d.Cfg.Storage.UploadDir)
	}
}

// RegisterAuth registers the /auth routes. All of them share the Redis
// token bucket; /me, /logout-all and the admin token routes additionally
// require a valid access token.
func RegisterAuth(e *echo.Echo, d Deps) {
	a := handler.NewAuthHandler(d.Auth, CookieOptions(d.Cfg))
	strict := middleware.RequireAuth(d.Auth.Codec())

	g := e.Group("/auth", middleware.NewTokenBucket(d.Cfg.RateLimit, d.Redis))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)

	g.GET("/me", a.Me, strict)
	g.POST("/logout-all", a.LogoutAll, strict)
	g.POST("/cleanup-tokens", a.CleanupTokens, strict, middleware.RequireAdmin())
	g.GET("/token-stats", a.TokenStats, strict, middleware.RequireAdmin())
}

func publicPath(cfg config.Config) string {
	if p := cfg.Storage.PublicPath; p != "" {
		return p
	}
	return "/uploads"
}

func bodyLimit(cfg config.Config) string {
	// base64 inflates by 4/3; leave room for the JSON around it
	mb := (cfg.Storage.MaxImageBytes*4/3)>>20 + 1
	return fmt.Sprintf("%dM", mb)
}

// errorHandler renders framework errors (404, 405, body limit) in the same
// {"error": msg} shape the handlers use.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, echo.Map{"error": msg})
	}
	if err != nil {
		log.Debug().Err(err).Msg("write error response")
	}
}
