package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/recipe-share/internal/model"
	"github.com/iliyamo/recipe-share/internal/service"
	"github.com/iliyamo/recipe-share/internal/token"
)

// accessTokenFrom prefers an Authorization bearer over the access cookie.
func accessTokenFrom(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return cookieValue(c, AccessCookie)
}

// RequireAuth rejects requests without a valid access token and attaches
// the caller's identity otherwise. It never consults the refresh token.
func RequireAuth(codec *token.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := accessTokenFrom(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			claims, err := codec.VerifyAccess(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}
			SetActor(c, actorFromClaims(claims))
			return next(c)
		}
	}
}

// Refresher mints an access token from a refresh token.
type Refresher interface {
	Codec() *token.Codec
	Refresh(ctx context.Context, rawRefresh string) (token.Signed, *model.User, error)
}

// RefreshingAuth attaches the caller when possible but never rejects. An
// invalid or missing access token falls back to the refresh cookie; on
// success a new access cookie is set. Otherwise the request continues
// anonymously.
func RefreshingAuth(r Refresher, cookies CookieOptions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := accessTokenFrom(c); raw != "" {
				if claims, err := r.Codec().VerifyAccess(raw); err == nil {
					SetActor(c, actorFromClaims(claims))
					return next(c)
				}
			}
			refresh := RefreshTokenFrom(c)
			if refresh == "" {
				return next(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			access, u, err := r.Refresh(ctx, refresh)
			if err != nil {
				log.Debug().Err(err).Msg("refreshing auth: continuing anonymously")
				return next(c)
			}
			cookies.SetAccessCookie(c, access)
			SetActor(c, service.Actor{UserID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin})
			return next(c)
		}
	}
}
