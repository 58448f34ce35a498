package middleware

// identity.go stores and reads the authenticated caller on the echo context.
// The auth middlewares attach a service.Actor; handlers and the rate
// limiter read it back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-share/internal/service"
	"github.com/iliyamo/recipe-share/internal/token"
)

const actorKey = "actor"

// SetActor attaches the caller to the request context.
func SetActor(c echo.Context, a service.Actor) {
	c.Set(actorKey, a)
}

// ActorFrom returns the caller attached by RequireAuth or RefreshingAuth.
func ActorFrom(c echo.Context) (service.Actor, bool) {
	a, ok := c.Get(actorKey).(service.Actor)
	return a, ok && a.UserID != 0
}

func actorFromClaims(cl *token.AccessClaims) service.Actor {
	return service.Actor{UserID: cl.UserID, Email: cl.Email, IsAdmin: cl.IsAdmin}
}

// userID identifies the caller for rate-limit keys; "anon" when unknown.
func userID(c echo.Context) string {
	if a, ok := ActorFrom(c); ok {
		return strconv.FormatUint(a.UserID, 10)
	}
	return "anon"
}
