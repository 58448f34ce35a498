package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-share/internal/token"
)

// Cookie names carrying the two tokens.
const (
	AccessCookie  = "token"
	RefreshCookie = "refreshToken"
)

// CookieOptions control the auth cookies. MaxAge of each cookie equals the
// lifetime of the token it carries.
type CookieOptions struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (o CookieOptions) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl / time.Second),
	}
}

// SetAccessCookie writes the access token cookie.
func (o CookieOptions) SetAccessCookie(c echo.Context, t token.Signed) {
	c.SetCookie(o.cookie(AccessCookie, t.Token, o.AccessTTL))
}

// SetRefreshCookie writes the refresh token cookie.
func (o CookieOptions) SetRefreshCookie(c echo.Context, t token.Signed) {
	c.SetCookie(o.cookie(RefreshCookie, t.Token, o.RefreshTTL))
}

// ClearAuthCookies expires both cookies.
func (o CookieOptions) ClearAuthCookies(c echo.Context) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		ck := o.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.SetCookie(ck)
	}
}

// cookieValue returns the named cookie's value or "".
func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// RefreshTokenFrom reads the refresh cookie.
func RefreshTokenFrom(c echo.Context) string {
	return cookieValue(c, RefreshCookie)
}
