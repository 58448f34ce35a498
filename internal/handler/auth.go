package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-share/internal/middleware"
	"github.com/iliyamo/recipe-share/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth    *service.AuthService
	Cookies middleware.CookieOptions
}

func NewAuthHandler(auth *service.AuthService, cookies middleware.CookieOptions) *AuthHandler {
	return &AuthHandler{Auth: auth, Cookies: cookies}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type forgotReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// Register creates an account. The response never carries tokens; the
// client logs in afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, service.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "account created",
		"data":    userFrom(u, false),
	})
}

// Login sets both auth cookies and also returns the tokens for clients that
// send bearer headers.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	sess, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	h.Cookies.SetAccessCookie(c, sess.Access)
	h.Cookies.SetRefreshCookie(c, sess.Refresh)
	return c.JSON(http.StatusOK, echo.Map{
		"message":      "logged in",
		"data":         userFrom(sess.User, true),
		"accessToken":  sess.Access.Token,
		"refreshToken": sess.Refresh.Token,
		"expiresAt":    sess.Access.Exp,
	})
}

// refreshTokenOf reads the refresh cookie, falling back to the JSON body.
func refreshTokenOf(c echo.Context) string {
	if raw := middleware.RefreshTokenFrom(c); raw != "" {
		return raw
	}
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}

// Refresh issues a new access token. The refresh token is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := refreshTokenOf(c)
	ctx, cancel := requestCtx(c)
	defer cancel()

	access, _, err := h.Auth.Refresh(ctx, raw)
	if err != nil {
		return writeError(c, err)
	}
	h.Cookies.SetAccessCookie(c, access)
	return c.JSON(http.StatusOK, echo.Map{"accessToken": access.Token, "expiresAt": access.Exp})
}

// Logout revokes the presented refresh token when it decodes and always
// clears both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := refreshTokenOf(c)
	ctx, cancel := requestCtx(c)
	defer cancel()

	h.Auth.Logout(ctx, raw)
	h.Cookies.ClearAuthCookies(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// LogoutAll revokes every session of the caller.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	n, err := h.Auth.LogoutAll(ctx, actor(c).UserID)
	if err != nil {
		return writeError(c, err)
	}
	h.Cookies.ClearAuthCookies(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out everywhere", "revoked": n})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Auth.RequestPasswordReset(ctx, req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reset email sent"})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Auth.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Auth.Me(ctx, actor(c).UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": userFrom(u, true)})
}

func (h *AuthHandler) CleanupTokens(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	n, err := h.Auth.CleanupTokens(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "cleanup done", "deleted": n})
}

func (h *AuthHandler) TokenStats(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	st, err := h.Auth.TokenStats(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}
