package router

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/recipe-share/internal/config"
	"github.com/iliyamo/recipe-share/internal/mail"
	"github.com/iliyamo/recipe-share/internal/middleware"
	"github.com/iliyamo/recipe-share/internal/repository"
	"github.com/iliyamo/recipe-share/internal/service"
	"github.com/iliyamo/recipe-share/internal/storage"
	"github.com/iliyamo/recipe-share/internal/testutil"
	"github.com/iliyamo/recipe-share/internal/token"
)

const password = "Sup3r$ecret"

type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (o *outbox) Send(_ context.Context, m mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, m)
	return nil
}

type app struct {
	e     *echo.Echo
	users *service.UserService
	mail  *outbox

	lastRefresh *http.Cookie
}

func newApp(t *testing.T) *app {
	t.Helper()
	db := testutil.OpenDB(t)
	cfg := config.Config{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		CORSOrigins:     []string{"http://localhost:3000"},
		FrontURL:        "http://front.test",
		Storage: config.StorageConfig{
			Backend:       "local",
			UploadDir:     t.TempDir(),
			PublicPath:    "/uploads",
			MaxImageBytes: 1 << 20,
		},
	}
	codec, err := token.NewCodec(token.Options{
		AccessSecret:  "a-secret",
		RefreshSecret: "r-secret",
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	require.NoError(t, err)

	box := &outbox{}
	recipeRepo := repository.NewRecipeRepo(db)
	store := storage.NewLocal(cfg.Storage.UploadDir, cfg.Storage.PublicPath)
	users := service.NewUserService(repository.NewUserRepo(db), store)
	d := Deps{
		Cfg: cfg,
		Auth: service.NewAuthService(
			repository.NewUserRepo(db),
			repository.NewTokenRepo(db),
			repository.NewResetTokenRepo(db),
			codec, box,
			service.AuthOptions{BcryptCost: bcrypt.MinCost, FrontURL: cfg.FrontURL},
		),
		Recipes:   service.NewRecipeService(recipeRepo),
		Favorites: service.NewFavoriteService(repository.NewFavoriteRepo(db), recipeRepo),
		Images:    service.NewImageService(repository.NewImageRepo(db), store, cfg.Storage.MaxImageBytes),
		Users:     users,
	}
	return &app{e: New(d), users: users, mail: box}
}

func (a *app) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// session registers and logs in, returning the two auth cookies.
func (a *app) session(t *testing.T, email string) (access, refresh *http.Cookie, userID uint64) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/auth/register", echo.Map{"name": "Cook", "email": email, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	userID = uint64(decode(t, rec)["data"].(map[string]any)["id"].(float64))
	access = a.login(t, email, password)
	return access, a.lastRefresh, userID
}

func (a *app) login(t *testing.T, email, pw string) *http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/auth/login", echo.Map{"email": email, "password": pw})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	a.lastRefresh = cookieNamed(rec, middleware.RefreshCookie)
	return cookieNamed(rec, middleware.AccessCookie)
}

func TestHealthAndNotFound(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = a.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode(t, rec), "error")

	rec = a.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/auth/register", echo.Map{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/register", echo.Map{"name": "Cook", "email": "cook@example.com", "password": password})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, "cook@example.com", data["email"])
	assert.NotContains(t, data, "isAdmin")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = a.do(t, http.MethodPost, "/auth/register", echo.Map{"name": "Cook", "email": "cook@example.com", "password": password})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email already in use", decode(t, rec)["error"])

	rec = a.do(t, http.MethodPost, "/auth/login", echo.Map{"email": "cook@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/login", echo.Map{"email": "cook@example.com", "password": password})
	require.Equal(t, http.StatusOK, rec.Code)
	access := cookieNamed(rec, middleware.AccessCookie)
	refresh := cookieNamed(rec, middleware.RefreshCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, int((15 * time.Minute).Seconds()), access.MaxAge)
	assert.Equal(t, int(time.Hour.Seconds()), refresh.MaxAge)
	tokens := decode(t, rec)
	assert.Equal(t, access.Value, tokens["accessToken"])
	assert.Equal(t, refresh.Value, tokens["refreshToken"])

	rec = a.do(t, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = a.do(t, http.MethodGet, "/auth/me", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cook@example.com", decode(t, rec)["data"].(map[string]any)["email"])

	rec = a.do(t, http.MethodPost, "/auth/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	renewed := cookieNamed(rec, middleware.AccessCookie)
	require.NotNil(t, renewed)
	assert.Equal(t, renewed.Value, decode(t, rec)["accessToken"])

	// body fallback for clients without cookies
	rec = a.do(t, http.MethodPost, "/auth/refresh", echo.Map{"refreshToken": refresh.Value})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/logout", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := cookieNamed(rec, middleware.RefreshCookie)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	rec = a.do(t, http.MethodPost, "/auth/refresh", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// logout without any token still succeeds
	rec = a.do(t, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPasswordReset(t *testing.T) {
	a := newApp(t)
	a.session(t, "reset@example.com")

	rec := a.do(t, http.MethodPost, "/auth/forgot-password", echo.Map{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/forgot-password", echo.Map{"email": "reset@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, a.mail.sent, 1)
	html := a.mail.sent[0].HTML
	const marker = "http://front.test/reset-password?token="
	i := strings.Index(html, marker)
	require.GreaterOrEqual(t, i, 0)
	tok := html[i+len(marker) : i+len(marker)+64]

	rec = a.do(t, http.MethodPost, "/auth/reset-password", echo.Map{"token": tok, "newPassword": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/reset-password", echo.Map{"token": tok, "newPassword": "N3w&Password"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodPost, "/auth/reset-password", echo.Map{"token": tok, "newPassword": "N3w&Password"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	a.login(t, "reset@example.com", "N3w&Password")
}

func TestAdminTokenRoutes(t *testing.T) {
	a := newApp(t)
	access, _, uid := a.session(t, "boss@example.com")

	rec := a.do(t, http.MethodGet, "/auth/token-stats", nil, access)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, err := a.users.SetAdmin(context.Background(), service.SystemActor, uid, true)
	require.NoError(t, err)
	access = a.login(t, "boss@example.com", password)

	rec = a.do(t, http.MethodGet, "/auth/token-stats", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)
	assert.Equal(t, float64(2), stats["total"])

	rec = a.do(t, http.MethodPost, "/auth/cleanup-tokens", nil, access)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/users", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)
}

func sampleRecipe(name string) echo.Map {
	return echo.Map{
		"name":              name,
		"number_of_persons": 4,
		"ingredients": []echo.Map{
			{"name": "flour", "unit": "g", "value": 250},
			{"name": "sugar", "unit": "g", "value": 100},
		},
		"steps": []echo.Map{{"description": "Mix"}},
		"tags":  []echo.Map{{"value": "dessert"}},
	}
}

func TestRecipeLifecycle(t *testing.T) {
	a := newApp(t)
	owner, _, ownerID := a.session(t, "owner@example.com")
	other, _, _ := a.session(t, "other@example.com")

	rec := a.do(t, http.MethodPost, "/recipes", sampleRecipe("Cake"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/recipes", sampleRecipe("Cake"), owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	id := uint64(created["id"].(float64))
	assert.Equal(t, float64(ownerID), created["ownerId"])
	ings := created["ingredients"].([]any)
	require.Len(t, ings, 2)
	firstID := ings[0].(map[string]any)["id"]

	rec = a.do(t, http.MethodPost, "/recipes", sampleRecipe("Cake"), owner)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// anonymous reads
	rec = a.do(t, http.MethodGet, "/recipes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/recipes/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodGet, "/recipes/name/Cake", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodGet, "/recipes/ingredients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["flour","sugar"]`, rec.Body.String())
	rec = a.do(t, http.MethodGet, "/recipes/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(t, http.MethodGet, "/recipes/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/recipes/my", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	rec = a.do(t, http.MethodGet, "/recipes/my", nil, other)
	assert.Equal(t, "0", rec.Header().Get("X-Total-Count"))

	update := sampleRecipe("Cake")
	update["ingredients"] = []echo.Map{
		{"id": firstID, "name": "flour", "unit": "kg", "value": 0.25},
		{"name": "new", "unit": "pc", "value": 1},
	}
	rec = a.do(t, http.MethodPut, fmt.Sprintf("/recipes/%d", id), update, other)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPut, fmt.Sprintf("/recipes/%d", id), update, owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ings = decode(t, rec)["ingredients"].([]any)
	require.Len(t, ings, 2)
	assert.Equal(t, firstID, ings[0].(map[string]any)["id"])
	assert.Equal(t, "kg", ings[0].(map[string]any)["unit"])
	assert.Equal(t, "new", ings[1].(map[string]any)["name"])

	update["ingredients"] = []echo.Map{{"id": 4242, "name": "ghost"}}
	rec = a.do(t, http.MethodPut, fmt.Sprintf("/recipes/%d", id), update, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, fmt.Sprintf("/recipes/%d/best", id), nil, owner)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/recipes/%d", id), nil, other)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/recipes/%d", id), nil, owner)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/recipes/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecipeReadsRenewAccessFromRefreshCookie(t *testing.T) {
	a := newApp(t)
	_, refresh, _ := a.session(t, "renew@example.com")

	rec := a.do(t, http.MethodGet, "/recipes", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	renewed := cookieNamed(rec, middleware.AccessCookie)
	require.NotNil(t, renewed)

	rec = a.do(t, http.MethodGet, "/auth/me", nil, renewed)
	assert.Equal(t, http.StatusOK, rec.Code)

	// strict routes never fall back to the refresh cookie
	rec = a.do(t, http.MethodGet, "/favorites", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFavorites(t *testing.T) {
	a := newApp(t)
	access, _, _ := a.session(t, "fav@example.com")
	rec := a.do(t, http.MethodPost, "/recipes", sampleRecipe("Pie"), access)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := uint64(decode(t, rec)["id"].(float64))

	rec = a.do(t, http.MethodPost, "/favorites", echo.Map{"recipeId": 999}, access)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, "/favorites", echo.Map{"recipeId": id}, access)
	require.Equal(t, http.StatusCreated, rec.Code)
	fav := decode(t, rec)["favorite"].(map[string]any)
	assert.Equal(t, "Pie", fav["recipe"].(map[string]any)["name"])

	rec = a.do(t, http.MethodPost, "/favorites", echo.Map{"recipeId": id}, access)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/favorites/check/%d", id), nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	check := decode(t, rec)
	assert.Equal(t, true, check["isFavorite"])
	assert.Equal(t, fav["id"], check["favoriteId"])

	rec = a.do(t, http.MethodGet, "/favorites", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["favorites"], 1)

	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/favorites/%d", id), nil, access)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/favorites/%d", id), nil, access)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/favorites/check/%d", id), nil, access)
	check = decode(t, rec)
	assert.Equal(t, false, check["isFavorite"])
	assert.Nil(t, check["favoriteId"])
}

func TestUploadServesStoredImage(t *testing.T) {
	a := newApp(t)
	access, _, _ := a.session(t, "img@example.com")
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))

	rec := a.do(t, http.MethodPost, "/upload", echo.Map{"imageBase64": dataURI})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/upload", echo.Map{"imageBase64": "not-a-data-uri"}, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/upload", echo.Map{"imageBase64": dataURI}, access)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	url := body["imageUrl"].(string)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))
	imgID := uint64(body["image"].(map[string]any)["id"].(float64))

	rec = a.do(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "\x89PNG fake", rec.Body.String())

	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/upload/%d", imgID), nil, access)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodGet, url, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserRoutes(t *testing.T) {
	a := newApp(t)
	alice, _, aliceID := a.session(t, "alice@example.com")
	_, _, bobID := a.session(t, "bob@example.com")

	rec := a.do(t, http.MethodGet, "/users", nil, alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/users/%d", bobID), nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decode(t, rec)["data"], "isAdmin")

	rec = a.do(t, http.MethodPut, fmt.Sprintf("/users/%d", bobID), echo.Map{"name": "Mallory"}, alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodPut, fmt.Sprintf("/users/%d", aliceID), echo.Map{"name": "Alice"}, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", decode(t, rec)["data"].(map[string]any)["name"])

	rec = a.do(t, http.MethodPut, fmt.Sprintf("/users/%d/admin", aliceID), echo.Map{"isAdmin": true}, alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", aliceID), nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodPost, "/auth/login", echo.Map{"email": "alice@example.com", "password": password})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
