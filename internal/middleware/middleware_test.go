package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/recipe-share/internal/config"
	"github.com/iliyamo/recipe-share/internal/model"
	"github.com/iliyamo/recipe-share/internal/service"
	"github.com/iliyamo/recipe-share/internal/token"
)

func testCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(token.Options{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)
	return codec
}

func whoami(c echo.Context) error {
	a, ok := ActorFrom(c)
	if !ok {
		return c.String(http.StatusOK, "anon")
	}
	return c.JSON(http.StatusOK, a)
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	codec := testCodec(t)
	e := echo.New()
	e.GET("/me", whoami, RequireAuth(codec))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	access, err := codec.IssueAccess(7, "cook@example.com", false)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access.Token)
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"UserID":7`)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: access.Token})
	assert.Equal(t, http.StatusOK, serve(e, req).Code)

	// refresh tokens are not access tokens
	refresh, err := codec.IssueRefresh(7, "tid")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: refresh.Token})
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
}

func TestRequireAdmin(t *testing.T) {
	codec := testCodec(t)
	e := echo.New()
	e.GET("/admin", whoami, RequireAuth(codec), RequireAdmin())

	user, err := codec.IssueAccess(1, "u@example.com", false)
	require.NoError(t, err)
	admin, err := codec.IssueAccess(2, "a@example.com", true)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+user.Token)
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+admin.Token)
	assert.Equal(t, http.StatusOK, serve(e, req).Code)

	bare := echo.New()
	bare.GET("/admin", whoami, RequireAdmin())
	assert.Equal(t, http.StatusUnauthorized, serve(bare, httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)
}

type fakeRefresher struct {
	codec *token.Codec
	calls int
}

func (f *fakeRefresher) Codec() *token.Codec { return f.codec }

func (f *fakeRefresher) Refresh(_ context.Context, raw string) (token.Signed, *model.User, error) {
	f.calls++
	if raw != "good-refresh" {
		return token.Signed{}, nil, errors.New("bad refresh")
	}
	access, err := f.codec.IssueAccess(9, "r@example.com", true)
	return access, &model.User{ID: 9, Email: "r@example.com", IsAdmin: true}, err
}

func TestRefreshingAuth(t *testing.T) {
	r := &fakeRefresher{codec: testCodec(t)}
	cookies := CookieOptions{AccessTTL: time.Minute, RefreshTTL: time.Hour}
	e := echo.New()
	e.GET("/recipes", whoami, RefreshingAuth(r, cookies))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/recipes", nil))
	assert.Equal(t, "anon", rec.Body.String())
	assert.Zero(t, r.calls)

	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "bad"})
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anon", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "expired-or-garbage"})
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "good-refresh"})
	rec = serve(e, req)
	assert.Contains(t, rec.Body.String(), `"UserID":9`)
	set := rec.Result().Cookies()
	require.Len(t, set, 1)
	assert.Equal(t, AccessCookie, set[0].Name)
	assert.True(t, set[0].HttpOnly)
	assert.Equal(t, 60, set[0].MaxAge)

	// a valid access token skips the refresh path
	calls := r.calls
	access, err := r.codec.IssueAccess(3, "x@example.com", false)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access.Token)
	rec = serve(e, req)
	assert.Contains(t, rec.Body.String(), `"UserID":3`)
	assert.Equal(t, calls, r.calls)
}

func TestClearAuthCookies(t *testing.T) {
	e := echo.New()
	e.POST("/logout", func(c echo.Context) error {
		CookieOptions{Secure: true}.ClearAuthCookies(c)
		return c.NoContent(http.StatusNoContent)
	})
	rec := serve(e, httptest.NewRequest(http.MethodPost, "/logout", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, ck := range cookies {
		assert.Equal(t, "", ck.Value)
		assert.True(t, ck.Secure)
		assert.Less(t, ck.MaxAge, 0)
	}
}

func TestDisabledLimitersPassThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil))
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, Purge(context.Background(), nil, "cache"))
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/auth/login")

	assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:ip:10.0.0.1:route:POST /api/auth/login",
		buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}, c))
	assert.Equal(t, "rl:user:anon", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))

	SetActor(c, service.Actor{UserID: 42})
	assert.Equal(t, "rl:user:42", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
}

func TestParseBucketResult(t *testing.T) {
	allowed, remaining, retry, ok := parseBucketResult([]interface{}{int64(1), int64(4), int64(0)})
	assert.True(t, ok)
	assert.True(t, allowed)
	assert.Equal(t, int64(4), remaining)
	assert.Zero(t, retry)

	allowed, _, retry, ok = parseBucketResult([]interface{}{"0", "0", "1500"})
	assert.True(t, ok)
	assert.False(t, allowed)
	assert.Equal(t, int64(1500), retry)
	assert.Equal(t, 2, retryAfterSeconds(retry))
	assert.Equal(t, 0, retryAfterSeconds(-5))

	_, _, _, ok = parseBucketResult("nope")
	assert.False(t, ok)
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(200, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)
	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, 200, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
}

func TestCaptureWriterAbandonsOversizedBodies(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 8}
	_, _ = io.WriteString(cw, "12345")
	assert.False(t, cw.overflow)
	_, _ = io.WriteString(cw, "67890")
	assert.True(t, cw.overflow)
	assert.Zero(t, cw.buf.Len())
	assert.Equal(t, "1234567890", rec.Body.String())
}

func TestCacheKeyIncludesConcretePath(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	key := func(path string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
		c.SetPath("/api/recipes/:id")
		return cacheKeyFrom(cfg, c)
	}
	assert.NotEqual(t, key("/api/recipes/1"), key("/api/recipes/2"))
	assert.Equal(t, key("/api/recipes/1"), key("/api/recipes/1"))
	assert.True(t, strings.HasPrefix(key("/api/recipes/1"), "cache:"))
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	serve(e, httptest.NewRequest(http.MethodGet, "/ping", nil))
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/ping",status="200"} 1`)
}
