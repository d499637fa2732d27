package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blood-donation-backend/internal/config"
	"blood-donation-backend/internal/metrics"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.InitJWT("middleware-secret", time.Minute, time.Hour)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(ContextUserID), "role": c.GetString(ContextRole)})
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, err := utils.GenerateAccessToken(userID, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(nil), whoami)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid token", bearer(t, 42, "donor"), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(r, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":42,"role":"donor"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

type accountsStub struct {
	active map[uint]bool
	err    error
}

func (s accountsStub) IsActive(ctx context.Context, userID uint) (bool, error) {
	return s.active[userID], s.err
}

func TestAuthMiddlewareRefusesDisabledAccounts(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(discardLogger()))
	r.GET("/me", AuthMiddleware(accountsStub{active: map[uint]bool{42: true, 43: false}}), whoami)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, 42, "donor"))
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	// the token is still valid but the account was disabled after it was issued
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, 43, "donor"))
	w := serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Account is disabled")

	// deleted users look the same
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, 99, "donor"))
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestAuthMiddlewareAccountLookupFailure(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(discardLogger()))
	r.GET("/me", AuthMiddleware(accountsStub{err: errors.New("db gone")}), whoami)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, 42, "donor"))
	w := serve(r, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/events", OptionalAuth(), whoami)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"role":""}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Authorization", "Bearer broken")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"role":""}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Authorization", bearer(t, 7, "hospital"))
	w = serve(r, req)
	assert.JSONEq(t, `{"user_id":7,"role":"hospital"}`, w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := gin.New()
	r.GET("/approvals", AuthMiddleware(nil), RequireRoles("hospital", "admin"), whoami)
	r.GET("/admin", AuthMiddleware(nil), RequireAdmin(), whoami)
	r.GET("/anon", RequireRoles("donor"), whoami)

	req := httptest.NewRequest(http.MethodGet, "/approvals", nil)
	req.Header.Set("Authorization", bearer(t, 1, "hospital"))
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/approvals", nil)
	req.Header.Set("Authorization", bearer(t, 1, "donor"))
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, 1, "organization"))
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/anon", nil)).Code)
}

func TestCORS(t *testing.T) {
	cfg := &config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}}
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(r, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = serve(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	r := gin.New()
	r.Use(RequestLogger(discardLogger()), Recovery(logger), ErrorHandler(logger))
	r.GET("/boom", func(c *gin.Context) { utils.HandleError(c, errors.New("dial tcp: connection refused")) })
	r.GET("/bad", func(c *gin.Context) { utils.HandleError(c, utils.Conflict("event is full")) })
	r.GET("/panic", func(c *gin.Context) { panic("nil map") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, w.Body.String())
	assert.Contains(t, logs.String(), "connection refused")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"event is full"}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, logs.String(), "nil map")
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	var logs bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(slog.New(slog.NewJSONHandler(&logs, nil))))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())
	assert.Contains(t, logs.String(), `"path":"/ping"`)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Body.String())
}

type stubLimiter struct {
	allowed int
	calls   int
	keys    []string
	err     error
}

func (s *stubLimiter) Allow(_ context.Context, key string, limit Limit) (*LimitResult, error) {
	s.calls++
	s.keys = append(s.keys, key)
	if s.err != nil {
		return nil, s.err
	}
	if s.calls > s.allowed {
		return &LimitResult{Allowed: false, RetryAfter: 1500 * time.Millisecond}, nil
	}
	return &LimitResult{Allowed: true, Remaining: s.allowed - s.calls}, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &stubLimiter{allowed: 2}
	r := gin.New()
	r.POST("/login", RateLimit(limiter, "login", PerMinute(2), discardLogger()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}
	w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Contains(t, limiter.keys[0], "ratelimit:login:")
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(&stubLimiter{err: errors.New("redis down")}, "login", PerMinute(1), discardLogger()),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/otp", RateLimit(nil, "otp", PerMinute(1), discardLogger()), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/login", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/otp", nil)).Code)
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/events/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/events/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/events/2", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/events/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
