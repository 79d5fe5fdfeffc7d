package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, secret string, roles []string, expires time.Time) string {
	t.Helper()
	claims := JWTClaims{
		UserID: "u-1",
		Name:   "Inspector",
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/", JWTAuth(testSecret))
	if len(roles) > 0 {
		g.Use(RequireRole(roles...))
	}
	g.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	return r
}

func do(r *gin.Engine, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := newRouter()
	valid := signToken(t, testSecret, []string{RoleInspector}, time.Now().Add(time.Hour))

	w := do(r, "/ping", valid)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", w.Body.String())

	w = do(r, "/ping?token="+valid, "")
	assert.Equal(t, http.StatusOK, w.Code, "query token is accepted for SSE clients")

	assert.Equal(t, http.StatusUnauthorized, do(r, "/ping", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/ping", signToken(t, "other", nil, time.Now().Add(time.Hour))).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/ping", signToken(t, testSecret, nil, time.Now().Add(-time.Minute))).Code)
}

func TestRequireRole(t *testing.T) {
	r := newRouter(RoleInspector)
	in := time.Now().Add(time.Hour)

	assert.Equal(t, http.StatusOK, do(r, "/ping", signToken(t, testSecret, []string{RoleInspector}, in)).Code)
	assert.Equal(t, http.StatusOK, do(r, "/ping", signToken(t, testSecret, []string{AdminRole}, in)).Code)

	w := do(r, "/ping", signToken(t, testSecret, []string{RoleCallDesk}, in))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "40312")
}

func TestRequestIDEchoesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLoggerAddsInspectionContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.PUT("/rm/calls/:id/heats/:heatId/visual", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/rm/calls/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/rm/calls/call-1/heats/heat-9/visual", nil))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "call-1", fields["call_id"])
	assert.Equal(t, "heat-9", fields["heat_id"])
	assert.NotEmpty(t, fields["request_id"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rm/calls/call-2", nil))
	entry := logs.All()[1]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "call-2", entry.ContextMap()["call_id"])
	assert.NotContains(t, entry.ContextMap(), "heat_id")
}
