package webserver

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/storefront/config"
	"github.com/talkincode/storefront/internal/app"
	"github.com/talkincode/storefront/pkg/common"
)

const testSecret = "test-secret"

var registerOnce sync.Once

func registerTestRoutes() {
	registerOnce.Do(func() {
		PublicGET("/test/public", func(c echo.Context) error {
			_, authed := GetCurrentUser(c)
			return OK(c, map[string]bool{"authed": authed})
		})
		ApiGET("/test/me", func(c echo.Context) error {
			user, _ := GetCurrentUser(c)
			return OK(c, map[string]string{"email": user.Email})
		})
		AdminGET("/test/admin", func(c echo.Context) error {
			return OK(c, "admin")
		})
		PublicGET("/test/page", func(c echo.Context) error {
			page, size := ParsePagination(c)
			return Paged(c, []int{}, 0, page, size)
		})
	})
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registerTestRoutes()
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = t.TempDir()
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = "web.db"
	cfg.Web.Secret = testSecret
	a := app.NewApplication(cfg)
	require.NoError(t, a.Init(cfg))
	t.Cleanup(a.Release)
	return NewServer(a)
}

func do(s *Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := IssueToken(testSecret, CurrentUser{ID: common.UUIDint64(), Email: "u@example.com", Role: role}, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServer_AccessLevels(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, http.MethodGet, "/api/test/public", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/test/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)

	rec = do(s, http.MethodGet, "/api/test/me", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(s, http.MethodGet, "/api/test/me", token(t, common.RoleCustomer))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "u@example.com")

	rec = do(s, http.MethodGet, "/api/test/admin", token(t, common.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(s, http.MethodGet, "/api/test/admin", token(t, common.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_NotFoundEnvelope(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestServer_Pagination(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/api/test/page?page=3&page_size=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"page":3`)
	assert.Contains(t, rec.Body.String(), `"page_size":100`)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t)
	do(s, http.MethodGet, "/api/health", "")
	rec := do(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_requests_total")
}
