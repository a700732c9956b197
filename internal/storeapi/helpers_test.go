package storeapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/storefront/config"
	"github.com/talkincode/storefront/internal/app"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/internal/webserver"
	"github.com/talkincode/storefront/pkg/common"
	"gorm.io/gorm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	Data    jsoniter.RawMessage    `json:"data"`
	Meta    webserver.PageMeta     `json:"meta"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Detail  map[string]interface{} `json:"detail"`
}

type testEnv struct {
	t   *testing.T
	srv *webserver.Server
	app *app.Application
	db  *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	Init()
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = t.TempDir()
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = "store.db"
	cfg.Web.Secret = "store-test-secret"
	a := app.NewApplication(cfg)
	require.NoError(t, a.Init(cfg))
	t.Cleanup(a.Release)
	return &testEnv{t: t, srv: webserver.NewServer(a), app: a, db: a.DB()}
}

func (e *testEnv) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Echo().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (e *testEnv) data(env envelope, out interface{}) {
	e.t.Helper()
	require.NoError(e.t, json.Unmarshal(env.Data, out))
}

// register creates a customer through the API and returns its token and id
func (e *testEnv) register(email string) (string, int64) {
	e.t.Helper()
	rec, env := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":      email,
		"password":   "secret1",
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var res authResult
	e.data(env, &res)
	return res.Token, res.User.ID
}

func (e *testEnv) seedCategory(name string) *domain.Category {
	e.t.Helper()
	cat := &domain.Category{ID: common.UUIDint64(), Name: name, IsActive: true}
	require.NoError(e.t, e.db.Create(cat).Error)
	return cat
}

func (e *testEnv) seedProduct(categoryID int64, name, price string, stock int, active bool) *domain.Product {
	e.t.Helper()
	p := &domain.Product{
		ID:         common.UUIDint64(),
		CategoryID: categoryID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		IsActive:   true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(e.t, e.db.Create(p).Error)
	if !active {
		require.NoError(e.t, e.db.Model(p).Update("is_active", false).Error)
		p.IsActive = false
	}
	return p
}

func (e *testEnv) stockOf(productID int64) int {
	e.t.Helper()
	var p domain.Product
	require.NoError(e.t, e.db.First(&p, productID).Error)
	return p.Stock
}

func idStr(id int64) string {
	return strconv.FormatInt(id, 10)
}
