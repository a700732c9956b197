package adminapi

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/storefront/config"
	"github.com/talkincode/storefront/internal/app"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/internal/orders"
	"github.com/talkincode/storefront/internal/webserver"
	"github.com/talkincode/storefront/pkg/common"
	"gorm.io/gorm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const testSecret = "admin-test-secret"

type envelope struct {
	Data    jsoniter.RawMessage    `json:"data"`
	Meta    webserver.PageMeta     `json:"meta"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Detail  map[string]interface{} `json:"detail"`
}

type testEnv struct {
	t     *testing.T
	srv   *webserver.Server
	app   *app.Application
	db    *gorm.DB
	admin domain.ShopUser
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	Init()
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = t.TempDir()
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = "admin.db"
	cfg.Web.Secret = testSecret
	a := app.NewApplication(cfg)
	require.NoError(t, a.Init(cfg))
	t.Cleanup(a.Release)

	e := &testEnv{t: t, srv: webserver.NewServer(a), app: a, db: a.DB()}
	require.NoError(t, e.db.Where("email = ?", app.SuperEmail).First(&e.admin).Error)
	e.token = e.tokenFor(e.admin)
	return e
}

func (e *testEnv) tokenFor(u domain.ShopUser) string {
	e.t.Helper()
	tok, err := webserver.IssueToken(testSecret, webserver.CurrentUser{ID: u.ID, Email: u.Email, Role: u.Role}, time.Hour)
	require.NoError(e.t, err)
	return tok
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
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (e *testEnv) data(env envelope, out interface{}) {
	e.t.Helper()
	require.NoError(e.t, json.Unmarshal(env.Data, out))
}

func (e *testEnv) seedUser(email, role string) domain.ShopUser {
	e.t.Helper()
	u := domain.ShopUser{ID: common.UUIDint64(), Email: email, Password: "x", Role: role, FirstName: "Test"}
	require.NoError(e.t, e.db.Create(&u).Error)
	return u
}

func (e *testEnv) seedCategory(name string) *domain.Category {
	e.t.Helper()
	cat := &domain.Category{ID: common.UUIDint64(), Name: name, IsActive: true}
	require.NoError(e.t, e.db.Create(cat).Error)
	return cat
}

func (e *testEnv) seedProduct(categoryID int64, name, price string, stock int) *domain.Product {
	e.t.Helper()
	p := &domain.Product{
		ID:         common.UUIDint64(),
		CategoryID: categoryID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(e.t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) addToCart(userID, productID int64, qty int) {
	e.t.Helper()
	require.NoError(e.t, e.db.Create(&domain.CartItem{
		ID: common.UUIDint64(), UserID: userID, ProductID: productID, Quantity: qty,
	}).Error)
}

// placeOrder checks out a single line for the user through the order service
func (e *testEnv) placeOrder(u domain.ShopUser, p *domain.Product, qty int) *domain.Order {
	e.t.Helper()
	e.addToCart(u.ID, p.ID, qty)
	order, err := e.app.Orders().PlaceOrder(context.Background(), orders.Customer{ID: u.ID, Email: u.Email}, "1 Test Road, Testville")
	require.NoError(e.t, err)
	return order
}

func (e *testEnv) stockOf(productID int64) int {
	e.t.Helper()
	var p domain.Product
	require.NoError(e.t, e.db.First(&p, productID).Error)
	return p.Stock
}

func (e *testEnv) ctx() context.Context {
	return context.Background()
}

func idStr(id int64) string {
	return strconv.FormatInt(id, 10)
}
