package adminapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/pkg/common"
)

func TestAdminRoutesRequireAdmin(t *testing.T) {
	e := newTestEnv(t)
	customer := e.seedUser("c@example.com", common.RoleCustomer)

	rec, _ := e.do(http.MethodGet, "/api/admin/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, env := e.do(http.MethodGet, "/api/admin/products", e.tokenFor(customer), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Code)
	rec, _ = e.do(http.MethodGet, "/api/admin/products", e.token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProductCRUD(t *testing.T) {
	e := newTestEnv(t)
	cat := e.seedCategory("Lamps")

	rec, env := e.do(http.MethodPost, "/api/admin/products", e.token, map[string]interface{}{
		"name": "Desk Lamp", "stock": 3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Code)

	rec, env = e.do(http.MethodPost, "/api/admin/products", e.token, map[string]interface{}{
		"name": "Desk Lamp", "price": "-1", "stock": 3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = e.do(http.MethodPost, "/api/admin/products", e.token, map[string]interface{}{
		"name": "Desk Lamp", "price": "29.95", "stock": -1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = e.do(http.MethodPost, "/api/admin/products", e.token, map[string]interface{}{
		"name": "Desk Lamp", "price": "29.95", "stock": 3, "category_id": "12345",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Category does not exist", env.Message)

	rec, env = e.do(http.MethodPost, "/api/admin/products", e.token, map[string]interface{}{
		"name": " Desk Lamp ", "price": "29.95", "stock": 3, "category_id": idStr(cat.ID),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p domain.Product
	e.data(env, &p)
	assert.Equal(t, "Desk Lamp", p.Name)
	assert.True(t, p.IsActive)
	assert.Equal(t, "29.95", p.Price.StringFixed(2))

	rec, env = e.do(http.MethodPut, "/api/admin/products/"+idStr(p.ID), e.token, map[string]interface{}{
		"price": "24.50", "featured": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	e.data(env, &p)
	assert.Equal(t, "24.50", p.Price.StringFixed(2))
	assert.True(t, p.Featured)
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, "Desk Lamp", p.Name)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Lamps", p.Category.Name)

	rec, env = e.do(http.MethodGet, "/api/admin/products?q=lamp", e.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, env.Meta.Total)

	customer := e.seedUser("c@example.com", common.RoleCustomer)
	e.addToCart(customer.ID, p.ID, 1)

	rec, _ = e.do(http.MethodDelete, "/api/admin/products/"+idStr(p.ID), e.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stored domain.Product
	require.NoError(t, e.db.First(&stored, p.ID).Error)
	assert.False(t, stored.IsActive)
	var carts int64
	require.NoError(t, e.db.Model(&domain.CartItem{}).Where("product_id = ?", p.ID).Count(&carts).Error)
	assert.Zero(t, carts)

	rec, env = e.do(http.MethodGet, "/api/admin/products?status=inactive", e.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, env.Meta.Total)

	rec, _ = e.do(http.MethodGet, "/api/admin/products/999", e.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryManagement(t *testing.T) {
	e := newTestEnv(t)

	rec, env := e.do(http.MethodPost, "/api/admin/categories", e.token, map[string]string{"name": "Outdoor", "icon_name": "tree"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var cat domain.Category
	e.data(env, &cat)

	rec, env = e.do(http.MethodPost, "/api/admin/categories", e.token, map[string]string{"name": "outdoor"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CATEGORY_EXISTS", env.Code)

	p := e.seedProduct(cat.ID, "Tent", "150.00", 2)

	rec, env = e.do(http.MethodDelete, "/api/admin/categories/"+idStr(cat.ID), e.token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CATEGORY_IN_USE", env.Code)

	rec, env = e.do(http.MethodGet, "/api/admin/categories", e.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []domain.Category
	e.data(env, &cats)
	require.Len(t, cats, 1)
	assert.EqualValues(t, 1, cats[0].ProductCount)

	rec, env = e.do(http.MethodPut, "/api/admin/categories/"+idStr(cat.ID), e.token, map[string]string{"description": "Camping gear"})
	require.Equal(t, http.StatusOK, rec.Code)
	e.data(env, &cat)
	assert.Equal(t, "Outdoor", cat.Name)
	assert.Equal(t, "Camping gear", cat.Description)

	require.NoError(t, e.db.Model(p).Update("is_active", false).Error)
	rec, _ = e.do(http.MethodDelete, "/api/admin/categories/"+idStr(cat.ID), e.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stored domain.Category
	require.NoError(t, e.db.First(&stored, cat.ID).Error)
	assert.False(t, stored.IsActive)
}
