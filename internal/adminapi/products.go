package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/internal/webserver"
	"github.com/talkincode/storefront/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type productPayload struct {
	Name        string           `json:"name" validate:"required,min=1,max=200"`
	Description string           `json:"description" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price"`
	Stock       int              `json:"stock" validate:"min=0"`
	CategoryID  int64            `json:"category_id,string"`
	ImageURL    string           `json:"image_url" validate:"omitempty,max=1024"`
	Featured    bool             `json:"featured"`
	IsActive    *bool            `json:"is_active"`
}

type productUpdatePayload struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,min=0"`
	CategoryID  *string          `json:"category_id"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,max=1024"`
	Featured    *bool            `json:"featured"`
	IsActive    *bool            `json:"is_active"`
}

var productSorts = map[string]string{
	"id":         "id",
	"name":       "name",
	"price":      "price",
	"stock":      "stock",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func registerProductRoutes() {
	webserver.AdminGET("/admin/products", listProducts)
	webserver.AdminGET("/admin/products/:id", getProduct)
	webserver.AdminPOST("/admin/products", createProduct)
	webserver.AdminPUT("/admin/products/:id", updateProduct)
	webserver.AdminDELETE("/admin/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := webserver.LikeAny(GetDB(c).Model(&domain.Product{}), c.QueryParam("q"), "name", "description")
	if v := strings.TrimSpace(c.QueryParam("category")); v != "" {
		categoryID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid category", nil)
		}
		db = db.Where("category_id = ?", categoryID)
	}
	switch c.QueryParam("status") {
	case "active":
		db = db.Where("is_active = ?", true)
	case "inactive":
		db = db.Where("is_active = ?", false)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	var rows []domain.Product
	err := db.Preload("Category").
		Order(webserver.SortClause(c.QueryParam("sort"), c.QueryParam("order"), productSorts, "created_at")).
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func findProduct(c echo.Context) (*domain.Product, error) {
	id, err := webserver.ParseIDParam(c, "id")
	if err != nil {
		return nil, fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Preload("Category").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return &p, nil
}

func getProduct(c echo.Context) error {
	p, err := findProduct(c)
	if p == nil {
		return err
	}
	return ok(c, p)
}

// checkCategory a product may only reference an existing category, 0 means none
func checkCategory(c echo.Context, categoryID int64) bool {
	if categoryID == 0 {
		return true
	}
	var count int64
	GetDB(c).Model(&domain.Category{}).Where("id = ?", categoryID).Count(&count)
	return count > 0
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if handled, err := bind(c, &payload); handled {
		return err
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.Price == nil || payload.Price.IsNegative() {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be zero or more", nil)
	}
	if !checkCategory(c, payload.CategoryID) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Category does not exist", nil)
	}

	now := time.Now()
	p := domain.Product{
		ID:          common.UUIDint64(),
		CategoryID:  payload.CategoryID,
		Name:        payload.Name,
		Description: strings.TrimSpace(payload.Description),
		Price:       payload.Price.Round(2),
		Stock:       payload.Stock,
		ImageURL:    strings.TrimSpace(payload.ImageURL),
		Featured:    payload.Featured,
		IsActive:    payload.IsActive == nil || *payload.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	return created(c, p)
}

// updateProduct only the fields present in the body change
func updateProduct(c echo.Context) error {
	var payload productUpdatePayload
	if handled, err := bind(c, &payload); handled {
		return err
	}
	p, err := findProduct(c)
	if p == nil {
		return err
	}

	updates := map[string]interface{}{}
	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if name == "" {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
		}
		updates["name"] = name
	}
	if payload.Description != nil {
		updates["description"] = strings.TrimSpace(*payload.Description)
	}
	if payload.Price != nil {
		if payload.Price.IsNegative() {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must not be negative", nil)
		}
		updates["price"] = payload.Price.Round(2)
	}
	if payload.Stock != nil {
		updates["stock"] = *payload.Stock
	}
	if payload.CategoryID != nil {
		categoryID, err := strconv.ParseInt(strings.TrimSpace(*payload.CategoryID), 10, 64)
		if err != nil || !checkCategory(c, categoryID) {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Category does not exist", nil)
		}
		updates["category_id"] = categoryID
	}
	if payload.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*payload.ImageURL)
	}
	if payload.Featured != nil {
		updates["featured"] = *payload.Featured
	}
	if payload.IsActive != nil {
		updates["is_active"] = *payload.IsActive
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := GetDB(c).Model(&domain.Product{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
		}
	}
	p, err = findProduct(c)
	if p == nil {
		return err
	}
	return ok(c, p)
}

// deleteProduct deactivates the product and drops it from every cart. Order history keeps
// its own copy of name and price.
func deleteProduct(c echo.Context) error {
	p, err := findProduct(c)
	if p == nil {
		return err
	}
	err = GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Product{}).Where("id = ?", p.ID).
			Updates(map[string]interface{}{"is_active": false, "featured": false, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
		return tx.Where("product_id = ?", p.ID).Delete(&domain.CartItem{}).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	zap.L().Info("product deactivated", zap.Int64("product_id", p.ID), zap.String("namespace", "web"))
	return ok(c, map[string]string{"id": strconv.FormatInt(p.ID, 10)})
}
