package storeapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/internal/webserver"
	"gorm.io/gorm"
)

const defaultFeaturedLimit = 8

var productSorts = map[string]string{
	"name":       "name",
	"price":      "price",
	"created_at": "created_at",
}

func registerCatalogRoutes() {
	webserver.PublicGET("/products", listProducts)
	webserver.PublicGET("/products/featured", listFeaturedProducts)
	webserver.PublicGET("/products/category/:categoryId", listCategoryProducts)
	webserver.PublicGET("/products/:id", getProduct)
	webserver.PublicGET("/categories", listCategories)
	webserver.PublicGET("/categories/:id", getCategory)
}

func activeProducts(c echo.Context) *gorm.DB {
	return GetDB(c).Model(&domain.Product{}).Where("product.is_active = ?", true)
}

func queryProducts(c echo.Context, db *gorm.DB) error {
	page, pageSize := webserver.ParsePagination(c)
	q := c.QueryParam("search")
	if q == "" {
		q = c.QueryParam("q")
	}
	db = webserver.LikeAny(db, q, "product.name", "product.description")

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

func listProducts(c echo.Context) error {
	db := activeProducts(c)
	if v := c.QueryParam("category"); v != "" {
		categoryID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid category", nil)
		}
		db = db.Where("category_id = ?", categoryID)
	}
	return queryProducts(c, db)
}

func listCategoryProducts(c echo.Context) error {
	categoryID, err := webserver.ParseIDParam(c, "categoryId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	return queryProducts(c, activeProducts(c).Where("category_id = ?", categoryID))
}

func listFeaturedProducts(c echo.Context) error {
	limit := defaultFeaturedLimit
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 50 {
		limit = v
	}
	var rows []domain.Product
	err := activeProducts(c).Where("featured = ?", true).
		Preload("Category").
		Order("created_at DESC").Limit(limit).
		Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return ok(c, rows)
}

func getProduct(c echo.Context) error {
	id, err := webserver.ParseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := activeProducts(c).Preload("Category").Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return ok(c, p)
}

// activeProductCounts number of active products per category id
func activeProductCounts(db *gorm.DB) (map[int64]int64, error) {
	var rows []struct {
		CategoryID int64
		Total      int64
	}
	err := db.Model(&domain.Product{}).
		Select("category_id, COUNT(*) AS total").
		Where("is_active = ?", true).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[int64]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Total
	}
	return counts, nil
}

func listCategories(c echo.Context) error {
	var rows []domain.Category
	if err := GetDB(c).Where("is_active = ?", true).Order("name ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	counts, err := activeProductCounts(GetDB(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count products", err.Error())
	}
	for i := range rows {
		rows[i].ProductCount = counts[rows[i].ID]
	}
	return ok(c, rows)
}

func getCategory(c echo.Context) error {
	id, err := webserver.ParseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	var cat domain.Category
	if err := GetDB(c).Where("id = ? AND is_active = ?", id, true).First(&cat).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Category not found", nil)
	}
	if err := activeProducts(c).Where("category_id = ?", id).Count(&cat.ProductCount).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count products", err.Error())
	}
	return ok(c, cat)
}
