package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/internal/webserver"
	"github.com/talkincode/storefront/pkg/common"
)

type categoryPayload struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	IconName    string `json:"icon_name" validate:"omitempty,max=64"`
	IconURL     string `json:"icon_url" validate:"omitempty,max=1024"`
}

type categoryUpdatePayload struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	IconName    *string `json:"icon_name" validate:"omitempty,max=64"`
	IconURL     *string `json:"icon_url" validate:"omitempty,max=1024"`
	IsActive    *bool   `json:"is_active"`
}

func registerCategoryRoutes() {
	webserver.AdminGET("/admin/categories", listCategories)
	webserver.AdminGET("/admin/categories/:id", getCategory)
	webserver.AdminPOST("/admin/categories", createCategory)
	webserver.AdminPUT("/admin/categories/:id", updateCategory)
	webserver.AdminDELETE("/admin/categories/:id", deleteCategory)
}

// productCounts all products per category, active or not
func productCounts(c echo.Context, ids []int64) (map[int64]int64, error) {
	var rows []struct {
		CategoryID int64
		Total      int64
	}
	err := GetDB(c).Model(&domain.Product{}).
		Select("category_id, COUNT(*) AS total").
		Where("category_id IN ?", ids).
		Group("category_id").
		Scan(&rows).Error
	counts := make(map[int64]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Total
	}
	return counts, err
}

func listCategories(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := webserver.LikeAny(GetDB(c).Model(&domain.Category{}), c.QueryParam("q"), "name")

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	var rows []domain.Category
	if err := db.Order("name ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	if len(rows) > 0 {
		ids := make([]int64, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
		}
		counts, err := productCounts(c, ids)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count products", err.Error())
		}
		for i := range rows {
			rows[i].ProductCount = counts[rows[i].ID]
		}
	}
	return paged(c, rows, total, page, pageSize)
}

func findCategory(c echo.Context) (*domain.Category, error) {
	id, err := webserver.ParseIDParam(c, "id")
	if err != nil {
		return nil, fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	var cat domain.Category
	if err := GetDB(c).Where("id = ?", id).First(&cat).Error; err != nil {
		return nil, fail(c, http.StatusNotFound, "NOT_FOUND", "Category not found", nil)
	}
	return &cat, nil
}

func getCategory(c echo.Context) error {
	cat, err := findCategory(c)
	if cat == nil {
		return err
	}
	if err := GetDB(c).Model(&domain.Product{}).Where("category_id = ?", cat.ID).Count(&cat.ProductCount).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count products", err.Error())
	}
	return ok(c, cat)
}

func categoryNameTaken(c echo.Context, name string, exceptID int64) bool {
	var count int64
	GetDB(c).Model(&domain.Category{}).Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), exceptID).Count(&count)
	return count > 0
}

func createCategory(c echo.Context) error {
	var payload categoryPayload
	if handled, err := bind(c, &payload); handled {
		return err
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if categoryNameTaken(c, name, 0) {
		return fail(c, http.StatusConflict, "CATEGORY_EXISTS", "Category name already exists", nil)
	}
	now := time.Now()
	cat := domain.Category{
		ID:          common.UUIDint64(),
		Name:        name,
		Description: strings.TrimSpace(payload.Description),
		IconName:    strings.TrimSpace(payload.IconName),
		IconURL:     strings.TrimSpace(payload.IconURL),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := GetDB(c).Create(&cat).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create category", err.Error())
	}
	return created(c, cat)
}

func updateCategory(c echo.Context) error {
	var payload categoryUpdatePayload
	if handled, err := bind(c, &payload); handled {
		return err
	}
	cat, err := findCategory(c)
	if cat == nil {
		return err
	}
	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if name == "" {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
		}
		if categoryNameTaken(c, name, cat.ID) {
			return fail(c, http.StatusConflict, "CATEGORY_EXISTS", "Category name already exists", nil)
		}
		cat.Name = name
	}
	if payload.Description != nil {
		cat.Description = strings.TrimSpace(*payload.Description)
	}
	if payload.IconName != nil {
		cat.IconName = strings.TrimSpace(*payload.IconName)
	}
	if payload.IconURL != nil {
		cat.IconURL = strings.TrimSpace(*payload.IconURL)
	}
	if payload.IsActive != nil {
		cat.IsActive = *payload.IsActive
	}
	cat.UpdatedAt = time.Now()
	if err := GetDB(c).Save(cat).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update category", err.Error())
	}
	return ok(c, cat)
}

// deleteCategory deactivates the category. Refused while active products still use it.
func deleteCategory(c echo.Context) error {
	cat, err := findCategory(c)
	if cat == nil {
		return err
	}
	var inUse int64
	if err := GetDB(c).Model(&domain.Product{}).Where("category_id = ? AND is_active = ?", cat.ID, true).Count(&inUse).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count products", err.Error())
	}
	if inUse > 0 {
		return fail(c, http.StatusConflict, "CATEGORY_IN_USE", "Category still has active products", map[string]int64{"active_products": inUse})
	}
	if err := GetDB(c).Model(cat).Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete category", err.Error())
	}
	return ok(c, map[string]string{"id": strconv.FormatInt(cat.ID, 10)})
}
