package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/internal/webserver"
	"github.com/talkincode/storefront/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type rolePayload struct {
	Role string `json:"role" validate:"required,oneof=ADMIN CUSTOMER"`
}

var userSorts = map[string]string{
	"email":      "email",
	"created_at": "created_at",
	"last_login": "last_login",
}

func registerUserRoutes() {
	webserver.AdminGET("/admin/users", listUsers)
	webserver.AdminPUT("/admin/users/:id/role", updateUserRole)
	webserver.AdminDELETE("/admin/users/:id", deleteUser)
}

func listUsers(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := webserver.LikeAny(GetDB(c).Model(&domain.ShopUser{}), c.QueryParam("q"), "email", "first_name", "last_name")
	if role := strings.ToUpper(strings.TrimSpace(c.QueryParam("role"))); role != "" {
		db = db.Where("role = ?", role)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	var rows []domain.ShopUser
	err := db.Order(webserver.SortClause(c.QueryParam("sort"), c.QueryParam("order"), userSorts, "created_at")).
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func findUser(c echo.Context) (*domain.ShopUser, error) {
	id, err := webserver.ParseIDParam(c, "id")
	if err != nil {
		return nil, fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var user domain.ShopUser
	if err := GetDB(c).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, fail(c, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	}
	return &user, nil
}

// updateUserRole takes effect on the user's next token refresh or login
func updateUserRole(c echo.Context) error {
	var payload rolePayload
	if handled, err := bind(c, &payload); handled {
		return err
	}
	user, err := findUser(c)
	if user == nil {
		return err
	}
	if admin, _ := webserver.GetCurrentUser(c); admin.ID == user.ID {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Cannot change your own role", nil)
	}
	if err := GetDB(c).Model(user).Update("role", payload.Role).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update role", err.Error())
	}
	user.Role = payload.Role
	zap.L().Info("user role changed",
		zap.Int64("user_id", user.ID),
		zap.String("role", payload.Role),
		zap.String("namespace", "web"))
	return ok(c, user)
}

// deleteUser removes the account and its cart. Orders are kept for bookkeeping.
func deleteUser(c echo.Context) error {
	user, err := findUser(c)
	if user == nil {
		return err
	}
	if admin, _ := webserver.GetCurrentUser(c); admin.ID == user.ID {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Cannot delete your own account", nil)
	}
	err = GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.ShopUser{}, user.ID).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete user", err.Error())
	}
	return ok(c, map[string]interface{}{"id": strconv.FormatInt(user.ID, 10), "admin": common.IsAdmin(user.Role)})
}
