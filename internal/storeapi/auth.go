package storeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/internal/webserver"
	"github.com/talkincode/storefront/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type registerPayload struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=128"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=50"`
}

type loginPayload struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordPayload struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=128"`
}

// authResult returned by register, login and refresh
type authResult struct {
	User  *domain.ShopUser `json:"user"`
	Token string           `json:"token"`
}

func registerAuthRoutes() {
	webserver.PublicPOST("/auth/register", register)
	webserver.PublicPOST("/auth/login", login)
	webserver.ApiGET("/auth/verify", verifyToken)
	webserver.ApiPOST("/auth/refresh", refreshToken)
	webserver.ApiPOST("/auth/change-password", changePassword)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func issueToken(c echo.Context, user *domain.ShopUser) (string, error) {
	cfg := webserver.GetAppContext(c).Config()
	expire := time.Duration(cfg.Web.TokenExpire) * time.Hour
	if expire <= 0 {
		expire = 24 * time.Hour
	}
	return webserver.IssueToken(cfg.Web.Secret, webserver.CurrentUser{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	}, expire)
}

func register(c echo.Context) error {
	var payload registerPayload
	if handled, err := webserver.BindAndValidate(c, &payload); handled {
		return err
	}
	email := normalizeEmail(payload.Email)

	var count int64
	if err := GetDB(c).Model(&domain.ShopUser{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	if count > 0 {
		return fail(c, http.StatusConflict, "USER_EXISTS", "User already exists", nil)
	}

	hashed, err := common.HashPassword(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to hash password", nil)
	}
	user := &domain.ShopUser{
		ID:        common.UUIDint64(),
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(payload.FirstName),
		LastName:  strings.TrimSpace(payload.LastName),
		Phone:     strings.TrimSpace(payload.Phone),
		Role:      common.RoleCustomer,
		LastLogin: time.Now(),
	}
	if err := GetDB(c).Create(user).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user", err.Error())
	}
	token, err := issueToken(c, user)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", nil)
	}
	zap.L().Info("customer registered", zap.Int64("user_id", user.ID), zap.String("namespace", "web"))
	return created(c, authResult{User: user, Token: token})
}

func login(c echo.Context) error {
	var payload loginPayload
	if handled, err := webserver.BindAndValidate(c, &payload); handled {
		return err
	}
	var user domain.ShopUser
	err := GetDB(c).Where("email = ?", normalizeEmail(payload.Email)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	if err != nil || !common.CheckPassword(user.Password, payload.Password) {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials", nil)
	}

	user.LastLogin = time.Now()
	if err := GetDB(c).Model(&user).UpdateColumn("last_login", user.LastLogin).Error; err != nil {
		zap.S().Warnf("update last login for %d: %v", user.ID, err)
	}
	token, err := issueToken(c, &user)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", nil)
	}
	return ok(c, authResult{User: &user, Token: token})
}

// loadCurrentUser the account behind the token; a deleted account is treated as unauthenticated
func loadCurrentUser(c echo.Context) (*domain.ShopUser, error) {
	var user domain.ShopUser
	err := GetDB(c).Where("id = ?", currentUser(c).ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Account no longer exists", nil)
	}
	if err != nil {
		return nil, fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", err.Error())
	}
	return &user, nil
}

func verifyToken(c echo.Context) error {
	user, err := loadCurrentUser(c)
	if user == nil {
		return err
	}
	return ok(c, user)
}

// refreshToken reissues with the current role, so a role change takes effect here
func refreshToken(c echo.Context) error {
	user, err := loadCurrentUser(c)
	if user == nil {
		return err
	}
	token, err := issueToken(c, user)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", nil)
	}
	return ok(c, authResult{User: user, Token: token})
}

func changePassword(c echo.Context) error {
	var payload changePasswordPayload
	if handled, err := webserver.BindAndValidate(c, &payload); handled {
		return err
	}
	user, err := loadCurrentUser(c)
	if user == nil {
		return err
	}
	if !common.CheckPassword(user.Password, payload.CurrentPassword) {
		return fail(c, http.StatusBadRequest, "INVALID_PASSWORD", "Current password is incorrect", nil)
	}
	hashed, err := common.HashPassword(payload.NewPassword)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to hash password", nil)
	}
	if err := GetDB(c).Model(user).Update("password", hashed).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update password", err.Error())
	}
	return ok(c, map[string]string{"message": "Password updated"})
}
