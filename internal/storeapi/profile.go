package storeapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/storefront/internal/webserver"
)

type profilePayload struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=50"`
}

func registerProfileRoutes() {
	webserver.ApiGET("/users/profile", getProfile)
	webserver.ApiPUT("/users/profile", updateProfile)
}

func getProfile(c echo.Context) error {
	user, err := loadCurrentUser(c)
	if user == nil {
		return err
	}
	return ok(c, user)
}

// updateProfile email and role are not editable here
func updateProfile(c echo.Context) error {
	var payload profilePayload
	if handled, err := webserver.BindAndValidate(c, &payload); handled {
		return err
	}
	user, err := loadCurrentUser(c)
	if user == nil {
		return err
	}
	updates := map[string]interface{}{}
	if payload.FirstName != nil {
		user.FirstName = strings.TrimSpace(*payload.FirstName)
		updates["first_name"] = user.FirstName
	}
	if payload.LastName != nil {
		user.LastName = strings.TrimSpace(*payload.LastName)
		updates["last_name"] = user.LastName
	}
	if payload.Phone != nil {
		user.Phone = strings.TrimSpace(*payload.Phone)
		updates["phone"] = user.Phone
	}
	if len(updates) == 0 {
		return ok(c, user)
	}
	if err := GetDB(c).Model(user).Updates(updates).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update profile", err.Error())
	}
	return ok(c, user)
}
