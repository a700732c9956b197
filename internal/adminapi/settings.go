package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/storefront/internal/webserver"
)

func registerSettingsRoutes() {
	webserver.AdminGET("/admin/settings", getSettings)
	webserver.AdminPUT("/admin/settings", updateSettings)
}

func getSettings(c echo.Context) error {
	return ok(c, GetAppContext(c).ConfigMgr().StoreSettings())
}

// updateSettings partial update; unknown keys are rejected
func updateSettings(c echo.Context) error {
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil || len(payload) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse settings", nil)
	}
	settings, err := GetAppContext(c).ConfigMgr().SaveStoreSettings(payload)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid settings", err.Error())
	}
	return ok(c, settings)
}
