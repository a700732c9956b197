package storeapi

import (
	"github.com/labstack/echo/v4"
	"github.com/talkincode/storefront/internal/webserver"
)

func registerSettingsRoutes() {
	webserver.PublicGET("/settings", getPublicSettings)
}

func getPublicSettings(c echo.Context) error {
	return ok(c, webserver.GetAppContext(c).ConfigMgr().StoreSettings())
}
