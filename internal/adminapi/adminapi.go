package adminapi

import (
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/storefront/internal/app"
	"github.com/talkincode/storefront/internal/webserver"
	"gorm.io/gorm"
)

var initOnce sync.Once

// Init registers the /admin routes. Every route requires an ADMIN token.
func Init() {
	initOnce.Do(func() {
		registerProductRoutes()
		registerCategoryRoutes()
		registerOrderRoutes()
		registerUserRoutes()
		registerDashboardRoutes()
		registerSettingsRoutes()
		registerJobRoutes()
		registerSystemRoutes()
	})
}

var (
	ok      = webserver.OK
	created = webserver.Created
	fail    = webserver.Fail
	paged   = webserver.Paged

	parsePagination = webserver.ParsePagination
)

func GetDB(c echo.Context) *gorm.DB {
	return webserver.GetDB(c)
}

func GetAppContext(c echo.Context) app.AppContext {
	return webserver.GetAppContext(c)
}

func bind(c echo.Context, payload interface{}) (bool, error) {
	return webserver.BindAndValidate(c, payload)
}
