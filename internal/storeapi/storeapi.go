package storeapi

import (
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/storefront/internal/webserver"
	"gorm.io/gorm"
)

var initOnce sync.Once

// Init registers the customer and public routes. Call before webserver.NewServer.
func Init() {
	initOnce.Do(func() {
		registerAuthRoutes()
		registerProfileRoutes()
		registerCatalogRoutes()
		registerCartRoutes()
		registerOrderRoutes()
		registerSettingsRoutes()
	})
}

var (
	ok      = webserver.OK
	created = webserver.Created
	fail    = webserver.Fail
	paged   = webserver.Paged
)

func GetDB(c echo.Context) *gorm.DB {
	return webserver.GetDB(c)
}

func currentUser(c echo.Context) webserver.CurrentUser {
	user, _ := webserver.GetCurrentUser(c)
	return user
}
