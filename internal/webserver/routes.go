package webserver

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

type access int

const (
	accessPublic access = iota
	accessUser
	accessAdmin
)

type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
	access  access
}

var (
	routesMu sync.Mutex
	routes   []route
)

func addRoute(method, path string, h echo.HandlerFunc, a access) {
	routesMu.Lock()
	defer routesMu.Unlock()
	routes = append(routes, route{method: method, path: path, handler: h, access: a})
}

func registeredRoutes() []route {
	routesMu.Lock()
	defer routesMu.Unlock()
	return append([]route(nil), routes...)
}

// Public routes, no token required. Paths are relative to /api.
func PublicGET(path string, h echo.HandlerFunc)  { addRoute(http.MethodGet, path, h, accessPublic) }
func PublicPOST(path string, h echo.HandlerFunc) { addRoute(http.MethodPost, path, h, accessPublic) }

// Api routes require a valid bearer token.
func ApiGET(path string, h echo.HandlerFunc)    { addRoute(http.MethodGet, path, h, accessUser) }
func ApiPOST(path string, h echo.HandlerFunc)   { addRoute(http.MethodPost, path, h, accessUser) }
func ApiPUT(path string, h echo.HandlerFunc)    { addRoute(http.MethodPut, path, h, accessUser) }
func ApiDELETE(path string, h echo.HandlerFunc) { addRoute(http.MethodDelete, path, h, accessUser) }

// Admin routes require a token with the ADMIN role.
func AdminGET(path string, h echo.HandlerFunc)    { addRoute(http.MethodGet, path, h, accessAdmin) }
func AdminPOST(path string, h echo.HandlerFunc)   { addRoute(http.MethodPost, path, h, accessAdmin) }
func AdminPUT(path string, h echo.HandlerFunc)    { addRoute(http.MethodPut, path, h, accessAdmin) }
func AdminDELETE(path string, h echo.HandlerFunc) { addRoute(http.MethodDelete, path, h, accessAdmin) }
