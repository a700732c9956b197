package webserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/talkincode/storefront/internal/app"
	"go.uber.org/zap"
)

var (
	promOnce       sync.Once
	promMiddleware echo.MiddlewareFunc
)

// prometheus collectors register globally, so every server shares one middleware
func metricsMiddleware() echo.MiddlewareFunc {
	promOnce.Do(func() {
		promMiddleware = echoprometheus.NewMiddleware("storefront")
	})
	return promMiddleware
}

type Server struct {
	root   *echo.Echo
	appCtx app.AppContext
}

// NewServer builds the echo instance and mounts every registered route under /api
func NewServer(appCtx app.AppContext) *Server {
	cfg := appCtx.Config()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = errorHandler
	e.Validator = newRequestValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/api/health"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("namespace", "http"),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			if v.Status >= http.StatusInternalServerError {
				zap.L().Error("request", fields...)
			} else {
				zap.L().Debug("request", fields...)
			}
			return nil
		},
	}))
	origins := []string{"*"}
	if cfg.Web.FrontendURL != "" {
		origins = strings.Split(cfg.Web.FrontendURL, ",")
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit("10M"))
	e.Use(metricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appContextKey, appCtx)
			return next(c)
		}
	})

	e.GET("/metrics", echoprometheus.NewHandler())
	e.Static("/uploads", cfg.GetUploadDir())

	api := e.Group("/api")
	api.GET("/health", health)

	auth := jwtMiddleware(cfg.Web.Secret)
	for _, r := range registeredRoutes() {
		switch r.access {
		case accessPublic:
			api.Add(r.method, r.path, r.handler)
		case accessUser:
			api.Add(r.method, r.path, r.handler, auth)
		case accessAdmin:
			api.Add(r.method, r.path, r.handler, auth, requireAdmin)
		}
	}

	return &Server{root: e, appCtx: appCtx}
}

// Echo exposes the router, mainly for httptest
func (s *Server) Echo() *echo.Echo {
	return s.root
}

// Start blocks until the server stops. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	cfg := s.appCtx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.S().Infof("Prepare to start the storefront web server %s", addr)
	return s.root.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

func health(c echo.Context) error {
	sqlDB, err := GetAppContext(c).DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		return Fail(c, http.StatusServiceUnavailable, "DATABASE_ERROR", "Database unavailable", err.Error())
	}
	return OK(c, map[string]string{"status": "ok"})
}
