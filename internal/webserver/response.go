package webserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/storefront/internal/app"
	"gorm.io/gorm"
)

const appContextKey = "appctx"

// Response success envelope
type Response struct {
	Data interface{} `json:"data"`
}

// ErrorResponse error envelope with a stable upper-snake code
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

type PagedResponse struct {
	Data interface{} `json:"data"`
	Meta PageMeta    `json:"meta"`
}

func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Data: data})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Data: data})
}

// Fail writes the error envelope. detail is always an object; a bare string is
// wrapped as {"error": "..."}.
func Fail(c echo.Context, status int, code, message string, detail interface{}) error {
	if s, ok := detail.(string); ok {
		detail = map[string]string{"error": s}
	}
	return c.JSON(status, ErrorResponse{Code: code, Message: message, Detail: detail})
}

func Paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, PagedResponse{
		Data: rows,
		Meta: PageMeta{Total: total, Page: page, PageSize: pageSize},
	})
}

// ParsePagination reads page and page_size (or limit), defaulting to 1 and 10
func ParsePagination(c echo.Context) (page, pageSize int) {
	page, pageSize = 1, 10
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	ps := c.QueryParam("page_size")
	if ps == "" {
		ps = c.QueryParam("limit")
	}
	if v, err := strconv.Atoi(ps); err == nil && v > 0 {
		pageSize = v
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func ParseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(appContextKey).(app.AppContext)
}

func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB().WithContext(c.Request().Context())
}

// errorHandler renders echo and unexpected errors in the standard envelope
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}
	code := "INTERNAL_ERROR"
	switch status {
	case http.StatusNotFound:
		code = "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		code = "METHOD_NOT_ALLOWED"
	case http.StatusUnauthorized:
		code = "UNAUTHORIZED"
	case http.StatusRequestEntityTooLarge:
		code = "PAYLOAD_TOO_LARGE"
	case http.StatusBadRequest:
		code = "INVALID_REQUEST"
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = Fail(c, status, code, msg, nil)
}
