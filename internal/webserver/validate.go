package webserver

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// requestValidator plugs go-playground/validator into echo's c.Validate
type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{v: v}
}

func (r *requestValidator) Validate(i interface{}) error {
	return r.v.Struct(i)
}

// FieldErrors flattens validator errors into field -> rule
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return out
	}
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}
	return out
}

// BindAndValidate decodes the body into payload and runs its validate tags.
// On failure the 400 response has already been written and handled is true.
func BindAndValidate(c echo.Context, payload interface{}) (handled bool, err error) {
	if err := c.Bind(payload); err != nil {
		return true, Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request body", nil)
	}
	if err := c.Validate(payload); err != nil {
		return true, Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Validation failed", FieldErrors(err))
	}
	return false, nil
}
