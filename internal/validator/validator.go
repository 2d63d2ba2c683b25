// Package validator wraps go-playground/validator for request bodies and
// configuration structs.
package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator satisfies echo.Validator. Field names in errors use the
// json (or param, or mapstructure) tag rather than the Go field name.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// Create builds a CustomValidator.
func Create() *CustomValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"param", "json", "mapstructure"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})

	return &CustomValidator{validator: validate}
}
