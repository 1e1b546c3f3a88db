// Package validators wraps go-playground/validator for echo request binding
// and for entity checks at the store boundary.
package validators

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is shared by every caller; validator caches struct metadata per type.
var v = validator.New()

// CustomValidator plugs the shared validator into echo
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns the echo validator
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return Struct(i)
}

// Struct validates s using its validate tags and flattens the failures into one error
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
