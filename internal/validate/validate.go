// Package validate wraps the declarative struct validator and maps its
// failures onto the per-field validation error shape.
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	internal_errors "github.com/authgate-dev/authgate/internal/errors"
	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// New builds a validator with json tag names reported in field errors and
// the custom username rule registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return v
}

// Struct validates s and converts any rule failures into a single
// validation error carrying one entry per offending field.
func Struct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return internal_errors.NewValidation([]internal_errors.FieldError{
			{Field: "body", Message: "could not be validated"},
		})
	}

	fields := make([]internal_errors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, internal_errors.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return internal_errors.NewValidation(fields)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "username":
		return "may only contain letters, digits and underscores"
	default:
		return "is invalid"
	}
}
