// Package validate binds request bodies and checks them with
// go-playground/validator, converting failures into the field -> messages
// map carried by apierror.Validation.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/clinicemr/api/internal/platform/apierror"
)

var v *validator.Validate

func init() {
	v = validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

// Struct validates s and returns an *apierror.Error of kind ValidationFailed
// when any rule fails.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierror.Internal(err)
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fieldPath(fe)
		fields[name] = append(fields[name], message(name, fe))
	}
	return apierror.Validation(fields)
}

// Bind decodes the request into dst and validates it. Malformed bodies are
// reported as a validation failure on the "body" field.
func Bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return apierror.Field("body", "The request body is malformed.")
	}
	return Struct(dst)
}

// EchoValidator adapts Struct to echo.Validator.
type EchoValidator struct{}

func (EchoValidator) Validate(i interface{}) error {
	return Struct(i)
}

// fieldPath drops the top-level struct name from the namespace so nested
// fields read "items[0].drug".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(field string, fe validator.FieldError) string {
	label := strings.ReplaceAll(field, "_", " ")
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", label)
	case "uuid", "uuid4":
		return fmt.Sprintf("The %s must be a valid UUID.", label)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("The %s must be at least %s.", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s may not be greater than %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("The %s may not be greater than %s.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid. Allowed: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("The %s does not match the format %s.", label, fe.Param())
	case "gte", "gt":
		return fmt.Sprintf("The %s must be greater than or equal to %s.", label, fe.Param())
	case "lte", "lt":
		return fmt.Sprintf("The %s must be less than or equal to %s.", label, fe.Param())
	case "e164":
		return fmt.Sprintf("The %s must be a valid phone number.", label)
	case "url":
		return fmt.Sprintf("The %s must be a valid URL.", label)
	default:
		return fmt.Sprintf("The %s is invalid.", label)
	}
}
