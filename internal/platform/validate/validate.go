// Package validate checks request DTOs with struct tags and cleans free text.
// Failures come back as apperr validation errors whose details list one
// message per offending field.
package validate

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
)

const failedMessage = "Validation failed"

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form", "query"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return val
}

// Struct validates s and converts failures into an apperr validation error.
// A top-level field may carry a msg tag that replaces the generated message.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("validate request", err)
	}
	t := reflect.Indirect(reflect.ValueOf(s)).Type()
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if f, ok := t.FieldByName(fe.StructField()); ok && f.Tag.Get("msg") != "" {
			details = append(details, f.Tag.Get("msg"))
			continue
		}
		details = append(details, message(fe))
	}
	return apperr.Validation(failedMessage, details...)
}

// Decode binds the request into dst without validating it. A body cut off
// by the size limit surfaces as 413 rather than a malformed body.
func Decode(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		if tooLarge(err) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large")
		}
		return apperr.Validation("Invalid request body")
	}
	return nil
}

// tooLarge walks err and the errors echo wraps inside HTTPError.Internal
// looking for a 413.
func tooLarge(err error) bool {
	for err != nil {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			return false
		}
		if he.Code == http.StatusRequestEntityTooLarge {
			return true
		}
		err = he.Internal
	}
	return false
}

// Bind decodes the request into dst and validates it.
func Bind(c echo.Context, dst any) error {
	if err := Decode(c, dst); err != nil {
		return err
	}
	return Struct(dst)
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid id", field)
	case "datetime":
		return fmt.Sprintf("%s must be a valid ISO 8601 timestamp", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// ParamUUID parses the named path parameter as a uuid.
func ParamUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid " + name)
	}
	return id, nil
}
