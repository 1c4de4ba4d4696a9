// Package validation holds the user field rules shared by the API and the
// web frontend.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"user-management-app/internal/apperror"
)

// Messages shown for each failing field.
var Messages = map[string]string{
	"id":    "ID is required",
	"name":  "Name is required",
	"email": "Please input the right email",
}

// Validator implements echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports fields by their json name.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate checks i against its validate tags. Failures are returned as an
// apperror Validation error with one message per field.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Internal(err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := Messages[fe.Field()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		fields[fe.Field()] = msg
	}
	return apperror.Validation("invalid user", fields)
}

// Fields returns the per-field messages carried by err, or nil.
func Fields(err error) map[string]string {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
