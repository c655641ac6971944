package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/tagged-snippets/internal/apperror"
)

// validate is shared by every service. A *validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report the JSON name ("tag_title") instead of the Go name ("TagTitle")
	// so the field in the error matches what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs the validate:"..." rules on in and converts the first
// failure into an apperror validation error.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validating input: %w", err)
	}

	fe := verrs[0]
	return apperror.ValidationFailed(fe.Field(), fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s: This field is required.", fe.Field())
	case "max":
		return fmt.Sprintf("%s: Ensure this field has no more than %s characters.", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s: Enter a valid email address.", fe.Field())
	default:
		return fmt.Sprintf("%s: This field is invalid.", fe.Field())
	}
}
