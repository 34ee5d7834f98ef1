package transport

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/taskhub/domain"
)

const (
	msgRequired     = "This field is required."
	msgBlank        = "This field may not be blank."
	msgInvalidEmail = "Enter a valid email address."
	msgInvalidDate  = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	msgInvalidValue = "Invalid value."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// notblank rejects values made only of whitespace.
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("source", func(fl validator.FieldLevel) bool {
		return domain.IsKnownSource(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// checkFields runs the struct tags of req and records each failure on v under
// the field's JSON name, in declaration order.
func checkFields(v *domain.ValidationError, req any) {
	err := validate.Struct(req)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.Add(domain.NonFieldErrors, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		v.Add(fe.Field(), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "notblank":
		return msgBlank
	case "email":
		return msgInvalidEmail
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "oneof", "source":
		return `"` + fieldString(fe.Value()) + `" is not a valid choice.`
	case "datetime":
		return msgInvalidDate
	}
	return msgInvalidValue
}

func fieldString(value any) string {
	switch s := value.(type) {
	case string:
		return s
	case *string:
		if s != nil {
			return *s
		}
	}
	return ""
}
