package httpx

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/brandstock/internal/shared"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared payload validator. Field names in errors use
// the json tag of the field.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct validates payload and converts the first failure to a field error.
func ValidateStruct(payload any) error {
	err := Validator().Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return shared.NewFieldError(shared.ErrValidation, "", shared.CodeInvalid, err.Error())
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return shared.Required(fe.Field())
	}
	return shared.NewFieldError(shared.ErrValidation, fe.Field(), shared.CodeInvalid,
		fe.Field()+" failed "+fe.Tag()+" validation")
}

// BadBody converts a JSON decode failure to a validation error.
func BadBody(err error) error {
	return shared.NewFieldError(shared.ErrValidation, "", shared.CodeInvalid, "invalid request body: "+err.Error())
}
