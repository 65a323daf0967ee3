package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"smart_cycle_market/pkg/encrypt"
	errprocess "smart_cycle_market/pkg/err"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	initOnce sync.Once
)

func instance() *validator.Validate {
	initOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report json names instead of struct field names
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
			return encrypt.ValidatePasswordStrength(fl.Field().String()) == nil
		})
	})
	return validate
}

// Struct validates s, returning a 422 AppError describing the first failing field
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errprocess.Unprocessable(err.Error())
	}
	return errprocess.Unprocessable(message(verrs[0]))
}

// Var validates a single value against tag
func Var(field string, value any, tag string) error {
	err := instance().Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errprocess.Unprocessable(strings.Replace(message(verrs[0]), "Field", field, 1))
	}
	return errprocess.Unprocessable(fmt.Sprintf("Invalid %s!", field))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	if field == "" {
		field = "Field"
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is missing!", field)
	case "email":
		return "Invalid email!"
	case "strongpassword":
		return "Password is too simple!"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long!", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s!", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("Invalid %s!", field)
	case "uuid", "uuid4":
		return fmt.Sprintf("Invalid %s!", field)
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s!", field, fe.Param())
	default:
		return fmt.Sprintf("Invalid %s!", field)
	}
}
