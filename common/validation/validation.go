package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	cartIDMin = 8
	cartIDMax = 64
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their json names so problems line up with the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("cartid", isCartID)
	return v
}

// isCartID accepts client-generated session ids: letters, digits, '-' and '_'.
func isCartID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if len(id) < cartIDMin || len(id) > cartIDMax {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// Struct validates s against its `validate` tags and returns a field -> message
// map. An empty map means s is valid.
func Struct(s any) map[string]string {
	return Problems(validate.Struct(s))
}

// CartID reports whether id is a well-formed cart session id.
func CartID(id string) bool {
	return validate.Var(id, "required,cartid") == nil
}

// Problems turns validator errors into field messages. Errors that are not
// validation failures are reported under "_".
func Problems(err error) map[string]string {
	problems := map[string]string{}
	if err == nil {
		return problems
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		problems["_"] = err.Error()
		return problems
	}
	for _, fe := range fieldErrs {
		if _, seen := problems[fe.Field()]; !seen {
			problems[fe.Field()] = message(fe)
		}
	}
	return problems
}

func message(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "min", "gte":
		return label + " must be at least " + fe.Param()
	case "max", "lte":
		return label + " must be at most " + fe.Param()
	default:
		return label + " is invalid"
	}
}
