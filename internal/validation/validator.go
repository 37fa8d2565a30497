package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"taxsavings-backend/internal/estimate"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

var phoneStripper = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

func New() *Validator {
	v := validator.New()

	// The calculator tags accept exactly what the estimate normalizer accepts,
	// blank optional values included.
	v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := estimate.ParseDate(fl.FieldName(), value)
		return err == nil
	})

	// Accepts the usual US formatting, e.g. "(555) 010-2030".
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return phoneRegex.MatchString(NormalizePhone(value))
	})

	v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := estimate.ParseAmount(fl.FieldName(), value)
		return err == nil
	})

	v.RegisterValidation("percent", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		if strings.TrimSpace(value) == "" {
			return true
		}
		_, err := estimate.ParsePercent(fl.FieldName(), value)
		return err == nil
	})

	v.RegisterValidation("propertytype", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		value = estimate.NormalizePropertyType(value)
		return value == "" || estimate.IsValidPropertyType(value)
	})

	v.RegisterValidation("activity", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		id := strings.ToLower(strings.TrimSpace(value))
		return id == "" || estimate.IsValidActivity(id)
	})

	// Report JSON names in error details so the frontend can map them to inputs.
	v.RegisterTagNameFunc(jsonFieldName)

	return &Validator{v: v}
}

func (v *Validator) Struct(s interface{}) error {
	return v.v.Struct(s)
}

func (v *Validator) Var(field interface{}, tag string) error {
	return v.v.Var(field, tag)
}

func (v *Validator) ValidationErrors(err error) validator.ValidationErrors {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// NormalizePhone strips common separators so "(555) 010-2030" and "5550102030" compare equal.
func NormalizePhone(value string) string {
	return phoneStripper.Replace(strings.TrimSpace(value))
}
