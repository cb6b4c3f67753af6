package enrollments

import (
	"errors"
	"reflect"
	"strings"

	"elearning-access/internal/domain/access"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Errores con el nombre del campo JSON, no el del struct.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("access_duration", func(fl validator.FieldLevel) bool {
		_, err := access.ParseDuration(fl.Field().String())
		return err == nil
	})
	return v
}

// validationMessage arma "field: tag, field: tag" para el body del 400.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+": "+fe.Tag())
	}
	return "invalid request: " + strings.Join(parts, ", ")
}
