package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"wellnesshub/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("metric_type", func(fl validator.FieldLevel) bool {
		return models.MetricType(fl.Field().String()).IsKnown()
	})
	return v
}

// FieldError describes one failed constraint
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
}

// Error collects every failed constraint of a struct
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed validation: %s", f.Field, f.Tag))
	}
	return strings.Join(msgs, "; ")
}

// ValidateStruct validates a struct using go-playground/validator
func ValidateStruct(s interface{}) error {
	if s == nil {
		return nil
	}

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return fmt.Errorf("validator: expected a struct, got %T", s)
	}

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := &Error{Fields: make([]FieldError, 0, len(ve))}
		for _, e := range ve {
			out.Fields = append(out.Fields, FieldError{Field: e.Field(), Tag: e.Tag()})
		}
		return out
	}
	return fmt.Errorf("validation failed: %w", err)
}
