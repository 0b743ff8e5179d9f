// Package validator checks request structs with go-playground/validator and
// reports failures per client-facing field name.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}()

// ValidationError maps field names to what is wrong with them.
type ValidationError struct {
	fields map[string]string
}

// NewFieldError builds a ValidationError for a single field.
func NewFieldError(field, message string) *ValidationError {
	return (&ValidationError{}).Add(field, message)
}

// Add records message for field, replacing any earlier message for it.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.fields == nil {
		e.fields = make(map[string]string)
	}
	e.fields[field] = message
	return e
}

// Fields returns a copy of the field messages.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.fields))
	for name := range e.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, len(names))
	for i, name := range names {
		msgs[i] = fmt.Sprintf("field '%s' %s", name, e.fields[name])
	}
	return strings.Join(msgs, "; ")
}

// Validate checks s against its validate tags. Tag failures come back as a
// *ValidationError keyed by json field name.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	valErr := &ValidationError{}
	for _, fe := range fieldErrs {
		valErr.Add(fe.Field(), describe(fe))
	}
	return valErr
}

func describe(fe validator.FieldError) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + p + " characters"
	case "max":
		return "must be at most " + p + " characters"
	case "gte":
		return "must be greater than or equal to " + p
	case "lte":
		return "must be less than or equal to " + p
	case "oneof":
		return "must be one of: " + p
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
