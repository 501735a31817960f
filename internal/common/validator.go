package common

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

type ValidationError struct {
	Errors map[string]string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %+v", e.Errors)
}

// Fields returns the names of the failing fields in sorted order.
func (e ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

type Validator struct {
	Errors map[string]string
}

func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	if _, ok := v.Errors[field]; !ok {
		v.Errors[field] = message
	}
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

func (v *Validator) CheckStringLength(s string, min, max int) bool {
	return len(s) >= min && len(s) <= max
}

// Require records a "must be provided" error for every missing field.
func (v *Validator) Require(fields map[string]any) {
	for _, f := range MissingFields(fields) {
		v.AddError(f, "must be provided")
	}
}

func (v *Validator) ValidationError() error {
	return ValidationError{Errors: v.Errors}
}

// MissingFields reports the sorted names of the fields whose value is nil, a nil pointer,
// or a string (or *string) that is empty after trimming whitespace.
func MissingFields(fields map[string]any) []string {
	var missing []string
	for name, value := range fields {
		if isBlank(value) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}

	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case *string:
		return v == nil || strings.TrimSpace(*v) == ""
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return true
		}
		if rv.Kind() == reflect.Pointer {
			return isBlank(rv.Elem().Interface())
		}
	}

	return false
}
