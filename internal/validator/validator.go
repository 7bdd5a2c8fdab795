// Package validator
package validator

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Validator interface {
	Validate(data any) map[string]string
}

type DefaultValidator struct {
	validate *validator.Validate
}

func NewValidator() Validator {
	return &DefaultValidator{
		validate: validator.New(),
	}
}

func (v *DefaultValidator) Validate(data any) map[string]string {
	err := v.validate.Struct(data)
	if err == nil {
		return map[string]string{}
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{
			"_error": "invalid payload",
		}
	}

	errors := make(map[string]string)

	for _, e := range validationErrors {
		field := v.resolveFieldName(data, e)
		errors[field] = v.messageFor(field, e)
	}

	return errors
}

func (v *DefaultValidator) messageFor(field string, e validator.FieldError) string {
	messages := map[string]func(validator.FieldError) string{
		"required": func(e validator.FieldError) string {
			return fmt.Sprintf("%s is required", field)
		},
		"url": func(e validator.FieldError) string {
			return fmt.Sprintf("%s must be a valid URL", field)
		},
		"min": func(e validator.FieldError) string {
			return fmt.Sprintf("%s must have at least %s entries", field, e.Param())
		},
	}

	if msg, ok := messages[e.Tag()]; ok {
		return msg(e)
	}

	return fmt.Sprintf("%s is invalid", field)
}

// resolveFieldName maps the failing field to its JSON name, walking
// nested structs so "Repository.CloneURL" becomes "repository.clone_url".
func (v *DefaultValidator) resolveFieldName(data any, e validator.FieldError) string {
	t := reflect.TypeOf(data)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	ns := strings.Split(e.StructNamespace(), ".")
	if len(ns) > 1 {
		ns = ns[1:]
	}

	names := make([]string, 0, len(ns))
	for _, part := range ns {
		name := strings.ToLower(part)
		index := ""
		if i := strings.IndexByte(part, '['); i >= 0 {
			part, index = part[:i], part[i:]
			name = strings.ToLower(part)
		}

		if t != nil && t.Kind() == reflect.Struct {
			if f, ok := t.FieldByName(part); ok {
				if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
					name = strings.Split(tag, ",")[0]
				}
				t = f.Type
				for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
					t = t.Elem()
				}
			} else {
				t = nil
			}
		}

		names = append(names, name+index)
	}

	return strings.Join(names, ".")
}

// Summary flattens validation errors into one deterministic line.
func Summary(errors map[string]string) string {
	keys := make([]string, 0, len(errors))
	for k := range errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, errors[k])
	}
	return strings.Join(msgs, "; ")
}
