// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package validation wraps go-playground/validator v10 for API requests and
// configuration.
//
// One validator instance is shared process-wide. Failures are reported by
// json (or koanf) field path, e.g. "user_id" or "scenes[home][0].weight",
// and carry a readable message for the VALIDATION_ERROR response.
//
// Custom tags:
//   - identifier: user, item, category and scene IDs
//   - event_kind: view, click, add_to_cart or purchase
//
// Example:
//
//	if errs := validation.ValidateStruct(&req); errs != nil {
//	    apiErr := errs.ToAPIError()
//	    ...
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// identifierPattern matches user, item, category and scene identifiers.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:\-]{0,127}$`)

// eventKinds mirrors recommend.AllEventKinds without importing it.
var eventKinds = map[string]struct{}{
	"view":        {},
	"click":       {},
	"add_to_cart": {},
	"purchase":    {},
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// Errors holds every failure from one validation call.
type Errors []FieldError

// Error joins the messages.
func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e))
	for i := range e {
		messages[i] = e[i].Message
	}
	return strings.Join(messages, "; ")
}

// APIError is the error payload handed to the API layer.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError converts the failures to the API error format. A single
// failure is reported flat; several are listed under "fields".
func (e Errors) ToAPIError() *APIError {
	apiErr := &APIError{Code: "VALIDATION_ERROR", Message: e.Error()}

	switch len(e) {
	case 0:
	case 1:
		apiErr.Details = map[string]interface{}{"field": e[0].Field, "tag": e[0].Tag}
	default:
		fields := make([]map[string]interface{}, len(e))
		for i := range e {
			fields[i] = map[string]interface{}{
				"field":   e[i].Field,
				"tag":     e[i].Tag,
				"message": e[i].Message,
			}
		}
		apiErr.Details = map[string]interface{}{"fields": fields}
	}
	return apiErr
}

// GetValidator returns the shared validator with the custom tags registered.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)

		// Registration only fails for empty tags or nil funcs.
		_ = validate.RegisterValidation("event_kind", func(fl validator.FieldLevel) bool {
			_, ok := eventKinds[fl.Field().String()]
			return ok
		})
		_ = validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
			return identifierPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// jsonFieldName reports fields by their json (or koanf) tag name.
func jsonFieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "koanf"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// ValidateStruct validates s and returns nil when every rule passes.
func ValidateStruct(s interface{}) Errors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Field: "unknown", Tag: "unknown", Message: err.Error()}}
	}

	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		field := fieldPath(fe)
		out[i] = FieldError{Field: field, Tag: fe.Tag(), Message: message(fe, field)}
	}
	return out
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(fe validator.FieldError, field string) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "identifier":
		return field + " must be an identifier of letters, digits, '_', '-', '.' or ':' (max 128)"
	case "event_kind":
		return field + " must be one of: view, click, add_to_cart, purchase"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		unit := ""
		switch fe.Kind() {
		case reflect.String:
			unit = " characters"
		case reflect.Slice, reflect.Map:
			unit = " entries"
		}
		return fmt.Sprintf("%s must be %s %s%s", field, bound, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
