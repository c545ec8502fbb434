// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/bouldhq/fitrec/internal/recommend"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError is a single field failure with structured detail.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the struct field that failed.
func (e *ValidationError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string { return e.tag }

// Param returns the tag parameter, e.g. "250" for "max=250".
func (e *ValidationError) Param() string { return e.param }

// Value returns the offending value.
func (e *ValidationError) Value() interface{} { return e.value }

// Error returns the human-readable message.
func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects the field failures of one request.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the individual field failures.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

// Error implements error with all messages joined.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	var messages []string
	for _, err := range ve.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// APIError mirrors the API layer's error envelope so handlers can
// respond without another translation step.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError flattens the failures into a single API error.
func (ve *RequestValidationError) ToAPIError() *APIError {
	if len(ve.errors) == 0 {
		return &APIError{
			Code:    "VALIDATION_ERROR",
			Message: "Validation failed",
		}
	}

	if len(ve.errors) == 1 {
		err := ve.errors[0]
		return &APIError{
			Code:    "VALIDATION_ERROR",
			Message: err.message,
			Details: map[string]interface{}{
				"field": err.field,
				"tag":   err.tag,
				"value": err.value,
			},
		}
	}

	fields := make([]map[string]interface{}, len(ve.errors))
	var messages []string
	for i, err := range ve.errors {
		fields[i] = map[string]interface{}{
			"field":   err.field,
			"tag":     err.tag,
			"message": err.message,
		}
		messages = append(messages, fmt.Sprintf("%s: %s", err.field, err.message))
	}

	return &APIError{
		Code:    "VALIDATION_ERROR",
		Message: strings.Join(messages, "; "),
		Details: map[string]interface{}{
			"fields": fields,
		},
	}
}

// unitAliases are the unit spellings the API accepts.
var unitAliases = map[string]bool{
	"cm": true, "centimeter": true, "centimeters": true,
	"inch": true, "inches": true, "in": true,
}

// fitTones are the tone hints the engine understands.
var fitTones = map[string]bool{
	"tight": true, "slim": true, "fitted": true,
	"regular": true, "loose": true, "relaxed": true, "oversized": true,
}

// GetValidator returns the singleton validator with the fit-domain
// custom tags registered. Thread-safe.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// unit: a recognized measurement-unit alias. The engine
		// tolerates unknown units by assuming cm, but the API edge
		// rejects them.
		must(validate.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
			v := strings.ToLower(fl.Field().String())
			if v == "" {
				return true
			}
			return unitAliases[v]
		}))

		// sizename: a size on the canonical XXS..6XL ladder.
		must(validate.RegisterValidation("sizename", func(fl validator.FieldLevel) bool {
			return recommend.SizeIndex(fl.Field().String()) >= 0
		}))

		// tone: a known fit-tone hint.
		must(validate.RegisterValidation("tone", func(fl validator.FieldLevel) bool {
			v := fl.Field().String()
			if v == "" {
				return true
			}
			return fitTones[strings.ToLower(v)]
		}))
	})

	return validate
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("register validator: %v", err))
	}
}

// ValidateStruct validates s with the singleton validator. Returns
// nil on success.
func ValidateStruct(s interface{}) *RequestValidationError {
	v := GetValidator()

	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []ValidationError{
				{field: "unknown", tag: "unknown", message: err.Error()},
			},
		}
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   fieldErr.Field(),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			message: translateError(fieldErr),
		}
	}

	return &RequestValidationError{errors: fieldErrors}
}

// errorMessageTemplates maps tags to messages taking only the field.
var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"url":      "%s must be a valid URL",
	"unit":     "%s must be a measurement unit (cm or inch)",
	"sizename": "%s must be a standard size name (XXS through 6XL)",
	"tone":     "%s must be a fit tone (tight, slim, fitted, regular, loose, relaxed, oversized)",
}

// errorMessageWithParam maps tags to messages taking field and param.
var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}
	return translateMinMax(fe, field, tag, param)
}

func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	isString := fe.Kind().String() == "string"

	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
