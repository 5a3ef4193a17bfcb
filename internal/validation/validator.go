// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

// Package validation validates request parameters with go-playground/validator.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and carries the Ads specific tags:
//
//	customer_id  digits, optionally grouped with dashes (123-456-7890)
//	gaql_enum    an upper case enum literal such as ENABLED or BROAD
//	gaql_id      a numeric resource ID
//
// Validate converts failures into a data_validation error so callers see
// the same taxonomy as every other failure.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/adsgate/internal/adserrors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	customerIDPattern = regexp.MustCompile(`^[0-9]+(-[0-9]+)*$`)
	enumPattern       = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	idPattern         = regexp.MustCompile(`^[0-9]{1,19}$`)
)

// FieldError is a single failed field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// RequestValidationError collects every failed field of one struct.
type RequestValidationError struct {
	Fields []FieldError
}

func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		mustRegister("customer_id", func(fl validator.FieldLevel) bool {
			return customerIDPattern.MatchString(fl.Field().String())
		})
		mustRegister("gaql_enum", func(fl validator.FieldLevel) bool {
			return enumPattern.MatchString(fl.Field().String())
		})
		mustRegister("gaql_id", func(fl validator.FieldLevel) bool {
			return idPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// ValidateStruct returns nil or a *RequestValidationError.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	fields := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fields[i] = FieldError{
			Field:   fe.Namespace(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe),
		}
	}
	return &RequestValidationError{Fields: fields}
}

// Validate is ValidateStruct expressed as a data_validation error.
func Validate(op string, s any) error {
	if verr := ValidateStruct(s); verr != nil {
		return adserrors.Wrap(adserrors.KindDataValidation, op, "invalid request parameters", verr)
	}
	return nil
}

// NormalizeCustomerID strips the dashes the Ads UI shows in customer IDs.
func NormalizeCustomerID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

var errorMessageTemplates = map[string]string{
	"required":    "%s is required",
	"customer_id": "%s must be a numeric customer ID",
	"gaql_enum":   "%s must be an upper case enum value",
	"gaql_id":     "%s must be a numeric ID",
	"numeric":     "%s must be numeric",
}

var errorMessageWithParam = map[string]string{
	"oneof":    "%s must be one of: %s",
	"datetime": "%s must be a date in %s format",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, field, fe.Param())
	}

	isString := fe.Kind().String() == "string"
	switch fe.Tag() {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
