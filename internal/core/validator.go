package core

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"skywise/internal/types"
)

// ValidationError describes one failed field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validator wraps go-playground/validator with the Skywise tags:
//
//	city_name    a plausible place name (see types.ValidCityName)
//	fact_name    a fact key: lowercase ASCII letters, digits and underscores
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator and registers the custom tags. Field
// names in errors follow the json tag.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("city_name", func(fl validator.FieldLevel) bool {
		return types.ValidCityName(fl.Field().String())
	})
	_ = v.RegisterValidation("fact_name", func(fl validator.FieldLevel) bool {
		return validFactName(fl.Field().String())
	})

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct validates s and returns a *types.AppError whose code is
// derived from the first failing tag. All failures are listed under
// details["validation_errors"].
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if v.logger != nil {
			v.logger.Error("validator misuse", "error", err, "type", fmt.Sprintf("%T", s))
		}
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	fields := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, ValidationError{
			Field:   fieldPath(fe),
			Code:    tagToErrorCode(fe.Tag()),
			Message: fieldMessage(fe),
		})
	}

	first := fields[0]
	return types.NewAppErrorWithDetails(
		types.ErrorCode(first.Code),
		first.Message,
		err,
		map[string]any{"validation_errors": fields},
	)
}

// Var validates a single value against tag, naming it name in the error,
// e.g. v.Var("city", city, "required,city_name").
func (v *Validator) Var(name string, value any, tag string) error {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return types.NewAppError(types.ErrorCode(tagToErrorCode(fe.Tag())), messageFor(name, fe), err)
	}
	return types.NewAppError(types.ErrCodeInternalUnexpected, "value validation failed", err)
}

// tagToErrorCode maps a failing validator tag to an API error code.
func tagToErrorCode(tag string) string {
	switch tag {
	case "required", "min":
		return string(types.ErrCodeValidationMissingField)
	case "city_name":
		return string(types.ErrCodeValidationInvalidCity)
	case "max", "len":
		return string(types.ErrCodeValidationBatchSize)
	case "fact_name":
		return string(types.ErrCodeValidationInvalidFacts)
	default:
		return string(types.ErrCodeValidationInvalidJSON)
	}
}

// fieldPath strips the top-level struct name from the namespace:
// "batchRequest.cities[2]" becomes "cities[2]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	return messageFor(fieldPath(fe), fe)
}

func messageFor(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "city_name":
		return fmt.Sprintf("%s is not a valid city name (letters, digits, spaces and .,'-() only; at most %d characters)", field, types.MaxCityNameLength)
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must contain at most %s item(s)", field, fe.Param())
	case "fact_name":
		return fmt.Sprintf("%s is not a valid fact name", field)
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}

func validFactName(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}
