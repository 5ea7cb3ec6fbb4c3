package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseBody decodes a JSON body into dst and runs its validate tags.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &apperr.ValidationError{Message: "Invalid request body", Details: err.Error()}
	}
	return validateStruct(dst, "Invalid request body")
}

// decodeStrict decodes raw JSON rejecting unknown fields and type mismatches.
func decodeStrict(raw []byte, dst interface{}, message string) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &apperr.ValidationError{Message: message, Details: []models.FieldError{jsonFieldError(err)}}
	}
	return validateStruct(dst, message)
}

func jsonFieldError(err error) models.FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return models.FieldError{
			Field:   typeErr.Field,
			Rule:    "type",
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		}
	}
	msg := err.Error()
	if field, ok := strings.CutPrefix(msg, "json: unknown field "); ok {
		return models.FieldError{Field: strings.Trim(field, `"`), Rule: "unknown", Message: "unknown field"}
	}
	return models.FieldError{Rule: "syntax", Message: msg}
}

func validateStruct(v interface{}, message string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &apperr.ValidationError{Message: message, Details: err.Error()}
	}
	details := make([]models.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, models.FieldError{
			Field:   fieldPath(fe),
			Rule:    fe.Tag(),
			Message: ruleMessage(fe),
		})
	}
	return &apperr.ValidationError{Message: message, Details: details}
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " failed " + fe.Tag()
	}
}
