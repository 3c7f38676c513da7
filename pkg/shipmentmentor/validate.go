package shipmentmentor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[+0-9()\-.\s]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON key so messages match the wire payload.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// IsPhone reports whether s only contains digits, '+', '-', '.', parentheses and whitespace.
func IsPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return validate.Var(s, "email") == nil
}

// ValidateShipment returns a normalized copy of s, or a validation error
// listing every violation. s itself is not modified.
func ValidateShipment(s *Shipment) (*Shipment, error) {
	if s == nil {
		return nil, validationError([]Violation{{Rule: "required", Message: "payload is required"}})
	}
	out := s.clone()
	out.Normalize()
	if err := validatePayload(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateShipmentUpdate returns a normalized copy of u, or a validation error.
func ValidateShipmentUpdate(u *ShipmentUpdate) (*ShipmentUpdate, error) {
	if u == nil {
		return nil, validationError([]Violation{{Rule: "required", Message: "payload is required"}})
	}
	out := *u
	out.Normalize()
	if err := validatePayload(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateTracking returns a normalized copy of t, or a validation error.
func ValidateTracking(t *Tracking) (*Tracking, error) {
	if t == nil {
		return nil, validationError([]Violation{{Rule: "required", Message: "payload is required"}})
	}
	out := t.clone()
	out.Normalize()
	if err := validatePayload(out); err != nil {
		return nil, err
	}
	return out, nil
}

func validatePayload(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return newError(KindValidation, err.Error()).withCause(err)
	}

	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, toViolation(fe))
	}
	return validationError(violations)
}

func toViolation(fe validator.FieldError) Violation {
	field := fe.Namespace()
	// Drop the root struct name: "Shipment.origin.city" -> "origin.city".
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "email":
		msg = fmt.Sprintf("%s must be a valid email", field)
	case "phone":
		msg = fmt.Sprintf("%s must be a valid phone number", field)
	case "max":
		msg = fmt.Sprintf("%s must not have more than %s properties", field, fe.Param())
	default:
		msg = fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}

	return Violation{Field: field, Rule: fe.Tag(), Message: msg}
}

// ============================================================================
// Strict JSON decoding
// ============================================================================

// DecodeShipment reads a Shipment from JSON, rejecting undeclared keys.
func DecodeShipment(r io.Reader) (*Shipment, error) {
	var s Shipment
	if err := decodeStrict(r, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DecodeShipmentUpdate reads a ShipmentUpdate from JSON, rejecting undeclared keys.
func DecodeShipmentUpdate(r io.Reader) (*ShipmentUpdate, error) {
	var u ShipmentUpdate
	if err := decodeStrict(r, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DecodeTracking reads a Tracking from JSON, rejecting undeclared keys.
func DecodeTracking(r io.Reader) (*Tracking, error) {
	var t Tracking
	if err := decodeStrict(r, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DecodePayload unmarshals the payload returned by a Client operation into v.
func DecodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return newError(KindMalformedResponse, "empty payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return newError(KindMalformedResponse, "decoding payload").withCause(err)
	}
	return nil
}

func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return validationError([]Violation{decodeViolation(err)})
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return validationError([]Violation{{
			Rule:    "json",
			Message: "payload must be a single JSON object",
		}})
	}
	return nil
}

func decodeViolation(err error) Violation {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return Violation{
			Field:   typeErr.Field,
			Rule:    "type",
			Message: fmt.Sprintf("%s must be %s", typeErr.Field, jsonTypeName(typeErr.Type)),
		}
	}

	// encoding/json reports unknown keys only through the error text.
	const unknownPrefix = "json: unknown field "
	if msg := err.Error(); strings.HasPrefix(msg, unknownPrefix) {
		field := strings.Trim(strings.TrimPrefix(msg, unknownPrefix), `"`)
		return Violation{
			Field:   field,
			Rule:    "additionalProperties",
			Message: fmt.Sprintf("%s is not an allowed property", field),
		}
	}

	return Violation{Rule: "json", Message: err.Error()}
}

func jsonTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return t.String()
	}
}
