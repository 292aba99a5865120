// Package validation evaluates declarative field constraints against raw
// request payloads. Every rule runs independently and all violations are
// collected in one pass, in rule order.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is matched by every Errors value via errors.Is.
var ErrValidation = errors.New("validation failed")

// Violation is a single failed constraint.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is an ordered list of violations.
type Errors []Violation

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool {
	return target == ErrValidation
}

// Fields returns the names of the violated fields in order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for _, v := range e {
		out = append(out, v.Field)
	}
	return out
}

// Mode selects how absent fields are treated.
type Mode int

const (
	// Full treats absent required fields as violations.
	Full Mode = iota
	// Partial checks only the fields present in the payload.
	Partial
)

// Rule declares the constraints of one field.
//
// Tag is a go-playground/validator tag evaluated against the normalised
// string value. Messages maps a failing tag (plus the pseudo tags
// "required" and "type") to the message reported to the client.
type Rule struct {
	Field      string
	Trim       bool
	Required   bool
	StringOnly bool
	Tag        string
	Messages   map[string]string
	Normalize  func(string) string
}

func (r Rule) message(tag string) string {
	if msg, ok := r.Messages[tag]; ok {
		return msg
	}
	switch tag {
	case "required":
		return r.Field + " is required"
	case "type":
		return r.Field + " must be a string"
	default:
		return r.Field + " is invalid"
	}
}

// Schema is an ordered set of rules sharing one validator instance.
type Schema struct {
	rules    []Rule
	validate *validator.Validate
}

// NewSchema builds a schema. A nil validator gets a fresh one.
func NewSchema(v *validator.Validate, rules ...Rule) *Schema {
	if v == nil {
		v = validator.New()
	}
	return &Schema{rules: rules, validate: v}
}

// Fields lists the field names the schema knows about.
func (s *Schema) Fields() []string {
	out := make([]string, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.Field)
	}
	return out
}

// Check validates payload and returns the normalised values of every field
// that was present and valid. Unknown keys are ignored.
func (s *Schema) Check(payload map[string]any, mode Mode) (map[string]string, error) {
	values := make(map[string]string, len(s.rules))
	var errs Errors

	for _, rule := range s.rules {
		raw, present := payload[rule.Field]
		if !present {
			if mode == Full && rule.Required {
				errs = append(errs, Violation{Field: rule.Field, Message: rule.message("required")})
			}
			continue
		}

		value, ok := coerce(raw, rule.StringOnly)
		if !ok {
			errs = append(errs, Violation{Field: rule.Field, Message: rule.message("type")})
			continue
		}
		if rule.Trim {
			value = strings.TrimSpace(value)
		}

		if value == "" {
			if rule.Required {
				errs = append(errs, Violation{Field: rule.Field, Message: rule.message("required")})
				continue
			}
			values[rule.Field] = ""
			continue
		}

		if rule.Tag != "" {
			if err := s.validate.Var(value, rule.Tag); err != nil {
				errs = append(errs, Violation{Field: rule.Field, Message: rule.message(failedTag(err))})
				continue
			}
		}

		if rule.Normalize != nil {
			value = rule.Normalize(value)
		}
		values[rule.Field] = value
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return values, nil
}

func failedTag(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldErrs[0].Tag()
	}
	return ""
}

// coerce converts a decoded JSON value into the string the rules operate on.
// Numbers are accepted for text fields unless strict is set; null reads as
// an empty value.
func coerce(raw any, strict bool) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	}
	if strict {
		return "", false
	}
	switch v := raw.(type) {
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
