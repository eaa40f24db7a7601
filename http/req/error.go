package req

import (
	"fmt"
	"strings"

	"github.com/xy-planning-network/portfolio"
)

// A ValidationError is an issue with a concrete value not matching the rule set on its field.
//
// Rule reads as "tag=param; type", e.g., "min=8; string".
type ValidationError struct {
	Field string `json:"field"`
	Got   any    `json:"got"`
	Rule  string `json:"rule,omitempty"`
}

// Message describes the broken rule to an end user.
func (v ValidationError) Message() string {
	constraint, typ, _ := strings.Cut(v.Rule, "; ")
	tag, param, _ := strings.Cut(constraint, "=")
	text := typ == "string"

	switch tag {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "phone":
		return "Enter a valid phone number."
	case "enum", "oneof":
		return "Not a valid choice."
	case "min", "gte":
		if text {
			return fmt.Sprintf("Ensure this field has at least %s characters.", param)
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", param)
	case "max", "lte":
		if text {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", param)
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", param)
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", param)
	case "lt":
		return fmt.Sprintf("Ensure this value is less than %s.", param)
	case "unexpected key should not be set":
		return "This field is not accepted."
	}

	if t, ok := strings.CutPrefix(v.Rule, "must be "); ok {
		return fmt.Sprintf("A valid %s is required.", t)
	}

	return "Invalid value."
}

// ValidationErrors is a set of ValidationError.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msg := fmt.Sprintf("field=%q rule=%q got=%q", err.Field, err.Rule, fmt.Sprint(err.Got))
		msgs = append(msgs, msg)
	}

	return strings.Join(msgs, "\n")
}

// Fields groups the messages of each ValidationError by field, as in:
//
//	{"email": ["Enter a valid email address."]}
func (v ValidationErrors) Fields() map[string][]string {
	fields := make(map[string][]string, len(v))
	for _, err := range v {
		fields[err.Field] = append(fields[err.Field], err.Message())
	}

	return fields
}

func (ValidationErrors) Unwrap() error { return portfolio.ErrNotValid }
