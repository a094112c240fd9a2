package utils

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// IndianMobilePattern matches ten-digit mobile numbers starting with 6-9.
var IndianMobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// FieldError describes one failed rule for a request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every failed rule of a request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator accumulates field errors. Each check is a no-op once the field
// already has an error so that messages stay one per field.
type Validator struct {
	errs ValidationErrors
}

// Required fails when value is blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "is required")
	}
	return v
}

// Pattern fails when a non-empty value does not match re.
func (v *Validator) Pattern(field, value string, re *regexp.Regexp) *Validator {
	if value != "" && !re.MatchString(value) {
		v.add(field, "has an invalid format")
	}
	return v
}

// Email fails when a non-empty value is not a bare email address.
func (v *Validator) Email(field, value string) *Validator {
	if value == "" {
		return v
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.add(field, "must be a valid email")
	}
	return v
}

// Enum fails when a non-empty value is not one of allowed.
func (v *Validator) Enum(field, value string, allowed ...string) *Validator {
	if value == "" {
		return v
	}
	for _, candidate := range allowed {
		if value == candidate {
			return v
		}
	}
	v.add(field, "must be one of "+strings.Join(allowed, ", "))
	return v
}

// Range fails when value is outside [min, max].
func (v *Validator) Range(field string, value, min, max int64) *Validator {
	if value < min || value > max {
		v.add(field, fmt.Sprintf("must be between %d and %d", min, max))
	}
	return v
}

// AnyOf fails when every value is blank.
func (v *Validator) AnyOf(field string, values ...string) *Validator {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return v
		}
	}
	v.add(field, "is required")
	return v
}

// Err returns the collected errors, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

func (v *Validator) add(field, message string) {
	for _, fe := range v.errs {
		if fe.Field == field {
			return
		}
	}
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}
