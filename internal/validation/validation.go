// Package validation implements the input checking and sanitization rules
// for movement and user-update payloads. Validators operate on untyped
// JSON-decoded records, collect every field error in declaration order and
// never short-circuit; sanitizers never fail and always produce a canonical
// record. Callers must check Result.IsValid before trusting a sanitizer's
// output.
package validation

import (
	"math"
	"strings"
	"unicode/utf8"

	"finanzas/internal/core"
)

// FieldError is a single field-level validation failure, returned as data
// rather than as an error value.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Result struct {
	IsValid bool         `json:"isValid"`
	Errors  []FieldError `json:"errors"`
}

const (
	msgConceptRequired = "concept is required and must be text"
	msgConceptTooShort = "concept must have at least 3 characters"
	msgConceptTooLong  = "concept must not exceed 255 characters"

	msgAmountRequired  = "amount is required"
	msgAmountNotNumber = "amount must be a number"
	msgAmountNaN       = "amount must be a valid number"
	msgAmountZero      = "amount cannot be zero"

	msgDateInvalid = "date must be valid"

	msgNameNotText  = "name must be text"
	msgNameTooShort = "name must have at least 2 characters"
	msgNameTooLong  = "name must not exceed 100 characters"

	msgRoleInvalid = "role must be ADMIN or USER"
)

// ValidateMovement checks a movement payload. Field order is concept,
// amount, date; date is optional and absence is not an error.
func ValidateMovement(data map[string]any) Result {
	var errs []FieldError

	concept, hasConcept := data["concept"]
	// Lengths are counted in characters, not bytes: accented text is
	// routine here.
	if s, ok := concept.(string); !hasConcept || !ok || s == "" {
		errs = append(errs, FieldError{Field: "concept", Message: msgConceptRequired})
	} else if n := utf8.RuneCountInString(strings.TrimSpace(s)); n < 3 {
		errs = append(errs, FieldError{Field: "concept", Message: msgConceptTooShort})
	} else if n > 255 {
		errs = append(errs, FieldError{Field: "concept", Message: msgConceptTooLong})
	}

	amount, hasAmount := data["amount"]
	if !hasAmount || amount == nil {
		errs = append(errs, FieldError{Field: "amount", Message: msgAmountRequired})
	} else if n, ok := numberValue(amount); !ok {
		errs = append(errs, FieldError{Field: "amount", Message: msgAmountNotNumber})
	} else if math.IsNaN(n) {
		errs = append(errs, FieldError{Field: "amount", Message: msgAmountNaN})
	} else if n == 0 {
		errs = append(errs, FieldError{Field: "amount", Message: msgAmountZero})
	}

	if date, hasDate := data["date"]; hasDate && date != nil {
		if _, ok := parseDateValue(date); !ok {
			errs = append(errs, FieldError{Field: "date", Message: msgDateInvalid})
		}
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateUserUpdate checks a user-update payload. Every field is optional;
// an absent (or null) field is always valid.
func ValidateUserUpdate(data map[string]any) Result {
	var errs []FieldError

	if name, hasName := data["name"]; hasName && name != nil {
		if s, ok := name.(string); !ok {
			errs = append(errs, FieldError{Field: "name", Message: msgNameNotText})
		} else if n := utf8.RuneCountInString(strings.TrimSpace(s)); n < 2 {
			errs = append(errs, FieldError{Field: "name", Message: msgNameTooShort})
		} else if n > 100 {
			errs = append(errs, FieldError{Field: "name", Message: msgNameTooLong})
		}
	}

	if role, hasRole := data["role"]; hasRole && role != nil {
		s, ok := role.(string)
		if !ok {
			errs = append(errs, FieldError{Field: "role", Message: msgRoleInvalid})
		} else if _, ok := core.ParseRole(s); !ok {
			errs = append(errs, FieldError{Field: "role", Message: msgRoleInvalid})
		}
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// numberValue accepts the numeric types a decoded payload can carry.
// JSON decoding always yields float64; the integer cases cover records
// assembled directly in Go.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
