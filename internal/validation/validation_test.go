package validation

import (
	"math"
	"strings"
	"testing"
)

func fieldsOf(r Result) []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Field
	}
	return out
}

func hasFieldError(r Result, field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateMovementConcept(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
		wantMsg string
	}{
		{"missing", map[string]any{"amount": 10.0}, msgConceptRequired},
		{"null", map[string]any{"concept": nil, "amount": 10.0}, msgConceptRequired},
		{"not text", map[string]any{"concept": 42.0, "amount": 10.0}, msgConceptRequired},
		{"empty", map[string]any{"concept": "", "amount": 10.0}, msgConceptRequired},
		{"too short", map[string]any{"concept": "ab", "amount": 10.0}, msgConceptTooShort},
		{"two accented chars", map[string]any{"concept": "ñé", "amount": 10.0}, msgConceptTooShort},
		{"whitespace only", map[string]any{"concept": "   ", "amount": 10.0}, msgConceptTooShort},
		{"too long", map[string]any{"concept": strings.Repeat("x", 256), "amount": 10.0}, msgConceptTooLong},
		{"too long accented", map[string]any{"concept": strings.Repeat("é", 256), "amount": 10.0}, msgConceptTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := ValidateMovement(tc.payload)
			if r.IsValid {
				t.Fatal("expected invalid result")
			}
			if len(r.Errors) != 1 || r.Errors[0].Field != "concept" || r.Errors[0].Message != tc.wantMsg {
				t.Fatalf("got errors %+v, want single concept error %q", r.Errors, tc.wantMsg)
			}
		})
	}

	// Lengths count characters, not bytes: "ñéí" is 3 characters in 6
	// bytes, and 255 accented characters must still fit.
	for _, ok := range []string{"abc", "  abc  ", "ñéí", strings.Repeat("x", 255), strings.Repeat("é", 255)} {
		r := ValidateMovement(map[string]any{"concept": ok, "amount": 10.0})
		if hasFieldError(r, "concept") {
			t.Fatalf("concept %q should be valid, got %+v", ok, r.Errors)
		}
	}
}

func TestValidateMovementAmount(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
		wantMsg string
	}{
		{"missing", map[string]any{"concept": "salary"}, msgAmountRequired},
		{"null", map[string]any{"concept": "salary", "amount": nil}, msgAmountRequired},
		{"not a number", map[string]any{"concept": "salary", "amount": "100"}, msgAmountNotNumber},
		{"nan", map[string]any{"concept": "salary", "amount": math.NaN()}, msgAmountNaN},
		{"zero", map[string]any{"concept": "salary", "amount": 0.0}, msgAmountZero},
		{"negative zero", map[string]any{"concept": "salary", "amount": math.Copysign(0, -1)}, msgAmountZero},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := ValidateMovement(tc.payload)
			if r.IsValid {
				t.Fatal("expected invalid result")
			}
			if len(r.Errors) != 1 || r.Errors[0].Field != "amount" || r.Errors[0].Message != tc.wantMsg {
				t.Fatalf("got errors %+v, want single amount error %q", r.Errors, tc.wantMsg)
			}
		})
	}

	for _, ok := range []float64{1500, -400.5, 0.01, -0.01} {
		r := ValidateMovement(map[string]any{"concept": "salary", "amount": ok})
		if hasFieldError(r, "amount") {
			t.Fatalf("amount %v should be valid, got %+v", ok, r.Errors)
		}
	}
}

func TestValidateMovementDate(t *testing.T) {
	// Absent or null date is fine.
	for _, payload := range []map[string]any{
		{"concept": "salary", "amount": 10.0},
		{"concept": "salary", "amount": 10.0, "date": nil},
	} {
		if r := ValidateMovement(payload); !r.IsValid {
			t.Fatalf("expected valid, got %+v", r.Errors)
		}
	}

	valid := []any{"2024-01-10", "2024-01-10T12:30:00Z", float64(1704902400000)}
	for _, d := range valid {
		r := ValidateMovement(map[string]any{"concept": "salary", "amount": 10.0, "date": d})
		if hasFieldError(r, "date") {
			t.Fatalf("date %v should be valid, got %+v", d, r.Errors)
		}
	}

	r := ValidateMovement(map[string]any{"concept": "salary", "amount": 10.0, "date": "not-a-date"})
	if r.IsValid || !hasFieldError(r, "date") {
		t.Fatalf("expected date error, got %+v", r.Errors)
	}
}

func TestValidateMovementCollectsAllErrorsInOrder(t *testing.T) {
	r := ValidateMovement(map[string]any{
		"concept": "",
		"amount":  0.0,
		"date":    "not-a-date",
	})
	if r.IsValid {
		t.Fatal("expected invalid result")
	}
	got := fieldsOf(r)
	want := []string{"concept", "amount", "date"}
	if len(got) != len(want) {
		t.Fatalf("got %d errors (%v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("error %d is %q, want %q", i, got[i], want[i])
		}
	}
}

func TestValidateUserUpdate(t *testing.T) {
	// Empty payloads are always valid.
	if r := ValidateUserUpdate(map[string]any{}); !r.IsValid {
		t.Fatalf("empty payload should be valid, got %+v", r.Errors)
	}
	if r := ValidateUserUpdate(map[string]any{"name": nil, "role": nil}); !r.IsValid {
		t.Fatalf("null fields should be valid, got %+v", r.Errors)
	}

	cases := []struct {
		name      string
		payload   map[string]any
		wantField string
		wantMsg   string
	}{
		{"name not text", map[string]any{"name": 7.0}, "name", msgNameNotText},
		{"name too short", map[string]any{"name": "a"}, "name", msgNameTooShort},
		{"name one accented char", map[string]any{"name": "ñ"}, "name", msgNameTooShort},
		{"name whitespace", map[string]any{"name": "  a  "}, "name", msgNameTooShort},
		{"name too long", map[string]any{"name": strings.Repeat("n", 101)}, "name", msgNameTooLong},
		{"name too long accented", map[string]any{"name": strings.Repeat("ü", 101)}, "name", msgNameTooLong},
		{"role unknown", map[string]any{"role": "ROOT"}, "role", msgRoleInvalid},
		{"role lowercase", map[string]any{"role": "admin"}, "role", msgRoleInvalid},
		{"role not text", map[string]any{"role": 1.0}, "role", msgRoleInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := ValidateUserUpdate(tc.payload)
			if r.IsValid {
				t.Fatal("expected invalid result")
			}
			if len(r.Errors) != 1 || r.Errors[0].Field != tc.wantField || r.Errors[0].Message != tc.wantMsg {
				t.Fatalf("got %+v, want %s error %q", r.Errors, tc.wantField, tc.wantMsg)
			}
		})
	}

	for _, name := range []string{"Ana", "Íñigo", strings.Repeat("ü", 100)} {
		if r := ValidateUserUpdate(map[string]any{"name": name, "role": "USER"}); !r.IsValid {
			t.Fatalf("name %q: expected valid, got %+v", name, r.Errors)
		}
	}
}

func TestValidateUserUpdateBothInvalid(t *testing.T) {
	r := ValidateUserUpdate(map[string]any{"name": "x", "role": "SUPERUSER"})
	got := fieldsOf(r)
	if len(got) != 2 || got[0] != "name" || got[1] != "role" {
		t.Fatalf("got %v, want [name role]", got)
	}
}
