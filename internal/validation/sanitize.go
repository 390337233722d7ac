package validation

import (
	"strings"
	"time"

	"finanzas/internal/core"
)

// SanitizedMovement is the canonical movement write payload.
type SanitizedMovement struct {
	Concept string
	Amount  float64
	Date    time.Time
}

// SanitizedUser is a partial user patch. Nil fields are left unchanged by
// the store; a cleared name therefore cannot be expressed through this path.
type SanitizedUser struct {
	Name *string
	Role *core.Role
}

// SanitizeMovement normalizes a movement payload for persistence. It never
// rejects input: non-text concepts become the empty string, non-numeric
// amounts become zero, and a missing or unparseable date becomes the time of
// the call.
func SanitizeMovement(data map[string]any) SanitizedMovement {
	out := SanitizedMovement{Date: time.Now()}
	if s, ok := data["concept"].(string); ok {
		out.Concept = strings.TrimSpace(s)
	}
	if n, ok := numberValue(data["amount"]); ok {
		out.Amount = n
	}
	if d, ok := parseDateValue(data["date"]); ok {
		out.Date = d
	}
	return out
}

// SanitizeUser builds a patch containing only the fields that should change.
// The name is included only when supplied as text that is non-empty after
// trimming; null or whitespace values omit the field entirely. The role is
// included whenever supplied as text — validation must run first so that an
// invalid role never reaches the store.
func SanitizeUser(data map[string]any) SanitizedUser {
	var out SanitizedUser
	if name, ok := data["name"]; ok {
		if s, isStr := name.(string); isStr {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				out.Name = &trimmed
			}
		}
	}
	if role, ok := data["role"]; ok {
		if s, isStr := role.(string); isStr {
			r := core.Role(s)
			out.Role = &r
		}
	}
	return out
}
