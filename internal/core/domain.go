package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type (
	// Role is the access level of a user. Exactly two values exist.
	Role string

	// UserRef is the owner summary carried by movements returned from read
	// and list operations.
	UserRef struct {
		ID    string `json:"id"`
		Name  string `json:"name,omitempty"`
		Email string `json:"email"`
	}

	// Movement is a single signed financial transaction. Amount > 0 is
	// income, amount < 0 is expense; zero is never persisted.
	Movement struct {
		ID      string    `json:"id"`
		Concept string    `json:"concept"`
		Amount  float64   `json:"amount"`
		Date    time.Time `json:"date"`
		UserID  string    `json:"userId"`
		User    UserRef   `json:"user"`
		Version int64     `json:"-"`
	}

	User struct {
		ID            string `json:"id"`
		Name          string `json:"name,omitempty"`
		Email         string `json:"email"`
		Role          Role   `json:"role"`
		MovementCount int64  `json:"movementCount"`
	}
)

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidAmount  = errors.New("amount cannot be zero")
	ErrInvalidConcept = errors.New("concept length out of range")
)

// ParseRole maps a string to a Role, reporting whether it is one of the two
// valid values.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), true
	}
	return "", false
}

func (r Role) IsValid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

func (r Role) String() string { return string(r) }

// IsIncome reports whether the movement adds to the balance.
func (m Movement) IsIncome() bool { return m.Amount > 0 }

// Type returns the reporting label for the movement sign.
func (m Movement) Type() string {
	if m.IsIncome() {
		return "income"
	}
	return "expense"
}

// Validate checks the persisted-form invariants. Input shape checking is the
// job of the validation package; this guards the canonical record.
func (m Movement) Validate() error {
	n := utf8.RuneCountInString(strings.TrimSpace(m.Concept))
	if n < 3 || n > 255 {
		return ErrInvalidConcept
	}
	if m.Amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// DisplayName returns the owner label used in exports: name when present,
// email otherwise.
func (u UserRef) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Email
}

// MonthStart returns the first instant of the month containing t.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
