package core

import (
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"ADMIN", true},
		{"USER", true},
		{"admin", false},
		{"ROOT", false},
		{"", false},
	}
	for _, tc := range cases {
		if _, ok := ParseRole(tc.in); ok != tc.ok {
			t.Fatalf("ParseRole(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
	}
	if !RoleAdmin.IsValid() || !RoleUser.IsValid() {
		t.Fatal("enum values must be valid")
	}
	if Role("GUEST").IsValid() {
		t.Fatal("unknown role must be invalid")
	}
}

func TestMovementType(t *testing.T) {
	if (Movement{Amount: 100}).Type() != "income" {
		t.Fatal("positive amount should be income")
	}
	if (Movement{Amount: -0.5}).Type() != "expense" {
		t.Fatal("negative amount should be expense")
	}
}

func TestMovementValidate(t *testing.T) {
	good := Movement{Concept: "rent", Amount: -500, Date: time.Now()}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// Three characters in six bytes still clears the minimum.
	short := Movement{Concept: "ñéí", Amount: 10, Date: time.Now()}
	if err := short.Validate(); err != nil {
		t.Fatalf("expected ok for multibyte concept, got %v", err)
	}

	bads := []Movement{
		{Concept: "ab", Amount: 10},
		{Concept: "ñé", Amount: 10},
		{Concept: "   ab   ", Amount: 10}, // trims before measuring
		{Concept: "valid concept", Amount: 0},
	}
	for i, m := range bads {
		if err := m.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestUserRefDisplayName(t *testing.T) {
	if got := (UserRef{Name: "Ana", Email: "a@b.c"}).DisplayName(); got != "Ana" {
		t.Fatalf("got %q", got)
	}
	if got := (UserRef{Name: "  ", Email: "a@b.c"}).DisplayName(); got != "a@b.c" {
		t.Fatalf("got %q", got)
	}
}

func TestMonthStart(t *testing.T) {
	ts := time.Date(2024, 3, 17, 15, 4, 5, 6, time.UTC)
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := MonthStart(ts); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
