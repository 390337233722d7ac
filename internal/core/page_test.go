package core

import "testing"

func TestPageRequestNormalize(t *testing.T) {
	cases := []struct {
		in   PageRequest
		want PageRequest
	}{
		{PageRequest{}, PageRequest{Page: 1, Limit: 10}},
		{PageRequest{Page: -3, Limit: 0}, PageRequest{Page: 1, Limit: 10}},
		{PageRequest{Page: 2, Limit: 25}, PageRequest{Page: 2, Limit: 25}},
		{PageRequest{Page: 1, Limit: 150}, PageRequest{Page: 1, Limit: 100}},
		{PageRequest{Page: 1, Limit: 100}, PageRequest{Page: 1, Limit: 100}},
	}
	for i, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Fatalf("case %d: got %+v, want %+v", i, got, tc.want)
		}
	}
}

func TestPageRequestOffset(t *testing.T) {
	p := PageRequest{Page: 3, Limit: 10}
	if got := p.Offset(); got != 20 {
		t.Fatalf("got %d, want 20", got)
	}
}

func TestNewPagination(t *testing.T) {
	cases := []struct {
		total, limit, wantPages int
	}{
		{25, 10, 3},
		{30, 10, 3},
		{0, 10, 0},
		{1, 100, 1},
		{101, 100, 2},
	}
	for i, tc := range cases {
		p := NewPagination(1, tc.limit, tc.total)
		if p.TotalPages != tc.wantPages {
			t.Fatalf("case %d: totalPages = %d, want %d", i, p.TotalPages, tc.wantPages)
		}
	}
}
