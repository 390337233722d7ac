package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

// maxBodySize caps request bodies; every payload this API accepts is tiny.
const maxBodySize = 1 << 20

// decodeBody parses a JSON object body into a generic map so validation
// can distinguish missing keys from null values.
func decodeBody(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return map[string]any{}, nil
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// parsePageRequest reads page and limit query parameters. Out-of-range
// values are normalized downstream.
func parsePageRequest(r *http.Request) core.PageRequest {
	page := core.PageRequest{Page: core.DefaultPage, Limit: core.DefaultLimit}

	if v := strings.TrimSpace(r.URL.Query().Get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Page = n
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Limit = n
		}
	}
	return page
}

// parseMovementFilters reads the optional movement-list filters. The owner
// filter only sticks for admin callers; the service overrides it otherwise.
func parseMovementFilters(r *http.Request) services.MovementFilters {
	q := r.URL.Query()
	f := services.MovementFilters{
		UserID:  strings.TrimSpace(q.Get("userId")),
		Concept: strings.TrimSpace(q.Get("concept")),
		Page:    parsePageRequest(r),
	}

	if t, ok := parseQueryDate(q.Get("startDate")); ok {
		f.StartDate = &t
	}
	if t, ok := parseQueryDate(q.Get("endDate")); ok {
		f.EndDate = &t
	}
	return f
}

func parseQueryDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseUserFilters reads the optional user-list filters.
func parseUserFilters(r *http.Request) services.UserFilters {
	q := r.URL.Query()
	f := services.UserFilters{
		Search: strings.TrimSpace(q.Get("search")),
		Page:   parsePageRequest(r),
	}
	if role, ok := core.ParseRole(strings.TrimSpace(q.Get("role"))); ok {
		f.Role = role
	}
	return f
}

// parseMonths reads the trailing-window length for reports: an integer in
// [1, 24], defaulting to 6 when absent.
func parseMonths(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("months"))
	if v == "" {
		return 6, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 24 {
		return 0, fmt.Errorf("months must be an integer between 1 and 24")
	}
	return n, nil
}
