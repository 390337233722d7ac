// Package memory provides an in-process implementation of the store ports.
// It backs the DATA_BACKEND=memory mode and the service tests; behavior
// (filtering, ordering, pagination) matches the SQLite repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/core"
	"finanzas/internal/services"
	"finanzas/internal/validation"
)

type Store struct {
	mu        sync.Mutex
	users     map[string]core.User
	movements map[string]core.Movement
}

var (
	_ services.MovementStore = (*Store)(nil)
	_ services.UserStore     = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:     make(map[string]core.User),
		movements: make(map[string]core.Movement),
	}
}

func (s *Store) ListMovements(_ context.Context, f services.MovementFilters) ([]core.Movement, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.filterMovements(f)
	sort.Slice(matched, func(i, j int) bool { return matched[i].Date.After(matched[j].Date) })

	total := len(matched)
	page := f.Page.Normalize()
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}

	out := make([]core.Movement, end-start)
	copy(out, matched[start:end])
	return out, total, nil
}

func (s *Store) filterMovements(f services.MovementFilters) []core.Movement {
	var matched []core.Movement
	needle := strings.ToLower(f.Concept)
	for _, m := range s.movements {
		if f.UserID != "" && m.UserID != f.UserID {
			continue
		}
		if f.StartDate != nil && m.Date.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && m.Date.After(*f.EndDate) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(m.Concept), needle) {
			continue
		}
		matched = append(matched, s.withOwner(m))
	}
	return matched
}

func (s *Store) ListMovementsSince(_ context.Context, since time.Time) ([]core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Movement
	for _, m := range s.movements {
		if m.Date.Before(since) {
			continue
		}
		out = append(out, s.withOwner(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) ListAllMovements(_ context.Context) ([]core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Movement, 0, len(s.movements))
	for _, m := range s.movements {
		out = append(out, s.withOwner(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) GetMovement(_ context.Context, id string) (core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.movements[id]
	if !ok {
		return core.Movement{}, core.ErrNotFound
	}
	return s.withOwner(m), nil
}

func (s *Store) CreateMovement(_ context.Context, m services.NewMovement) (core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := core.Movement{
		ID:      uuid.NewString(),
		Concept: m.Concept,
		Amount:  m.Amount,
		Date:    m.Date,
		UserID:  m.UserID,
		Version: 1,
	}
	s.movements[created.ID] = created
	return s.withOwner(created), nil
}

func (s *Store) UpdateMovement(_ context.Context, id string, patch services.MovementPatch) (core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.movements[id]
	if !ok {
		return core.Movement{}, core.ErrNotFound
	}
	if patch.Concept != nil {
		m.Concept = *patch.Concept
	}
	if patch.Amount != nil {
		m.Amount = *patch.Amount
	}
	if patch.Date != nil {
		m.Date = *patch.Date
	}
	m.Version++
	s.movements[id] = m
	return s.withOwner(m), nil
}

func (s *Store) DeleteMovement(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.movements[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.movements, id)
	return nil
}

func (s *Store) SumAmounts(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum float64
	for _, m := range s.movements {
		sum += m.Amount
	}
	return sum, nil
}

func (s *Store) SumIncome(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum float64
	for _, m := range s.movements {
		if m.Amount > 0 {
			sum += m.Amount
		}
	}
	return sum, nil
}

func (s *Store) SumExpenses(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum float64
	for _, m := range s.movements {
		if m.Amount < 0 {
			sum += m.Amount
		}
	}
	return sum, nil
}

func (s *Store) CountMovements(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.movements)), nil
}

func (s *Store) ListUsers(_ context.Context, f services.UserFilters) ([]core.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(f.Search)
	var matched []core.User
	for _, u := range s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Name), needle) &&
			!strings.Contains(strings.ToLower(u.Email), needle) {
			continue
		}
		u.MovementCount = s.countOwned(u.ID)
		matched = append(matched, u)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Role != matched[j].Role {
			return matched[i].Role < matched[j].Role
		}
		return matched[i].Name < matched[j].Name
	})

	total := len(matched)
	page := f.Page.Normalize()
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}

	out := make([]core.User, end-start)
	copy(out, matched[start:end])
	return out, total, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	u.MovementCount = s.countOwned(id)
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u.MovementCount = s.countOwned(u.ID)
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.User{}, fmt.Errorf("user email %s already exists", u.Email)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, patch validation.SanitizedUser) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	s.users[id] = u
	u.MovementCount = s.countOwned(id)
	return u, nil
}

func (s *Store) CountUsers(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

func (s *Store) CountUsersByRole(_ context.Context, role core.Role) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, u := range s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// callers hold s.mu
func (s *Store) withOwner(m core.Movement) core.Movement {
	if u, ok := s.users[m.UserID]; ok {
		m.User = core.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return m
}

// callers hold s.mu
func (s *Store) countOwned(userID string) int64 {
	var n int64
	for _, m := range s.movements {
		if m.UserID == userID {
			n++
		}
	}
	return n
}
