package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/auth"
	"finanzas/internal/core"
	"finanzas/internal/validation"
)

// MovementService implements the movement query, aggregation and write
// operations over an injected store.
type MovementService struct {
	store     MovementStore
	publisher SyncPublisher
}

func NewMovementService(store MovementStore, publisher SyncPublisher) *MovementService {
	return &MovementService{store: store, publisher: publisher}
}

// List returns one page of movements. Non-admin callers are always scoped
// to their own movements: any caller-supplied owner filter is overridden.
func (s *MovementService) List(ctx context.Context, caller auth.Identity, f MovementFilters) (PaginatedMovements, error) {
	f.Page = f.Page.Normalize()
	if !caller.IsAdmin() {
		f.UserID = caller.UserID
	}

	movements, total, err := s.store.ListMovements(ctx, f)
	if err != nil {
		return PaginatedMovements{}, fmt.Errorf("list movements: %w", err)
	}

	return PaginatedMovements{
		Movements:  movements,
		Pagination: core.NewPagination(f.Page.Page, f.Page.Limit, total),
	}, nil
}

// Get loads a movement by id, enforcing ownership for non-admin callers.
func (s *MovementService) Get(ctx context.Context, caller auth.Identity, id string) (core.Movement, error) {
	m, err := s.store.GetMovement(ctx, id)
	if err != nil {
		return core.Movement{}, fmt.Errorf("get movement %s: %w", id, err)
	}
	if !caller.IsAdmin() && m.UserID != caller.UserID {
		return core.Movement{}, core.ErrForbidden
	}
	return m, nil
}

// Create persists a sanitized movement for the given owner and queues a
// mirror sync. A publish failure is logged, not returned: the write has
// already succeeded.
func (s *MovementService) Create(ctx context.Context, ownerID string, data validation.SanitizedMovement) (core.Movement, error) {
	m, err := s.store.CreateMovement(ctx, NewMovement{
		Concept: data.Concept,
		Amount:  data.Amount,
		Date:    data.Date,
		UserID:  ownerID,
	})
	if err != nil {
		return core.Movement{}, fmt.Errorf("create movement: %w", err)
	}

	s.publishSync(ctx, m.ID, m.Version)
	return m, nil
}

// Update applies a partial patch and queues a mirror sync for the new
// version.
func (s *MovementService) Update(ctx context.Context, id string, patch MovementPatch) (core.Movement, error) {
	m, err := s.store.UpdateMovement(ctx, id, patch)
	if err != nil {
		return core.Movement{}, fmt.Errorf("update movement %s: %w", id, err)
	}

	s.publishSync(ctx, m.ID, m.Version)
	return m, nil
}

// Delete removes a movement and queues a mirror delete.
func (s *MovementService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteMovement(ctx, id); err != nil {
		return fmt.Errorf("delete movement %s: %w", id, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishMovementDelete(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish movement delete", "id", id, "error", err)
		}
	}
	return nil
}

// Balance is the sum of all amounts; income and expense cancel naturally.
func (s *MovementService) Balance(ctx context.Context) (float64, error) {
	sum, err := s.store.SumAmounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("sum amounts: %w", err)
	}
	return sum, nil
}

// Stats aggregates the whole movement table. The three sub-aggregates are
// independent and fetched in parallel.
func (s *MovementService) Stats(ctx context.Context) (core.Stats, error) {
	var (
		income   float64
		expenses float64
		count    int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.store.SumIncome(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.SumExpenses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.store.CountMovements(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Stats{}, fmt.Errorf("movement stats: %w", err)
	}

	if expenses < 0 {
		expenses = -expenses
	}
	return core.Stats{
		TotalIncome:    income,
		TotalExpenses:  expenses,
		Balance:        income - expenses,
		TotalMovements: count,
	}, nil
}

func (s *MovementService) publishSync(ctx context.Context, id string, version int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMovementSync(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish movement sync", "id", id, "version", version, "error", err)
	}
}
