package services

import (
	"context"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/validation"
)

// Ports for the persistence store. Implementations: storage.SQLiteRepository
// and storage/memory.Store.
type (
	// MovementFilters narrows a movement listing. A zero field means "no
	// filter"; date bounds are inclusive and the concept match is a
	// case-insensitive substring.
	MovementFilters struct {
		UserID    string
		StartDate *time.Time
		EndDate   *time.Time
		Concept   string
		Page      core.PageRequest
	}

	// NewMovement is the canonical create payload. The owner is fixed at
	// creation and never changes.
	NewMovement struct {
		Concept string
		Amount  float64
		Date    time.Time
		UserID  string
	}

	// MovementPatch applies only its non-nil fields.
	MovementPatch struct {
		Concept *string
		Amount  *float64
		Date    *time.Time
	}

	MovementStore interface {
		// ListMovements returns one page ordered by date descending, plus
		// the total row count for the filter.
		ListMovements(ctx context.Context, f MovementFilters) ([]core.Movement, int, error)
		// ListMovementsSince returns all movements with date >= since,
		// ordered by date ascending.
		ListMovementsSince(ctx context.Context, since time.Time) ([]core.Movement, error)
		// ListAllMovements returns every movement ordered by date
		// descending, owner attached. Feeds the CSV export.
		ListAllMovements(ctx context.Context) ([]core.Movement, error)
		GetMovement(ctx context.Context, id string) (core.Movement, error)
		CreateMovement(ctx context.Context, m NewMovement) (core.Movement, error)
		UpdateMovement(ctx context.Context, id string, patch MovementPatch) (core.Movement, error)
		DeleteMovement(ctx context.Context, id string) error

		SumAmounts(ctx context.Context) (float64, error)
		SumIncome(ctx context.Context) (float64, error)
		// SumExpenses returns the raw (non-positive) sum of negative
		// amounts; callers take the absolute value.
		SumExpenses(ctx context.Context) (float64, error)
		CountMovements(ctx context.Context) (int64, error)
	}

	// UserFilters narrows a user listing. Search matches name OR email,
	// case-insensitively.
	UserFilters struct {
		Role   core.Role
		Search string
		Page   core.PageRequest
	}

	UserStore interface {
		// ListUsers returns one page ordered by role ascending then name
		// ascending, each row carrying a live owned-movement count.
		ListUsers(ctx context.Context, f UserFilters) ([]core.User, int, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		UpdateUser(ctx context.Context, id string, patch validation.SanitizedUser) (core.User, error)
		CountUsers(ctx context.Context) (int64, error)
		CountUsersByRole(ctx context.Context, role core.Role) (int64, error)
	}

	// SyncPublisher notifies the mirror queue about movement writes. A nil
	// publisher disables mirroring; publish failures never fail the write.
	SyncPublisher interface {
		PublishMovementSync(ctx context.Context, id string, version int64) error
		PublishMovementDelete(ctx context.Context, id string) error
	}
)

// PaginatedMovements is the movement list response shape.
type PaginatedMovements struct {
	Movements  []core.Movement `json:"movements"`
	Pagination core.Pagination `json:"pagination"`
}

// PaginatedUsers is the user list response shape.
type PaginatedUsers struct {
	Users      []core.User     `json:"users"`
	Pagination core.Pagination `json:"pagination"`
}
