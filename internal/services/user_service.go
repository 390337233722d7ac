package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/core"
	"finanzas/internal/validation"
)

// UserService implements the user query and update operations.
type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// List returns one page of users, role ascending (ADMIN before USER) then
// name ascending, each with a live owned-movement count.
func (s *UserService) List(ctx context.Context, f UserFilters) (PaginatedUsers, error) {
	f.Page = f.Page.Normalize()

	users, total, err := s.store.ListUsers(ctx, f)
	if err != nil {
		return PaginatedUsers{}, fmt.Errorf("list users: %w", err)
	}

	return PaginatedUsers{
		Users:      users,
		Pagination: core.NewPagination(f.Page.Page, f.Page.Limit, total),
	}, nil
}

func (s *UserService) Get(ctx context.Context, id string) (core.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// CanModify reports whether callerID may update targetID: never their own
// record, and the target must exist.
func (s *UserService) CanModify(ctx context.Context, targetID, callerID string) (bool, error) {
	if targetID == callerID {
		return false, nil
	}
	if _, err := s.store.GetUser(ctx, targetID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check user %s: %w", targetID, err)
	}
	return true, nil
}

// Update applies a sanitized patch to a user after the CanModify gate.
// Self-modification is rejected regardless of payload validity.
func (s *UserService) Update(ctx context.Context, callerID, id string, patch validation.SanitizedUser) (core.User, error) {
	ok, err := s.CanModify(ctx, id, callerID)
	if err != nil {
		return core.User{}, err
	}
	if !ok {
		return core.User{}, core.ErrForbidden
	}

	u, err := s.store.UpdateUser(ctx, id, patch)
	if err != nil {
		return core.User{}, fmt.Errorf("update user %s: %w", id, err)
	}
	return u, nil
}

// Stats counts users overall and per role, fetched in parallel.
func (s *UserService) Stats(ctx context.Context) (core.UserStats, error) {
	var total, admins, users int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.store.CountUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		admins, err = s.store.CountUsersByRole(gctx, core.RoleAdmin)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.store.CountUsersByRole(gctx, core.RoleUser)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.UserStats{}, fmt.Errorf("user stats: %w", err)
	}

	return core.UserStats{TotalUsers: total, AdminCount: admins, UserCount: users}, nil
}
