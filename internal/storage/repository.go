// Package storage persists users and movements in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"finanzas/internal/core"
	"finanzas/internal/services"
	"finanzas/internal/validation"
)

// dates are stored in UTC with this fixed-width layout so that string
// ordering matches chronological ordering.
const dateFormat = "2006-01-02 15:04:05"

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ services.MovementStore = (*SQLiteRepository)(nil)
	_ services.UserStore     = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const movementColumns = `m.id, m.concept, m.amount, m.date, m.user_id, m.version,
	u.id, u.name, u.email`

func scanMovement(row interface{ Scan(...any) error }) (core.Movement, error) {
	var (
		m       core.Movement
		rawDate string
		ownerID sql.NullString
		name    sql.NullString
		email   sql.NullString
	)
	err := row.Scan(&m.ID, &m.Concept, &m.Amount, &rawDate, &m.UserID, &m.Version,
		&ownerID, &name, &email)
	if err != nil {
		return core.Movement{}, err
	}

	m.Date, err = time.ParseInLocation(dateFormat, rawDate, time.UTC)
	if err != nil {
		return core.Movement{}, fmt.Errorf("parse movement date %q: %w", rawDate, err)
	}
	if ownerID.Valid {
		m.User = core.UserRef{ID: ownerID.String, Name: name.String, Email: email.String}
	}
	return m, nil
}

func movementWhere(f services.MovementFilters) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.UserID != "" {
		clauses = append(clauses, "m.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.StartDate != nil {
		clauses = append(clauses, "m.date >= ?")
		args = append(args, f.StartDate.UTC().Format(dateFormat))
	}
	if f.EndDate != nil {
		clauses = append(clauses, "m.date <= ?")
		args = append(args, f.EndDate.UTC().Format(dateFormat))
	}
	if f.Concept != "" {
		clauses = append(clauses, "m.concept LIKE ?")
		args = append(args, "%"+f.Concept+"%")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *SQLiteRepository) ListMovements(ctx context.Context, f services.MovementFilters) ([]core.Movement, int, error) {
	where, args := movementWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM movements m" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	page := f.Page.Normalize()
	query := "SELECT " + movementColumns +
		" FROM movements m LEFT JOIN users u ON u.id = m.user_id" + where +
		" ORDER BY m.date DESC, m.created_at DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	movements, err := collectMovements(rows)
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

func (r *SQLiteRepository) ListMovementsSince(ctx context.Context, since time.Time) ([]core.Movement, error) {
	query := "SELECT " + movementColumns +
		" FROM movements m LEFT JOIN users u ON u.id = m.user_id" +
		" WHERE m.date >= ? ORDER BY m.date ASC"
	rows, err := r.db.QueryContext(ctx, query, since.UTC().Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("list movements since: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

func (r *SQLiteRepository) ListAllMovements(ctx context.Context) ([]core.Movement, error) {
	query := "SELECT " + movementColumns +
		" FROM movements m LEFT JOIN users u ON u.id = m.user_id" +
		" ORDER BY m.date DESC, m.created_at DESC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all movements: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

func collectMovements(rows *sql.Rows) ([]core.Movement, error) {
	movements := []core.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	return movements, nil
}

func (r *SQLiteRepository) GetMovement(ctx context.Context, id string) (core.Movement, error) {
	query := "SELECT " + movementColumns +
		" FROM movements m LEFT JOIN users u ON u.id = m.user_id WHERE m.id = ?"
	m, err := scanMovement(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Movement{}, core.ErrNotFound
	}
	if err != nil {
		return core.Movement{}, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) CreateMovement(ctx context.Context, m services.NewMovement) (core.Movement, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO movements (id, concept, amount, date, user_id) VALUES (?, ?, ?, ?, ?)",
		id, m.Concept, m.Amount, m.Date.UTC().Format(dateFormat), m.UserID)
	if err != nil {
		return core.Movement{}, fmt.Errorf("insert movement: %w", err)
	}
	return r.GetMovement(ctx, id)
}

func (r *SQLiteRepository) UpdateMovement(ctx context.Context, id string, patch services.MovementPatch) (core.Movement, error) {
	sets := []string{"version = version + 1", "synced = 0", "sync_error = NULL"}
	var args []any
	if patch.Concept != nil {
		sets = append(sets, "concept = ?")
		args = append(args, *patch.Concept)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *patch.Amount)
	}
	if patch.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, patch.Date.UTC().Format(dateFormat))
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE movements SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		append(args, id)...)
	if err != nil {
		return core.Movement{}, fmt.Errorf("update movement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Movement{}, fmt.Errorf("update movement rows affected: %w", err)
	}
	if affected == 0 {
		return core.Movement{}, core.ErrNotFound
	}
	return r.GetMovement(ctx, id)
}

func (r *SQLiteRepository) DeleteMovement(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movements WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete movement rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) SumAmounts(ctx context.Context) (float64, error) {
	return r.sumWhere(ctx, "")
}

func (r *SQLiteRepository) SumIncome(ctx context.Context) (float64, error) {
	return r.sumWhere(ctx, " WHERE amount > 0")
}

func (r *SQLiteRepository) SumExpenses(ctx context.Context) (float64, error) {
	return r.sumWhere(ctx, " WHERE amount < 0")
}

func (r *SQLiteRepository) sumWhere(ctx context.Context, where string) (float64, error) {
	var sum float64
	query := "SELECT COALESCE(SUM(amount), 0) FROM movements" + where
	if err := r.db.QueryRowContext(ctx, query).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum movements: %w", err)
	}
	return sum, nil
}

func (r *SQLiteRepository) CountMovements(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movements").Scan(&count); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return count, nil
}

// ListUnsyncedMovements returns movements whose latest version has not yet
// been mirrored, oldest first. Used by the worker catch-up pass.
func (r *SQLiteRepository) ListUnsyncedMovements(ctx context.Context) ([]core.Movement, error) {
	query := "SELECT " + movementColumns +
		" FROM movements m LEFT JOIN users u ON u.id = m.user_id" +
		" WHERE m.synced = 0 ORDER BY m.created_at ASC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list unsynced movements: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

// MarkMovementSynced records a successful mirror write. The version guard
// keeps a stale acknowledgement from masking a newer unsynced edit.
func (r *SQLiteRepository) MarkMovementSynced(ctx context.Context, id string, version int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE movements SET synced = 1, sync_error = NULL WHERE id = ? AND version = ?",
		id, version)
	if err != nil {
		return fmt.Errorf("mark movement synced: %w", err)
	}
	return nil
}

// MarkMovementSyncError records a mirror failure for later inspection.
func (r *SQLiteRepository) MarkMovementSyncError(ctx context.Context, id string, message string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE movements SET sync_error = ? WHERE id = ?", message, id)
	if err != nil {
		return fmt.Errorf("mark movement sync error: %w", err)
	}
	return nil
}

const userColumns = `u.id, u.name, u.email, u.role,
	(SELECT COUNT(*) FROM movements m WHERE m.user_id = u.id)`

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.MovementCount)
	return u, err
}

func (r *SQLiteRepository) ListUsers(ctx context.Context, f services.UserFilters) ([]core.User, int, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Role != "" {
		clauses = append(clauses, "u.role = ?")
		args = append(args, string(f.Role))
	}
	if f.Search != "" {
		clauses = append(clauses, "(u.name LIKE ? OR u.email LIKE ?)")
		needle := "%" + f.Search + "%"
		args = append(args, needle, needle)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users u"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	page := f.Page.Normalize()
	query := "SELECT " + userColumns + " FROM users u" + where +
		" ORDER BY u.role ASC, u.name ASC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []core.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE u.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE u.email = ?", email))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = core.RoleUser
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, role) VALUES (?, ?, ?, ?)",
		u.ID, u.Name, u.Email, string(u.Role))
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return r.GetUser(ctx, u.ID)
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, id string, patch validation.SanitizedUser) (core.User, error) {
	var (
		sets []string
		args []any
	)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, string(*patch.Role))
	}
	if len(sets) == 0 {
		return r.GetUser(ctx, id)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		append(args, id)...)
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.User{}, fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return core.User{}, core.ErrNotFound
	}
	return r.GetUser(ctx, id)
}

func (r *SQLiteRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) CountUsersByRole(ctx context.Context, role core.Role) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role = ?", string(role)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return count, nil
}
