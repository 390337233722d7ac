// Package worker mirrors movement writes from SQLite into the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/sheets"
)

// Store is the storage surface the worker needs.
type Store interface {
	GetMovement(ctx context.Context, id string) (core.Movement, error)
	ListUnsyncedMovements(ctx context.Context) ([]core.Movement, error)
	MarkMovementSynced(ctx context.Context, id string, version int64) error
	MarkMovementSyncError(ctx context.Context, id string, message string) error
}

// SyncWorker consumes sync messages and writes movement rows to the
// mirror sheet, tracking per-row sync state in the database.
type SyncWorker struct {
	store     Store
	writer    sheets.MovementWriter
	batchSize int
}

func NewSyncWorker(store Store, writer sheets.MovementWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleMessage dispatches one queue message by kind.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	switch msg.Kind {
	case amqp.KindMovementSync:
		return w.HandleSyncMessage(ctx, msg)
	case amqp.KindMovementDelete:
		return w.HandleDeleteMessage(ctx, msg)
	default:
		slog.WarnContext(ctx, "Dropping message with unknown kind", "kind", msg.Kind, "id", msg.ID)
		return nil
	}
}

// HandleSyncMessage mirrors the current state of one movement. The row is
// re-read from the database: the message only announces that something
// changed.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID, "version", msg.Version)

	m, err := w.store.GetMovement(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before the message was consumed; the delete
			// message will handle the mirror.
			slog.WarnContext(ctx, "Movement gone before sync, skipping", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get movement: %w", err)
	}

	return w.syncMovement(ctx, m)
}

// HandleDeleteMessage appends a tombstone row for a deleted movement.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if err := w.writer.AppendTombstone(ctx, msg.ID); err != nil {
		return fmt.Errorf("append tombstone: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored movement deletion", "id", msg.ID)
	return nil
}

func (w *SyncWorker) syncMovement(ctx context.Context, m core.Movement) error {
	rowRef, err := w.writer.Append(ctx, m)
	if err != nil {
		if markErr := w.store.MarkMovementSyncError(ctx, m.ID, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record sync error", "id", m.ID, "error", markErr)
		}
		return fmt.Errorf("append movement to sheet: %w", err)
	}

	if err := w.store.MarkMovementSynced(ctx, m.ID, m.Version); err != nil {
		return fmt.Errorf("mark movement synced: %w", err)
	}

	slog.InfoContext(ctx, "Movement mirrored",
		log.FieldMovementID, m.ID,
		log.FieldVersion, m.Version,
		log.FieldSheetsRef, rowRef)
	return nil
}

// ProcessPendingMovements syncs up to one batch of rows whose latest
// version never reached the sheet. Backup path for lost queue messages.
func (w *SyncWorker) ProcessPendingMovements(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck drains pending rows at worker startup with a larger
// batch, recovering from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.store.ListUnsyncedMovements(ctx)
	if err != nil {
		return fmt.Errorf("list unsynced movements: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending movements found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending movements on startup", "count", len(pending))

	limit := w.batchSize * 5
	if len(pending) > limit {
		pending = pending[:limit]
	}

	synced := 0
	failed := 0
	for _, m := range pending {
		if err := w.syncMovement(ctx, m); err != nil {
			slog.ErrorContext(ctx, "Failed to sync movement during startup", "id", m.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) error {
	pending, err := w.store.ListUnsyncedMovements(ctx)
	if err != nil {
		return fmt.Errorf("list unsynced movements: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	slog.InfoContext(ctx, "Processing pending movements", "count", len(pending))

	for _, m := range pending {
		if err := w.syncMovement(ctx, m); err != nil {
			slog.ErrorContext(ctx, "Failed to sync movement", "id", m.ID, "error", err)
		}
	}
	return nil
}

// RunPeriodicSync runs the backup sweep until the context ends.
func (w *SyncWorker) RunPeriodicSync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessPendingMovements(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}
