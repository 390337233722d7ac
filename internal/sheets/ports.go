package sheets

import (
	"context"

	"finanzas/internal/core"
)

// Ports for the spreadsheet mirror.
type (
	// MovementWriter appends movement rows to the mirror sheet.
	MovementWriter interface {
		Append(ctx context.Context, m core.Movement) (rowRef string, err error)
		// AppendTombstone records a deletion; the source row no longer
		// exists in the database at this point.
		AppendTombstone(ctx context.Context, id string) error
	}
)
