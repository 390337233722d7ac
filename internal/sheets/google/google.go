// Package google appends movement rows to a Google Sheets spreadsheet
// using service account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"
)

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.MovementWriter = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Movements"
	}

	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case cfg.CredentialsJSON != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// Append writes one movement row and returns the updated range as the row
// reference.
func (c *Client) Append(ctx context.Context, m core.Movement) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row := []any{
		m.ID,
		m.Concept,
		m.Amount,
		m.Date.Format("2006-01-02"),
		m.User.DisplayName(),
		m.Type(),
		strconv.FormatInt(m.Version, 10),
	}

	resp, err := c.appendRow(ctx, row)
	if err != nil {
		return "", fmt.Errorf("append movement row: %w", err)
	}

	rowRef := ""
	if resp.Updates != nil {
		rowRef = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Appended movement to sheet",
		"id", m.ID,
		"version", m.Version,
		"range", rowRef)
	return rowRef, nil
}

// AppendTombstone records a deletion marker row for a movement that no
// longer exists in the database.
func (c *Client) AppendTombstone(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{id, "", "", time.Now().Format("2006-01-02"), "", "deleted", ""}
	if _, err := c.appendRow(ctx, row); err != nil {
		return fmt.Errorf("append tombstone row: %w", err)
	}

	slog.InfoContext(ctx, "Appended deletion marker to sheet", "id", id)
	return nil
}

func (c *Client) appendRow(ctx context.Context, row []any) (*gsheet.AppendValuesResponse, error) {
	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	body := &gsheet.ValueRange{Values: [][]any{row}}

	return c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, rng, body).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
}
