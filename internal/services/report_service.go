package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
)

// ReportService builds aggregate reports and the CSV export from the
// movement store.
type ReportService struct {
	store     MovementStore
	movements *MovementService

	// now is swappable for deterministic window tests.
	now func() time.Time
}

func NewReportService(store MovementStore) *ReportService {
	return &ReportService{
		store:     store,
		movements: NewMovementService(store, nil),
		now:       time.Now,
	}
}

// ReportsData computes overall stats plus monthly buckets for a trailing
// window of calendar months. The window starts on the first day of the
// month `months` months before now, with the current month counted as
// month zero and the time of day zeroed.
func (s *ReportService) ReportsData(ctx context.Context, months int) (core.ReportsData, error) {
	stats, err := s.movements.Stats(ctx)
	if err != nil {
		return core.ReportsData{}, err
	}

	now := s.now()
	start := time.Date(now.Year(), now.Month()-time.Month(months), 1, 0, 0, 0, 0, now.Location())

	movements, err := s.store.ListMovementsSince(ctx, start)
	if err != nil {
		return core.ReportsData{}, fmt.Errorf("list movements since %s: %w", start.Format("2006-01-02"), err)
	}

	return core.ReportsData{
		Balance:        stats.Balance,
		TotalIncome:    stats.TotalIncome,
		TotalExpenses:  stats.TotalExpenses,
		TotalMovements: stats.TotalMovements,
		MonthlyData:    bucketByMonth(movements),
	}, nil
}

type monthKey struct {
	year  int
	month time.Month
}

// bucketByMonth groups movements into calendar-month aggregates, ordered
// chronologically ascending.
func bucketByMonth(movements []core.Movement) []core.MonthlyData {
	buckets := make(map[monthKey]*core.MonthlyData)
	for _, m := range movements {
		key := monthKey{year: m.Date.Year(), month: m.Date.Month()}
		data, ok := buckets[key]
		if !ok {
			data = &core.MonthlyData{
				Month: key.month.String(),
				Year:  key.year,
			}
			buckets[key] = data
		}

		data.MovementsCount++
		if m.Amount > 0 {
			data.Income += m.Amount
		} else {
			data.Expenses += math.Abs(m.Amount)
		}
		data.Balance = data.Income - data.Expenses
	}

	keys := make([]monthKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]core.MonthlyData, 0, len(keys))
	for _, k := range keys {
		out = append(out, *buckets[k])
	}
	return out
}

// MovementsForCSV returns every movement shaped as an export row, newest
// first.
func (s *ReportService) MovementsForCSV(ctx context.Context) ([]core.MovementCSVRow, error) {
	movements, err := s.store.ListAllMovements(ctx)
	if err != nil {
		return nil, fmt.Errorf("list movements for export: %w", err)
	}

	rows := make([]core.MovementCSVRow, len(movements))
	for i, m := range movements {
		rows[i] = core.MovementCSVRow{
			Concept: m.Concept,
			Amount:  math.Abs(m.Amount),
			Date:    m.Date,
			User:    m.User.DisplayName(),
			Type:    m.Type(),
		}
	}
	return rows, nil
}

// GenerateCSV renders export rows as CSV text. Text fields are quoted;
// embedded quotes are doubled.
func GenerateCSV(rows []core.MovementCSVRow) string {
	var b strings.Builder
	b.WriteString("Concept,Amount,Date,User,Type")
	for _, row := range rows {
		b.WriteByte('\n')
		b.WriteString(csvQuote(row.Concept))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(row.Amount, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(row.Date.Format("2006-01-02"))
		b.WriteByte(',')
		b.WriteString(csvQuote(row.User))
		b.WriteByte(',')
		b.WriteString(row.Type)
	}
	return b.String()
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
