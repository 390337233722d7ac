package core

import "time"

// Stats aggregates all movements: income as a positive sum, expenses as the
// absolute value of the negative sum.
type Stats struct {
	TotalIncome    float64 `json:"totalIncome"`
	TotalExpenses  float64 `json:"totalExpenses"`
	Balance        float64 `json:"balance"`
	TotalMovements int64   `json:"totalMovements"`
}

// UserStats aggregates the user table by role.
type UserStats struct {
	TotalUsers int64 `json:"totalUsers"`
	AdminCount int64 `json:"adminCount"`
	UserCount  int64 `json:"userCount"`
}

// MonthlyData is one calendar-month bucket of a trailing-window report.
type MonthlyData struct {
	Month          string  `json:"month"`
	Year           int     `json:"year"`
	Income         float64 `json:"income"`
	Expenses       float64 `json:"expenses"`
	Balance        float64 `json:"balance"`
	MovementsCount int     `json:"movementsCount"`
}

// ReportsData is the aggregate payload consumed by reports and charts.
type ReportsData struct {
	Balance        float64       `json:"balance"`
	TotalIncome    float64       `json:"totalIncome"`
	TotalExpenses  float64       `json:"totalExpenses"`
	TotalMovements int64         `json:"totalMovements"`
	MonthlyData    []MonthlyData `json:"monthlyData"`
}

// MovementCSVRow is one exported line of the movements report.
type MovementCSVRow struct {
	Concept string
	Amount  float64
	Date    time.Time
	User    string
	Type    string
}
