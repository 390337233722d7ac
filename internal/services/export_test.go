package services

import "time"

// SetClock overrides the report time source for deterministic window
// tests.
func (s *ReportService) SetClock(now func() time.Time) { s.now = now }
