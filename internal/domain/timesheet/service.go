package timesheet

import (
	"context"
	"time"
)

// TimesheetService exposes the hour calculation engine over the persisted
// punch set.
type TimesheetService interface {
	// ComputeDay derives the day's totals on demand. Read-only.
	ComputeDay(ctx context.Context, employeeID string, date time.Time) (DailyComputation, error)

	// Refresh recomputes the day and reconciles the time-bank ledger with
	// the new totals. Called after every ingest or workflow transition that
	// touches the day. May return *timebank.CapExceededError alongside a
	// valid computation.
	Refresh(ctx context.Context, employeeID string, date time.Time) (DailyComputation, error)
}
