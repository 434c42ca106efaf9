package timebank

import (
	"context"
	"time"
)

type TimeBankRepository interface {
	// Append inserts an entry. Entries are immutable once written.
	Append(ctx context.Context, entry TimeBankEntry) (TimeBankEntry, error)

	// Balance returns the running balance in minutes for the employee,
	// optionally as of an instant (zero time means now).
	Balance(ctx context.Context, employeeID string, asOf time.Time) (int, error)

	// SumBySource returns the net minutes already posted for one employee
	// day. Used to compute adjustment deltas after recomputation.
	SumBySource(ctx context.Context, employeeID string, sourceDate time.Time) (int, error)

	// LatestBySource returns the most recent entry for the employee day, or
	// nil when none has been posted yet.
	LatestBySource(ctx context.Context, employeeID string, sourceDate time.Time) (*TimeBankEntry, error)

	// ListByEmployee returns entries ordered by creation, oldest first.
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]TimeBankEntry, error)
}
