package timebank

import (
	"context"
	"time"

	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timesheet"
)

// TimeBankService owns the append-only overtime/deficit ledger.
type TimeBankService interface {
	// PostDaily reconciles the ledger with a finalized daily computation.
	// Re-posting after a recomputation appends an adjustment entry for the
	// difference; nothing is edited in place. Returns the appended entry, or
	// nil when the ledger already matches. A *CapExceededError is returned
	// together with the partially posted entry when the cap is hit.
	PostDaily(ctx context.Context, comp timesheet.DailyComputation, rule schedule.ShiftRule) (*TimeBankEntry, error)

	// Balance returns the running balance in minutes as of an instant
	// (zero time means now). Always a consistent snapshot of the ledger.
	Balance(ctx context.Context, employeeID string, asOf time.Time) (int, error)

	// Statement lists the employee's entries in the range, oldest first.
	Statement(ctx context.Context, employeeID string, from, to time.Time) ([]TimeBankEntry, error)
}
