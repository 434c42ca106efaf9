package punch

import (
	"context"
	"time"
)

// DayRef identifies one employee work day.
type DayRef struct {
	EmployeeID string
	Date       time.Time
}

type PunchRepository interface {
	Create(ctx context.Context, p Punch) (Punch, error)
	Update(ctx context.Context, p Punch) error
	GetByID(ctx context.Context, id string) (Punch, error)

	// ListByEmployeeAndDate returns every punch of the day, ordered by time.
	ListByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]Punch, error)

	// ExistsBySource reports whether a punch with the same employee, instant
	// and device serial already exists. Used for AFD duplicate detection.
	ExistsBySource(ctx context.Context, employeeID string, at time.Time, deviceSerial string) (bool, error)

	// ListForExport returns exportable punches in the range ordered by
	// (employee_id, time, id) so repeated exports are byte-identical.
	ListForExport(ctx context.Context, from, to time.Time, employeeIDs []string) ([]Punch, error)

	List(ctx context.Context, filter PunchFilter) ([]Punch, int64, error)

	// ListUnclosedDays returns employee days before the cutoff whose last
	// punch is not a clock_out.
	ListUnclosedDays(ctx context.Context, before time.Time) ([]DayRef, error)
}
