package timesheet

import "time"

// DailyComputation is the derived summary of one employee day. It is never a
// source of truth: it is recomputed from the persisted punches and the
// governing shift rule whenever either changes.
type DailyComputation struct {
	EmployeeID      string
	Date            time.Time
	WorkedMinutes   int
	BreakMinutes    int
	OvertimeMinutes int
	DeficitMinutes  int

	// Incomplete marks a day with an unterminated segment. Incomplete days
	// are excluded from finalized totals and time-bank posting.
	Incomplete bool

	// NeedsReview marks a day whose totals must not be consumed by payroll
	// until inconsistencies and pending approvals are resolved.
	NeedsReview bool

	Inconsistencies []Inconsistency
}

type InconsistencyCode string

const (
	UnexpectedPunch    InconsistencyCode = "unexpected_punch"
	MissingClockOut    InconsistencyCode = "missing_clock_out"
	MissingBreak       InconsistencyCode = "missing_break"
	BreakBelowMinimum  InconsistencyCode = "break_below_minimum"
	OvertimeOverCap    InconsistencyCode = "overtime_over_cap"
	OvertimeNotAllowed InconsistencyCode = "overtime_not_allowed"
)

// Inconsistency is a non-fatal irregularity found during hour calculation.
// Totals are still produced best-effort alongside it.
type Inconsistency struct {
	Code    InconsistencyCode `json:"code"`
	Message string            `json:"message"`
	PunchID string            `json:"punch_id,omitempty"`
}

type DailyComputationResponse struct {
	EmployeeID      string          `json:"employee_id"`
	Date            string          `json:"date"`
	WorkedMinutes   int             `json:"worked_minutes"`
	BreakMinutes    int             `json:"break_minutes"`
	OvertimeMinutes int             `json:"overtime_minutes"`
	DeficitMinutes  int             `json:"deficit_minutes"`
	Incomplete      bool            `json:"incomplete"`
	NeedsReview     bool            `json:"needs_review"`
	Inconsistencies []Inconsistency `json:"inconsistencies"`
}

func ToResponse(c DailyComputation) DailyComputationResponse {
	inc := c.Inconsistencies
	if inc == nil {
		inc = []Inconsistency{}
	}
	return DailyComputationResponse{
		EmployeeID:      c.EmployeeID,
		Date:            c.Date.Format("2006-01-02"),
		WorkedMinutes:   c.WorkedMinutes,
		BreakMinutes:    c.BreakMinutes,
		OvertimeMinutes: c.OvertimeMinutes,
		DeficitMinutes:  c.DeficitMinutes,
		Incomplete:      c.Incomplete,
		NeedsReview:     c.NeedsReview,
		Inconsistencies: inc,
	}
}
