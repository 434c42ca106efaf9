package compliance

import "time"

// ImportReport summarizes one AFD import run. Malformed and duplicate lines
// are collected here, never silently skipped; a partial run after
// cancellation still returns the report for what was applied.
type ImportReport struct {
	DeviceSerial string         `json:"device_serial"`
	TotalLines   int            `json:"total_lines"`
	Applied      []AppliedLine  `json:"applied"`
	Rejected     []RejectedLine `json:"rejected"`
	Cancelled    bool           `json:"cancelled"`
}

type AppliedLine struct {
	Line       int    `json:"line"`
	Sequence   int64  `json:"sequence"`
	PunchID    string `json:"punch_id"`
	EmployeeID string `json:"employee_id"`
}

type RejectedLine struct {
	Line     int    `json:"line"`
	Sequence int64  `json:"sequence,omitempty"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

// Rejection reasons.
const (
	ReasonMalformed      = "malformed_record"
	ReasonDuplicate      = "duplicate_record"
	ReasonOutOfOrder     = "out_of_order_punch"
	ReasonUnknownEmployee = "unknown_employee"
	ReasonNoShiftRule    = "no_active_shift_rule"
)

// ExportRequest scopes one AEJ export run.
type ExportRequest struct {
	From        time.Time
	To          time.Time
	EmployeeIDs []string // empty means all employees in range
	ActorID     string
}
