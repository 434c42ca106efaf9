package punch

import "time"

// Punch is a single clock event. It is created by the ingest service or the
// AFD import and only ever amended through the correction workflow.
type Punch struct {
	ID         string
	EmployeeID string
	Date       time.Time // work day, truncated to midnight UTC
	Time       time.Time // absolute instant, stored UTC
	Type       EntryType
	Method     EntryMethod

	Status         Status
	ApprovalStatus ApprovalStatus

	IsEdited     bool
	OriginalTime *time.Time // first pre-correction value, never overwritten
	EditReason   *string

	Latitude         *float64
	Longitude        *float64
	LocationAccuracy *float64
	DeviceInfo       *string

	ComplianceTag  string
	DeviceSerial   *string
	SourceSequence *int64 // AFD NSR for imported records
	SourceChecksum *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type EntryType string

const (
	EntryClockIn    EntryType = "clock_in"
	EntryBreakStart EntryType = "break_start"
	EntryBreakEnd   EntryType = "break_end"
	EntryClockOut   EntryType = "clock_out"
)

// entryCycle is the fixed punch cycle. It wraps from clock_out back to
// clock_in for the next work segment of the same day.
var entryCycle = map[EntryType]EntryType{
	EntryClockIn:    EntryBreakStart,
	EntryBreakStart: EntryBreakEnd,
	EntryBreakEnd:   EntryClockOut,
	EntryClockOut:   EntryClockIn,
}

// Next returns the entry type that follows t in the punch cycle.
func (t EntryType) Next() EntryType {
	next, ok := entryCycle[t]
	if !ok {
		return EntryClockIn
	}
	return next
}

func (t EntryType) Valid() bool {
	_, ok := entryCycle[t]
	return ok
}

var EntryTypeValues = []string{
	string(EntryClockIn),
	string(EntryBreakStart),
	string(EntryBreakEnd),
	string(EntryClockOut),
}

type EntryMethod string

const (
	MethodTerminalImport EntryMethod = "terminal_import"
	MethodDevice         EntryMethod = "portaria671_device"
	MethodMobile         EntryMethod = "mobile"
	MethodWeb            EntryMethod = "web"
	MethodManual         EntryMethod = "manual"
)

var EntryMethodValues = []string{
	string(MethodTerminalImport),
	string(MethodDevice),
	string(MethodMobile),
	string(MethodWeb),
	string(MethodManual),
}

func (m EntryMethod) Valid() bool {
	for _, v := range EntryMethodValues {
		if v == string(m) {
			return true
		}
	}
	return false
}

// ComplianceTag returns the Portaria 671 origin marker for the method.
// Device-originated punches additionally carry the device serial.
func (m EntryMethod) ComplianceTag() string {
	switch m {
	case MethodTerminalImport:
		return "REP-C"
	case MethodDevice:
		return "REP-A"
	case MethodMobile, MethodWeb:
		return "REP-P"
	default:
		return "MANUAL"
	}
}

// RequiresApproval reports whether a punch recorded with this method starts
// out pending managerial approval. Terminal and device records are the
// regulatory source of truth and never require it; manually keyed punches
// always do.
func (m EntryMethod) RequiresApproval() bool {
	return m == MethodManual
}

type Status string

const (
	StatusValid         Status = "valid"
	StatusPendingReview Status = "pending_review"
	StatusRejected      Status = "rejected"
	StatusInconsistent  Status = "inconsistent"
)

type ApprovalStatus string

const (
	ApprovalNotRequired ApprovalStatus = "not_required"
	ApprovalPending     ApprovalStatus = "pending"
	ApprovalApproved    ApprovalStatus = "approved"
	ApprovalRejected    ApprovalStatus = "rejected"
)

// CountsTowardTotals reports whether the punch participates in hour
// calculation. Rejected punches are retained for audit but excluded.
func (p Punch) CountsTowardTotals() bool {
	return p.Status != StatusRejected && p.ApprovalStatus != ApprovalRejected
}

// Actor identifies who is performing a workflow operation. CanManage is the
// authorization capability resolved by the caller; the engine does not
// resolve roles itself.
type Actor struct {
	ID        string
	CanManage bool
}
