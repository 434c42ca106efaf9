package punch

import "errors"

// Punch domain errors
var (
	// Ingest errors
	ErrOutOfOrderPunch = errors.New("punch timestamp is earlier than the latest punch for the day")
	ErrFutureTimestamp = errors.New("punch timestamp is in the future")
	ErrDuplicatePunch  = errors.New("a punch with the same employee, instant and device already exists")

	// Workflow errors
	ErrMissingJustification = errors.New("a correction requires a non-empty justification")
	ErrNotPendingApproval   = errors.New("punch is not pending approval")
	ErrAlreadyProcessed     = errors.New("punch has already been approved or rejected")
	ErrNotAuthorized        = errors.New("actor is not authorized to manage punches")

	// General errors
	ErrPunchNotFound = errors.New("punch not found")

	// ErrOperationTimeout is returned when the per-employee-day lock could not
	// be acquired within the configured timeout. The caller owns retry policy.
	ErrOperationTimeout = errors.New("operation timed out waiting for employee day lock")
)
