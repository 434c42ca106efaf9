package punch

import (
	"context"
)

// IngestService accepts clock events and assigns them a place in the day's
// punch cycle.
type IngestService interface {
	// Record accepts a live punch. Fails with ErrOutOfOrderPunch when the
	// timestamp is earlier than the employee's latest punch of the day.
	Record(ctx context.Context, req RecordPunchRequest) (Punch, error)

	// Import accepts one AFD terminal record through the same cycle and
	// ordering rules as Record.
	Import(ctx context.Context, req ImportPunchRequest) (Punch, error)
}

// WorkflowService is the correction and approval state machine. Every
// transition appends an immutable audit record.
type WorkflowService interface {
	Approve(ctx context.Context, req ApprovePunchRequest) (Punch, error)
	Reject(ctx context.Context, req RejectPunchRequest) (Punch, error)

	// Correct amends a punch time. Refuses with ErrMissingJustification when
	// the justification is empty. The first pre-correction time is preserved
	// on the punch; the full chain lives in the audit trail.
	Correct(ctx context.Context, req CorrectPunchRequest) (Punch, error)
}
