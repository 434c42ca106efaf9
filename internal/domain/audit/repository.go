package audit

import "context"

type AuditRepository interface {
	// Append writes a record. Records are immutable once written; there is
	// deliberately no update or delete.
	Append(ctx context.Context, record AuditRecord) (AuditRecord, error)

	// ListByTarget returns the full history for one target, oldest first.
	// Re-corrections chain here rather than overwriting earlier values.
	ListByTarget(ctx context.Context, targetType, targetID string) ([]AuditRecord, error)
}
