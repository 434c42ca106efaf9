package postgresql

import (
	"context"
	"fmt"

	"github.com/pontoweb/ponto-backend-go/internal/domain/audit"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/database"
)

type auditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) audit.AuditRepository {
	return &auditRepository{db: db}
}

// Append implements audit.AuditRepository. Records are immutable; the table
// has no update path.
func (r *auditRepository) Append(ctx context.Context, record audit.AuditRecord) (audit.AuditRecord, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO audit_records (
			id, actor_id, action, target_type, target_id,
			before_value, after_value, justification
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`,
		record.ID, record.ActorID, record.Action, record.TargetType, record.TargetID,
		record.BeforeValue, record.AfterValue, record.Justification,
	).Scan(&record.CreatedAt)
	if err != nil {
		return audit.AuditRecord{}, fmt.Errorf("failed to append audit record: %w", err)
	}
	return record, nil
}

// ListByTarget implements audit.AuditRepository.
func (r *auditRepository) ListByTarget(ctx context.Context, targetType, targetID string) ([]audit.AuditRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, actor_id, action, target_type, target_id,
		       before_value, after_value, justification, created_at
		FROM audit_records
		WHERE target_type = $1 AND target_id = $2
		ORDER BY created_at, id
	`, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	var out []audit.AuditRecord
	for rows.Next() {
		var rec audit.AuditRecord
		if err := rows.Scan(
			&rec.ID, &rec.ActorID, &rec.Action, &rec.TargetType, &rec.TargetID,
			&rec.BeforeValue, &rec.AfterValue, &rec.Justification, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
