package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pontoweb/ponto-backend-go/internal/domain/timebank"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/database"
)

type timeBankRepository struct {
	db *database.DB
}

func NewTimeBankRepository(db *database.DB) timebank.TimeBankRepository {
	return &timeBankRepository{db: db}
}

// Append implements timebank.TimeBankRepository. There is no UPDATE or
// DELETE path for this table anywhere in the repository.
func (r *timeBankRepository) Append(ctx context.Context, entry timebank.TimeBankEntry) (timebank.TimeBankEntry, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO time_bank_entries (
			id, employee_id, period, kind, delta_minutes, resulting_balance_minutes,
			source_date, adjusts_entry_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`,
		entry.ID, entry.EmployeeID, entry.Period, entry.Kind,
		entry.DeltaMinutes, entry.ResultingBalanceMinutes,
		entry.SourceDate, entry.AdjustsEntryID,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return timebank.TimeBankEntry{}, fmt.Errorf("failed to append time bank entry: %w", err)
	}
	return entry, nil
}

// Balance implements timebank.TimeBankRepository.
func (r *timeBankRepository) Balance(ctx context.Context, employeeID string, asOf time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT COALESCE(SUM(delta_minutes), 0) FROM time_bank_entries WHERE employee_id = $1`
	args := []interface{}{employeeID}
	if !asOf.IsZero() {
		query += ` AND created_at <= $2`
		args = append(args, asOf)
	}

	var balance int
	if err := q.QueryRow(ctx, query, args...).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to compute time bank balance: %w", err)
	}
	return balance, nil
}

// SumBySource implements timebank.TimeBankRepository.
func (r *timeBankRepository) SumBySource(ctx context.Context, employeeID string, sourceDate time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	var sum int
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(delta_minutes), 0)
		FROM time_bank_entries
		WHERE employee_id = $1 AND source_date = $2
	`, employeeID, sourceDate).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum time bank postings for day: %w", err)
	}
	return sum, nil
}

// LatestBySource implements timebank.TimeBankRepository.
func (r *timeBankRepository) LatestBySource(ctx context.Context, employeeID string, sourceDate time.Time) (*timebank.TimeBankEntry, error) {
	q := GetQuerier(ctx, r.db)

	var e timebank.TimeBankEntry
	err := q.QueryRow(ctx, `
		SELECT id, employee_id, period, kind, delta_minutes, resulting_balance_minutes,
		       source_date, adjusts_entry_id, created_at
		FROM time_bank_entries
		WHERE employee_id = $1 AND source_date = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, employeeID, sourceDate).Scan(
		&e.ID, &e.EmployeeID, &e.Period, &e.Kind,
		&e.DeltaMinutes, &e.ResultingBalanceMinutes,
		&e.SourceDate, &e.AdjustsEntryID, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest time bank posting for day: %w", err)
	}
	return &e, nil
}

// ListByEmployee implements timebank.TimeBankRepository.
func (r *timeBankRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]timebank.TimeBankEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, period, kind, delta_minutes, resulting_balance_minutes,
		       source_date, adjusts_entry_id, created_at
		FROM time_bank_entries
		WHERE employee_id = $1
	`
	args := []interface{}{employeeID}
	if !from.IsZero() {
		query += fmt.Sprintf(` AND source_date >= $%d`, len(args)+1)
		args = append(args, from)
	}
	if !to.IsZero() {
		query += fmt.Sprintf(` AND source_date <= $%d`, len(args)+1)
		args = append(args, to)
	}
	query += ` ORDER BY created_at, id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list time bank entries: %w", err)
	}
	defer rows.Close()

	var out []timebank.TimeBankEntry
	for rows.Next() {
		var e timebank.TimeBankEntry
		if err := rows.Scan(
			&e.ID, &e.EmployeeID, &e.Period, &e.Kind,
			&e.DeltaMinutes, &e.ResultingBalanceMinutes,
			&e.SourceDate, &e.AdjustsEntryID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan time bank entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
