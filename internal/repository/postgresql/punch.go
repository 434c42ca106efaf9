package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/database"
)

type punchRepository struct {
	db *database.DB
}

func NewPunchRepository(db *database.DB) punch.PunchRepository {
	return &punchRepository{db: db}
}

const punchColumns = `
	id, employee_id, date, time, type, method,
	status, approval_status,
	is_edited, original_time, edit_reason,
	latitude, longitude, location_accuracy, device_info,
	compliance_tag, device_serial, source_sequence, source_checksum,
	created_at, updated_at
`

func scanPunch(row pgx.Row) (punch.Punch, error) {
	var p punch.Punch
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.Date, &p.Time, &p.Type, &p.Method,
		&p.Status, &p.ApprovalStatus,
		&p.IsEdited, &p.OriginalTime, &p.EditReason,
		&p.Latitude, &p.Longitude, &p.LocationAccuracy, &p.DeviceInfo,
		&p.ComplianceTag, &p.DeviceSerial, &p.SourceSequence, &p.SourceChecksum,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// Create implements punch.PunchRepository.
func (r *punchRepository) Create(ctx context.Context, p punch.Punch) (punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO punches (
			id, employee_id, date, time, type, method,
			status, approval_status,
			is_edited, original_time, edit_reason,
			latitude, longitude, location_accuracy, device_info,
			compliance_tag, device_serial, source_sequence, source_checksum
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		p.ID, p.EmployeeID, p.Date, p.Time, p.Type, p.Method,
		p.Status, p.ApprovalStatus,
		p.IsEdited, p.OriginalTime, p.EditReason,
		p.Latitude, p.Longitude, p.LocationAccuracy, p.DeviceInfo,
		p.ComplianceTag, p.DeviceSerial, p.SourceSequence, p.SourceChecksum,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return punch.Punch{}, fmt.Errorf("failed to create punch: %w", err)
	}

	return p, nil
}

// Update implements punch.PunchRepository.
func (r *punchRepository) Update(ctx context.Context, p punch.Punch) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE punches SET
			date = $2, time = $3, type = $4,
			status = $5, approval_status = $6,
			is_edited = $7, original_time = $8, edit_reason = $9,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		p.ID, p.Date, p.Time, p.Type,
		p.Status, p.ApprovalStatus,
		p.IsEdited, p.OriginalTime, p.EditReason,
	)
	if err != nil {
		return fmt.Errorf("failed to update punch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return punch.ErrPunchNotFound
	}
	return nil
}

// GetByID implements punch.PunchRepository.
func (r *punchRepository) GetByID(ctx context.Context, id string) (punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPunch(q.QueryRow(ctx,
		`SELECT `+punchColumns+` FROM punches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return punch.Punch{}, punch.ErrPunchNotFound
		}
		return punch.Punch{}, fmt.Errorf("failed to get punch: %w", err)
	}
	return p, nil
}

// ListByEmployeeAndDate implements punch.PunchRepository.
func (r *punchRepository) ListByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx,
		`SELECT `+punchColumns+`
		 FROM punches
		 WHERE employee_id = $1 AND date = $2
		 ORDER BY time, id`,
		employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list punches for day: %w", err)
	}
	defer rows.Close()

	return collectPunches(rows)
}

// ExistsBySource implements punch.PunchRepository.
func (r *punchRepository) ExistsBySource(ctx context.Context, employeeID string, at time.Time, deviceSerial string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM punches
			WHERE employee_id = $1 AND time = $2 AND device_serial = $3
		)`,
		employeeID, at, deviceSerial).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check punch source: %w", err)
	}
	return exists, nil
}

// ListForExport implements punch.PunchRepository.
func (r *punchRepository) ListForExport(ctx context.Context, from, to time.Time, employeeIDs []string) ([]punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + punchColumns + `
		FROM punches
		WHERE status = 'valid' AND date BETWEEN $1 AND $2
	`
	args := []interface{}{from, to}
	if len(employeeIDs) > 0 {
		query += ` AND employee_id = ANY($3)`
		args = append(args, employeeIDs)
	}
	query += ` ORDER BY employee_id, time, id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list punches for export: %w", err)
	}
	defer rows.Close()

	return collectPunches(rows)
}

// List implements punch.PunchRepository.
func (r *punchRepository) List(ctx context.Context, filter punch.PunchFilter) ([]punch.Punch, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"1=1"}
	args := []interface{}{}
	argID := 1

	addCondition := func(cond string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argID))
		args = append(args, value)
		argID++
	}

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		addCondition("employee_id = $%d", *filter.EmployeeID)
	}
	if filter.Status != nil && *filter.Status != "" {
		addCondition("status = $%d", *filter.Status)
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		addCondition("date >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		addCondition("date <= $%d", *filter.EndDate)
	}

	where := strings.Join(conditions, " AND ")

	var total int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM punches WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count punches: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	query := fmt.Sprintf(
		`SELECT `+punchColumns+` FROM punches WHERE %s ORDER BY time, id LIMIT $%d OFFSET $%d`,
		where, argID, argID+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list punches: %w", err)
	}
	defer rows.Close()

	punches, err := collectPunches(rows)
	if err != nil {
		return nil, 0, err
	}
	return punches, total, nil
}

// ListUnclosedDays implements punch.PunchRepository.
func (r *punchRepository) ListUnclosedDays(ctx context.Context, before time.Time) ([]punch.DayRef, error) {
	q := GetQuerier(ctx, r.db)

	// A day is unclosed when its latest non-rejected punch is not a
	// clock_out.
	rows, err := q.Query(ctx, `
		SELECT DISTINCT ON (employee_id, date) employee_id, date, type
		FROM punches
		WHERE date < $1 AND status <> 'rejected'
		ORDER BY employee_id, date, time DESC, id DESC
	`, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list unclosed days: %w", err)
	}
	defer rows.Close()

	var out []punch.DayRef
	for rows.Next() {
		var ref punch.DayRef
		var lastType punch.EntryType
		if err := rows.Scan(&ref.EmployeeID, &ref.Date, &lastType); err != nil {
			return nil, fmt.Errorf("failed to scan unclosed day: %w", err)
		}
		if lastType != punch.EntryClockOut {
			out = append(out, ref)
		}
	}
	return out, rows.Err()
}

func collectPunches(rows pgx.Rows) ([]punch.Punch, error) {
	var out []punch.Punch
	for rows.Next() {
		p, err := scanPunch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
