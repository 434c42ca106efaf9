package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/database"
)

type shiftRuleRepository struct {
	db *database.DB
}

func NewShiftRuleRepository(db *database.DB) schedule.ShiftRuleRepository {
	return &shiftRuleRepository{db: db}
}

const shiftRuleColumns = `
	id, name, country, type, weekly_hours, daily_hours, tolerance_minutes, is_active,
	break_mandatory, break_min_duration_minutes, break_auto_deduct, break_flexible,
	overtime_allowed, overtime_max_daily_minutes, overtime_rate_table, overtime_requires_approval,
	time_bank_enabled, time_bank_compensation_ratio, time_bank_cap_hours,
	holiday_work_policy, created_at, updated_at
`

func scanShiftRule(row pgx.Row) (schedule.ShiftRule, error) {
	var rule schedule.ShiftRule
	var rateTable []byte
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Country, &rule.Type,
		&rule.WeeklyHours, &rule.DailyHours, &rule.ToleranceMinutes, &rule.IsActive,
		&rule.Break.Mandatory, &rule.Break.MinBreakDurationMinutes, &rule.Break.AutoDeduct, &rule.Break.Flexible,
		&rule.Overtime.Allowed, &rule.Overtime.MaxDailyOvertimeMinutes, &rateTable, &rule.Overtime.RequiresApproval,
		&rule.TimeBank.Enabled, &rule.TimeBank.CompensationRatio, &rule.TimeBank.CapHours,
		&rule.Holiday, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return schedule.ShiftRule{}, err
	}
	if len(rateTable) > 0 {
		if err := json.Unmarshal(rateTable, &rule.Overtime.RateTable); err != nil {
			return schedule.ShiftRule{}, fmt.Errorf("failed to decode overtime rate table: %w", err)
		}
	}
	return rule, nil
}

// Create implements schedule.ShiftRuleRepository. Rule and weekday
// templates are written in one transaction.
func (r *shiftRuleRepository) Create(ctx context.Context, rule schedule.ShiftRule) (schedule.ShiftRule, error) {
	rateTable, err := json.Marshal(rule.Overtime.RateTable)
	if err != nil {
		return schedule.ShiftRule{}, fmt.Errorf("failed to encode overtime rate table: %w", err)
	}

	err = WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)

		err := q.QueryRow(txCtx, `
			INSERT INTO shift_rules (
				id, name, country, type, weekly_hours, daily_hours, tolerance_minutes, is_active,
				break_mandatory, break_min_duration_minutes, break_auto_deduct, break_flexible,
				overtime_allowed, overtime_max_daily_minutes, overtime_rate_table, overtime_requires_approval,
				time_bank_enabled, time_bank_compensation_ratio, time_bank_cap_hours,
				holiday_work_policy
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
			) RETURNING created_at, updated_at
		`,
			rule.ID, rule.Name, rule.Country, rule.Type,
			rule.WeeklyHours, rule.DailyHours, rule.ToleranceMinutes, rule.IsActive,
			rule.Break.Mandatory, rule.Break.MinBreakDurationMinutes, rule.Break.AutoDeduct, rule.Break.Flexible,
			rule.Overtime.Allowed, rule.Overtime.MaxDailyOvertimeMinutes, rateTable, rule.Overtime.RequiresApproval,
			rule.TimeBank.Enabled, rule.TimeBank.CompensationRatio, rule.TimeBank.CapHours,
			rule.Holiday,
		).Scan(&rule.CreatedAt, &rule.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create shift rule: %w", err)
		}

		for _, d := range rule.Days {
			_, err := q.Exec(txCtx, `
				INSERT INTO shift_rule_days (
					shift_rule_id, weekday, is_work_day, start_time, end_time, break_start, break_end
				) VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, rule.ID, int(d.Weekday), d.IsWorkDay, d.StartTime, d.EndTime, d.BreakStart, d.BreakEnd)
			if err != nil {
				return fmt.Errorf("failed to create shift rule day: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return schedule.ShiftRule{}, err
	}
	return rule, nil
}

// Update implements schedule.ShiftRuleRepository. Only the rule row is
// updatable; weekday templates are immutable once created.
func (r *shiftRuleRepository) Update(ctx context.Context, rule schedule.ShiftRule) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE shift_rules SET
			name = $2, is_active = $3, tolerance_minutes = $4, updated_at = NOW()
		WHERE id = $1
	`, rule.ID, rule.Name, rule.IsActive, rule.ToleranceMinutes)
	if err != nil {
		return fmt.Errorf("failed to update shift rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schedule.ErrShiftRuleNotFound
	}
	return nil
}

// GetByID implements schedule.ShiftRuleRepository.
func (r *shiftRuleRepository) GetByID(ctx context.Context, id string) (schedule.ShiftRule, error) {
	q := GetQuerier(ctx, r.db)

	rule, err := scanShiftRule(q.QueryRow(ctx,
		`SELECT `+shiftRuleColumns+` FROM shift_rules WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.ShiftRule{}, schedule.ErrShiftRuleNotFound
		}
		return schedule.ShiftRule{}, fmt.Errorf("failed to get shift rule: %w", err)
	}

	rule.Days, err = r.loadDays(ctx, id)
	if err != nil {
		return schedule.ShiftRule{}, err
	}
	return rule, nil
}

// List implements schedule.ShiftRuleRepository.
func (r *shiftRuleRepository) List(ctx context.Context) ([]schedule.ShiftRule, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+shiftRuleColumns+` FROM shift_rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift rules: %w", err)
	}
	defer rows.Close()

	var out []schedule.ShiftRule
	for rows.Next() {
		rule, err := scanShiftRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift rule: %w", err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Days, err = r.loadDays(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ActiveForEmployee implements schedule.ShiftRuleRepository.
func (r *shiftRuleRepository) ActiveForEmployee(ctx context.Context, employeeID string, at time.Time) (schedule.ShiftRule, error) {
	q := GetQuerier(ctx, r.db)

	var ruleID string
	err := q.QueryRow(ctx, `
		SELECT a.shift_rule_id
		FROM shift_rule_assignments a
		JOIN shift_rules r ON r.id = a.shift_rule_id
		WHERE a.employee_id = $1
		  AND a.start_date <= $2
		  AND (a.end_date IS NULL OR a.end_date >= $2)
		  AND r.is_active
		ORDER BY a.start_date DESC
		LIMIT 1
	`, employeeID, at).Scan(&ruleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.ShiftRule{}, schedule.ErrNoActiveShiftRule
		}
		return schedule.ShiftRule{}, fmt.Errorf("failed to resolve active shift rule: %w", err)
	}

	return r.GetByID(ctx, ruleID)
}

// Assign implements schedule.ShiftRuleRepository.
func (r *shiftRuleRepository) Assign(ctx context.Context, employeeID, ruleID string, from time.Time) (schedule.Assignment, error) {
	assignment := schedule.Assignment{
		ID:         uuid.Must(uuid.NewV7()).String(),
		EmployeeID: employeeID,
		RuleID:     ruleID,
		StartDate:  from,
	}

	err := WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)

		// Close any open assignment the day before the new one starts.
		_, err := q.Exec(txCtx, `
			UPDATE shift_rule_assignments
			SET end_date = $2::date - 1
			WHERE employee_id = $1 AND end_date IS NULL
		`, employeeID, from)
		if err != nil {
			return fmt.Errorf("failed to close open assignment: %w", err)
		}

		err = q.QueryRow(txCtx, `
			INSERT INTO shift_rule_assignments (id, employee_id, shift_rule_id, start_date)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`, assignment.ID, employeeID, ruleID, from).Scan(&assignment.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return schedule.Assignment{}, err
	}
	return assignment, nil
}

func (r *shiftRuleRepository) loadDays(ctx context.Context, ruleID string) ([]schedule.WeekdayTemplate, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT weekday, is_work_day, start_time, end_time, break_start, break_end
		FROM shift_rule_days
		WHERE shift_rule_id = $1
		ORDER BY weekday
	`, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift rule days: %w", err)
	}
	defer rows.Close()

	var days []schedule.WeekdayTemplate
	for rows.Next() {
		var d schedule.WeekdayTemplate
		var weekday int
		if err := rows.Scan(&weekday, &d.IsWorkDay, &d.StartTime, &d.EndTime, &d.BreakStart, &d.BreakEnd); err != nil {
			return nil, fmt.Errorf("failed to scan shift rule day: %w", err)
		}
		d.Weekday = time.Weekday(weekday)
		days = append(days, d)
	}
	return days, rows.Err()
}
