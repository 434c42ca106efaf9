package schedule

import (
	"fmt"
	"time"

	"github.com/pontoweb/ponto-backend-go/internal/pkg/validator"
)

// ========================================
// SHIFT RULE DTOs
// ========================================

type WeekdayTemplateRequest struct {
	Weekday    int    `json:"weekday"` // 0=Sunday ... 6=Saturday
	IsWorkDay  bool   `json:"is_work_day"`
	StartTime  string `json:"start_time,omitempty"`
	EndTime    string `json:"end_time,omitempty"`
	BreakStart string `json:"break_start,omitempty"`
	BreakEnd   string `json:"break_end,omitempty"`
}

type CreateShiftRuleRequest struct {
	Name             string                   `json:"name"`
	Country          string                   `json:"country"`
	Type             string                   `json:"type"`
	WeeklyHours      float64                  `json:"weekly_hours"`
	DailyHours       float64                  `json:"daily_hours"`
	ToleranceMinutes int                      `json:"tolerance_minutes"`
	Days             []WeekdayTemplateRequest `json:"days"`
	Break            BreakPolicy              `json:"break_policy"`
	Overtime         OvertimePolicy           `json:"overtime_policy"`
	TimeBank         TimeBankPolicy           `json:"time_bank_policy"`
	Holiday          string                   `json:"holiday_work_policy"`
}

func (r *CreateShiftRuleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}
	if validator.IsEmpty(r.Country) {
		errs = append(errs, validator.ValidationError{
			Field:   "country",
			Message: "country is required",
		})
	}
	if !validator.IsInSlice(r.Type, ShiftTypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: fixed, flexible, rotating, 12x36, sporadic",
		})
	}
	if r.DailyHours <= 0 || r.DailyHours > 24 {
		errs = append(errs, validator.ValidationError{
			Field:   "daily_hours",
			Message: "daily_hours must be between 0 and 24",
		})
	}
	if r.WeeklyHours <= 0 || r.WeeklyHours > 168 {
		errs = append(errs, validator.ValidationError{
			Field:   "weekly_hours",
			Message: "weekly_hours must be between 0 and 168",
		})
	}
	if r.ToleranceMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "tolerance_minutes",
			Message: "tolerance_minutes must not be negative",
		})
	}
	if !validator.IsInSlice(r.Holiday, HolidayWorkPolicyValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "holiday_work_policy",
			Message: "holiday_work_policy must be one of: extra_pay, time_bank, day_off",
		})
	}
	if r.TimeBank.Enabled && r.TimeBank.CompensationRatio <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "time_bank_policy.compensation_ratio",
			Message: "compensation_ratio must be positive when the time bank is enabled",
		})
	}

	for i, d := range r.Days {
		field := fmt.Sprintf("days[%d]", i)
		if d.Weekday < 0 || d.Weekday > 6 {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".weekday",
				Message: "weekday must be between 0 (Sunday) and 6 (Saturday)",
			})
			continue
		}
		if !d.IsWorkDay {
			// Non-work days must carry no time fields.
			if d.StartTime != "" || d.EndTime != "" || d.BreakStart != "" || d.BreakEnd != "" {
				errs = append(errs, validator.ValidationError{
					Field:   field,
					Message: "non-work days must have empty time fields",
				})
			}
			continue
		}
		for _, tf := range []struct{ name, value string }{
			{"start_time", d.StartTime},
			{"end_time", d.EndTime},
		} {
			if !validator.IsValidTimeOfDay(tf.value) {
				errs = append(errs, validator.ValidationError{
					Field:   field + "." + tf.name,
					Message: "must be a valid HH:MM time",
				})
			}
		}
		if d.BreakStart != "" && !validator.IsValidTimeOfDay(d.BreakStart) {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".break_start",
				Message: "must be a valid HH:MM time",
			})
		}
		if d.BreakEnd != "" && !validator.IsValidTimeOfDay(d.BreakEnd) {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".break_end",
				Message: "must be a valid HH:MM time",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToEntity builds a ShiftRule from a validated request.
func (r *CreateShiftRuleRequest) ToEntity() ShiftRule {
	days := make([]WeekdayTemplate, 0, len(r.Days))
	for _, d := range r.Days {
		days = append(days, WeekdayTemplate{
			Weekday:    time.Weekday(d.Weekday),
			IsWorkDay:  d.IsWorkDay,
			StartTime:  d.StartTime,
			EndTime:    d.EndTime,
			BreakStart: d.BreakStart,
			BreakEnd:   d.BreakEnd,
		})
	}
	return ShiftRule{
		Name:             r.Name,
		Country:          r.Country,
		Type:             ShiftType(r.Type),
		WeeklyHours:      r.WeeklyHours,
		DailyHours:       r.DailyHours,
		ToleranceMinutes: r.ToleranceMinutes,
		IsActive:         true,
		Days:             days,
		Break:            r.Break,
		Overtime:         r.Overtime,
		TimeBank:         r.TimeBank,
		Holiday:          HolidayWorkPolicy(r.Holiday),
	}
}

type AssignShiftRuleRequest struct {
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"` // YYYY-MM-DD

	From time.Time `json:"-"`
}

func (r *AssignShiftRuleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if validator.IsEmpty(r.StartDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date is required",
		})
	} else if from, ok := validator.IsValidDate(r.StartDate); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be a valid YYYY-MM-DD date",
		})
	} else {
		r.From = from
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ShiftRuleResponse struct {
	ID               string                   `json:"id"`
	Name             string                   `json:"name"`
	Country          string                   `json:"country"`
	Type             string                   `json:"type"`
	WeeklyHours      float64                  `json:"weekly_hours"`
	DailyHours       float64                  `json:"daily_hours"`
	ToleranceMinutes int                      `json:"tolerance_minutes"`
	IsActive         bool                     `json:"is_active"`
	Days             []WeekdayTemplateRequest `json:"days"`
	Break            BreakPolicy              `json:"break_policy"`
	Overtime         OvertimePolicy           `json:"overtime_policy"`
	TimeBank         TimeBankPolicy           `json:"time_bank_policy"`
	Holiday          string                   `json:"holiday_work_policy"`
}

func ToResponse(rule ShiftRule) ShiftRuleResponse {
	days := make([]WeekdayTemplateRequest, 0, len(rule.Days))
	for _, d := range rule.Days {
		days = append(days, WeekdayTemplateRequest{
			Weekday:    int(d.Weekday),
			IsWorkDay:  d.IsWorkDay,
			StartTime:  d.StartTime,
			EndTime:    d.EndTime,
			BreakStart: d.BreakStart,
			BreakEnd:   d.BreakEnd,
		})
	}
	return ShiftRuleResponse{
		ID:               rule.ID,
		Name:             rule.Name,
		Country:          rule.Country,
		Type:             string(rule.Type),
		WeeklyHours:      rule.WeeklyHours,
		DailyHours:       rule.DailyHours,
		ToleranceMinutes: rule.ToleranceMinutes,
		IsActive:         rule.IsActive,
		Days:             days,
		Break:            rule.Break,
		Overtime:         rule.Overtime,
		TimeBank:         rule.TimeBank,
		Holiday:          string(rule.Holiday),
	}
}
