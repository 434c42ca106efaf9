package schedule

import "time"

// ShiftRule is the governing schedule and policy configuration for an
// employee's expected hours and compensation rules.
type ShiftRule struct {
	ID               string
	Name             string
	Country          string
	Type             ShiftType
	WeeklyHours      float64
	DailyHours       float64
	ToleranceMinutes int
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Days     []WeekdayTemplate
	Break    BreakPolicy
	Overtime OvertimePolicy
	TimeBank TimeBankPolicy
	Holiday  HolidayWorkPolicy
}

type ShiftType string

const (
	ShiftFixed    ShiftType = "fixed"
	ShiftFlexible ShiftType = "flexible"
	ShiftRotating ShiftType = "rotating"
	Shift12x36    ShiftType = "12x36"
	ShiftSporadic ShiftType = "sporadic"
)

var ShiftTypeValues = []string{
	string(ShiftFixed),
	string(ShiftFlexible),
	string(ShiftRotating),
	string(Shift12x36),
	string(ShiftSporadic),
}

// WeekdayTemplate is the expected day shape for one weekday.
// Times are "15:04" strings; all empty when IsWorkDay is false.
type WeekdayTemplate struct {
	Weekday    time.Weekday
	IsWorkDay  bool
	StartTime  string
	EndTime    string
	BreakStart string
	BreakEnd   string
}

type BreakPolicy struct {
	Mandatory               bool
	MinBreakDurationMinutes int
	AutoDeduct              bool
	Flexible                bool
}

type OvertimePolicy struct {
	Allowed                 bool
	MaxDailyOvertimeMinutes int
	RateTable               map[string]float64 // keyed by weekday name or "holiday"
	RequiresApproval        bool
}

type TimeBankPolicy struct {
	Enabled           bool
	CompensationRatio float64 // e.g. 1.5
	CapHours          float64
}

type HolidayWorkPolicy string

const (
	HolidayExtraPay HolidayWorkPolicy = "extra_pay"
	HolidayTimeBank HolidayWorkPolicy = "time_bank"
	HolidayDayOff   HolidayWorkPolicy = "day_off"
)

var HolidayWorkPolicyValues = []string{
	string(HolidayExtraPay),
	string(HolidayTimeBank),
	string(HolidayDayOff),
}

// DayTemplate returns the template for the given weekday, or nil when the
// rule does not define one.
func (r ShiftRule) DayTemplate(d time.Weekday) *WeekdayTemplate {
	for i := range r.Days {
		if r.Days[i].Weekday == d {
			return &r.Days[i]
		}
	}
	return nil
}

// ScheduledMinutes returns the expected worked minutes for the given date.
// Non-work days expect zero.
func (r ShiftRule) ScheduledMinutes(date time.Time) int {
	if tpl := r.DayTemplate(date.Weekday()); tpl != nil && !tpl.IsWorkDay {
		return 0
	}
	return int(r.DailyHours * 60)
}

// Assignment binds an employee to a shift rule over a date interval. The
// store guarantees at most one open assignment per employee at any instant.
type Assignment struct {
	ID         string
	EmployeeID string
	RuleID     string
	StartDate  time.Time
	EndDate    *time.Time
	CreatedAt  time.Time
}
