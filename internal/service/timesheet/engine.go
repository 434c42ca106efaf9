package timesheet

import (
	"fmt"
	"sort"
	"time"

	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timesheet"
)

type segmentState int

const (
	stateOff segmentState = iota
	stateWorking
	stateOnBreak
)

// Compute derives the day's totals from its punches and the governing shift
// rule. It is a pure function: same inputs, same output. Irregular punch
// sequences are recorded as inconsistencies and never abort the walk; the
// totals are always best-effort.
//
// now is only consulted to accrue an open work segment on the current day
// for live display; such a day is marked Incomplete and excluded from
// finalized totals until closed.
func Compute(employeeID string, date time.Time, punches []punch.Punch, rule schedule.ShiftRule, now time.Time) timesheet.DailyComputation {
	comp := timesheet.DailyComputation{
		EmployeeID: employeeID,
		Date:       date,
	}

	counted := make([]punch.Punch, 0, len(punches))
	for _, p := range punches {
		if !p.CountsTowardTotals() {
			continue
		}
		if p.Status == punch.StatusPendingReview || p.ApprovalStatus == punch.ApprovalPending {
			comp.NeedsReview = true
		}
		counted = append(counted, p)
	}
	sort.Slice(counted, func(i, j int) bool {
		return counted[i].Time.Before(counted[j].Time)
	})

	state := stateOff
	var segStart time.Time

	flag := func(code timesheet.InconsistencyCode, msg, punchID string) {
		comp.Inconsistencies = append(comp.Inconsistencies, timesheet.Inconsistency{
			Code:    code,
			Message: msg,
			PunchID: punchID,
		})
	}

	for _, p := range counted {
		switch p.Type {
		case punch.EntryClockIn:
			if state != stateOff {
				flag(timesheet.UnexpectedPunch, "clock_in while a segment is already open", p.ID)
				continue
			}
			state = stateWorking
			segStart = p.Time
		case punch.EntryBreakStart:
			if state != stateWorking {
				flag(timesheet.UnexpectedPunch, "break_start without an open work segment", p.ID)
				continue
			}
			comp.WorkedMinutes += minutesBetween(segStart, p.Time)
			state = stateOnBreak
			segStart = p.Time
		case punch.EntryBreakEnd:
			if state != stateOnBreak {
				flag(timesheet.UnexpectedPunch, "break_end without a preceding break_start", p.ID)
				continue
			}
			comp.BreakMinutes += minutesBetween(segStart, p.Time)
			state = stateWorking
			segStart = p.Time
		case punch.EntryClockOut:
			switch state {
			case stateWorking:
				comp.WorkedMinutes += minutesBetween(segStart, p.Time)
				state = stateOff
			case stateOnBreak:
				flag(timesheet.UnexpectedPunch, "clock_out while on break", p.ID)
				comp.BreakMinutes += minutesBetween(segStart, p.Time)
				state = stateOff
			default:
				flag(timesheet.UnexpectedPunch, "clock_out without an open work segment", p.ID)
			}
		default:
			flag(timesheet.UnexpectedPunch, fmt.Sprintf("unknown entry type %q", p.Type), p.ID)
		}
	}

	// An unterminated segment keeps the day out of finalized totals. For the
	// current day the open work segment still accrues up to now so live
	// dashboards show meaningful numbers.
	if state != stateOff {
		comp.Incomplete = true
		if state == stateWorking && sameDay(date, now) && now.After(segStart) {
			comp.WorkedMinutes += minutesBetween(segStart, now)
		}
		if !sameDay(date, now) {
			flag(timesheet.MissingClockOut, "day ended without a clock_out", "")
			comp.NeedsReview = true
		}
	}

	if !comp.Incomplete && len(counted) > 0 {
		applyPolicies(&comp, rule, flag)
	}

	if len(comp.Inconsistencies) > 0 {
		comp.NeedsReview = true
	}

	return comp
}

// applyPolicies evaluates tolerance, overtime and break policy on a closed
// day. Totals are never mutated destructively: worked minutes stay as
// punched; policy effects land in overtime, deficit and inconsistencies.
func applyPolicies(comp *timesheet.DailyComputation, rule schedule.ShiftRule, flag func(timesheet.InconsistencyCode, string, string)) {
	scheduled := rule.ScheduledMinutes(comp.Date)
	tolerance := rule.ToleranceMinutes

	overtime := comp.WorkedMinutes - scheduled
	if overtime > 0 && overtime <= tolerance {
		// Within the grace window counts as exactly on time.
		overtime = 0
	}
	if overtime > 0 {
		if !rule.Overtime.Allowed {
			flag(timesheet.OvertimeNotAllowed, "overtime worked but the shift rule does not allow it", "")
		}
		if max := rule.Overtime.MaxDailyOvertimeMinutes; max > 0 && overtime > max {
			flag(timesheet.OvertimeOverCap,
				fmt.Sprintf("%d overtime minutes exceed the daily cap of %d", overtime, max), "")
			overtime = max
		}
		comp.OvertimeMinutes = overtime
	}

	deficit := scheduled - comp.WorkedMinutes
	if deficit > 0 && deficit <= tolerance {
		deficit = 0
	}
	if deficit > 0 {
		comp.DeficitMinutes = deficit
	}

	if rule.Break.Mandatory && scheduled > 0 {
		underrun := rule.Break.MinBreakDurationMinutes - comp.BreakMinutes
		if underrun > 0 {
			if comp.BreakMinutes == 0 {
				flag(timesheet.MissingBreak, "mandatory break was not taken", "")
			} else {
				flag(timesheet.BreakBelowMinimum,
					fmt.Sprintf("break of %d minutes is below the %d minute minimum",
						comp.BreakMinutes, rule.Break.MinBreakDurationMinutes), "")
			}
			if rule.Break.AutoDeduct {
				comp.DeficitMinutes += underrun
			}
		}
	}
}

func minutesBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Minutes())
}

func sameDay(date, now time.Time) bool {
	y1, m1, d1 := date.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
