package timesheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timebank"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timesheet"
)

type TimesheetServiceImpl struct {
	punchRepo    punch.PunchRepository
	scheduleRepo schedule.ShiftRuleRepository
	timeBank     timebank.TimeBankService
}

func NewTimesheetService(
	punchRepo punch.PunchRepository,
	scheduleRepo schedule.ShiftRuleRepository,
	timeBank timebank.TimeBankService,
) timesheet.TimesheetService {
	return &TimesheetServiceImpl{
		punchRepo:    punchRepo,
		scheduleRepo: scheduleRepo,
		timeBank:     timeBank,
	}
}

// ComputeDay implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) ComputeDay(ctx context.Context, employeeID string, date time.Time) (timesheet.DailyComputation, error) {
	comp, _, err := s.compute(ctx, employeeID, date)
	return comp, err
}

// Refresh implements timesheet.TimesheetService. The caller must already
// hold the employee-day lock.
func (s *TimesheetServiceImpl) Refresh(ctx context.Context, employeeID string, date time.Time) (timesheet.DailyComputation, error) {
	comp, rule, err := s.compute(ctx, employeeID, date)
	if err != nil {
		return timesheet.DailyComputation{}, err
	}

	// Only settled days hit the ledger: incomplete days are not final and
	// needs-review totals are unvalidated. Later refreshes reconcile via
	// adjustment entries.
	if comp.Incomplete || comp.NeedsReview {
		return comp, nil
	}

	if _, err := s.timeBank.PostDaily(ctx, comp, rule); err != nil {
		var capErr *timebank.CapExceededError
		if errors.As(err, &capErr) {
			return comp, capErr
		}
		return comp, fmt.Errorf("failed to post daily computation to time bank: %w", err)
	}
	return comp, nil
}

func (s *TimesheetServiceImpl) compute(ctx context.Context, employeeID string, date time.Time) (timesheet.DailyComputation, schedule.ShiftRule, error) {
	rule, err := s.scheduleRepo.ActiveForEmployee(ctx, employeeID, date)
	if err != nil {
		return timesheet.DailyComputation{}, schedule.ShiftRule{}, err
	}

	punches, err := s.punchRepo.ListByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return timesheet.DailyComputation{}, schedule.ShiftRule{}, fmt.Errorf("failed to list punches for day: %w", err)
	}

	return Compute(employeeID, date, punches, rule, time.Now().UTC()), rule, nil
}
