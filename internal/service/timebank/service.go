package timebank

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pontoweb/ponto-backend-go/internal/domain/audit"
	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timebank"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timesheet"
)

type TimeBankServiceImpl struct {
	repo      timebank.TimeBankRepository
	auditRepo audit.AuditRepository
}

func NewTimeBankService(repo timebank.TimeBankRepository, auditRepo audit.AuditRepository) timebank.TimeBankService {
	return &TimeBankServiceImpl{repo: repo, auditRepo: auditRepo}
}

// PostDaily implements timebank.TimeBankService. The caller must hold the
// employee-day lock so concurrent refreshes cannot both read a stale sum.
func (s *TimeBankServiceImpl) PostDaily(ctx context.Context, comp timesheet.DailyComputation, rule schedule.ShiftRule) (*timebank.TimeBankEntry, error) {
	if !rule.TimeBank.Enabled || comp.Incomplete {
		return nil, nil
	}

	target := dailyDelta(comp, rule)

	posted, err := s.repo.SumBySource(ctx, comp.EmployeeID, comp.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to sum prior postings for day: %w", err)
	}

	delta := target - posted
	if delta == 0 {
		return nil, nil
	}

	balance, err := s.repo.Balance(ctx, comp.EmployeeID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to read time bank balance: %w", err)
	}

	kind := timebank.KindAccrual
	var adjusts *string
	if posted != 0 {
		kind = timebank.KindAdjustment
		prev, err := s.repo.LatestBySource(ctx, comp.EmployeeID, comp.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to find prior posting for day: %w", err)
		}
		if prev != nil {
			adjusts = &prev.ID
		}
	}

	// Enforce the cap: post up to it, surface the remainder. The excess is
	// never dropped; it needs managerial disposition.
	excess := 0
	if cap := int(rule.TimeBank.CapHours * 60); cap > 0 && delta > 0 && balance+delta > cap {
		allowed := cap - balance
		if allowed < 0 {
			allowed = 0
		}
		excess = delta - allowed
		delta = allowed
	}

	var entry *timebank.TimeBankEntry
	if delta != 0 {
		e := timebank.TimeBankEntry{
			ID:                      uuid.Must(uuid.NewV7()).String(),
			EmployeeID:              comp.EmployeeID,
			Period:                  comp.Date.Format("2006-01"),
			Kind:                    kind,
			DeltaMinutes:            delta,
			ResultingBalanceMinutes: balance + delta,
			SourceDate:              comp.Date,
			AdjustsEntryID:          adjusts,
		}
		created, err := s.repo.Append(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("failed to append time bank entry: %w", err)
		}
		entry = &created
	}

	if excess > 0 {
		capErr := &timebank.CapExceededError{
			EmployeeID:    comp.EmployeeID,
			Date:          comp.Date,
			PostedMinutes: delta,
			ExcessMinutes: excess,
		}
		detail := capErr.Error()
		if _, err := s.auditRepo.Append(ctx, audit.AuditRecord{
			ID:         uuid.Must(uuid.NewV7()).String(),
			ActorID:    "system",
			Action:     audit.ActionCapExceeded,
			TargetType: "time_bank_entry",
			TargetID:   targetID(entry),
			AfterValue: &detail,
		}); err != nil {
			return entry, fmt.Errorf("failed to audit cap excess: %w", err)
		}
		return entry, capErr
	}

	return entry, nil
}

// Balance implements timebank.TimeBankService.
func (s *TimeBankServiceImpl) Balance(ctx context.Context, employeeID string, asOf time.Time) (int, error) {
	return s.repo.Balance(ctx, employeeID, asOf)
}

// Statement implements timebank.TimeBankService.
func (s *TimeBankServiceImpl) Statement(ctx context.Context, employeeID string, from, to time.Time) ([]timebank.TimeBankEntry, error) {
	return s.repo.ListByEmployee(ctx, employeeID, from, to)
}

// dailyDelta is the net banked minutes a finalized day is worth:
// overtime scaled by the compensation ratio, minus deficit.
func dailyDelta(comp timesheet.DailyComputation, rule schedule.ShiftRule) int {
	ratio := decimal.NewFromFloat(rule.TimeBank.CompensationRatio)
	credited := decimal.NewFromInt(int64(comp.OvertimeMinutes)).Mul(ratio).Round(0)
	return int(credited.IntPart()) - comp.DeficitMinutes
}

func targetID(entry *timebank.TimeBankEntry) string {
	if entry == nil {
		return ""
	}
	return entry.ID
}
