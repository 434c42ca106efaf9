package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pontoweb/ponto-backend-go/internal/domain/audit"
	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/locker"
)

// PunchJobs contains punch maintenance cron jobs.
type PunchJobs struct {
	punchRepo punch.PunchRepository
	auditRepo audit.AuditRepository
	dayLocker *locker.DayLocker
}

func NewPunchJobs(
	punchRepo punch.PunchRepository,
	auditRepo audit.AuditRepository,
	dayLocker *locker.DayLocker,
) *PunchJobs {
	return &PunchJobs{
		punchRepo: punchRepo,
		auditRepo: auditRepo,
		dayLocker: dayLocker,
	}
}

func (j *PunchJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("flag_stale_open_days", 1*time.Hour, j.FlagStaleOpenDays)
}

// FlagStaleOpenDays marks past days whose punch sequence never reached a
// clock_out. The last punch of each such day is set to inconsistent so the
// day surfaces as needing review until a manager corrects it, and an audit
// record keeps the flagging attributable.
func (j *PunchJobs) FlagStaleOpenDays(ctx context.Context) error {
	// Days are stale only once the following day has started.
	cutoff := time.Now().UTC().Truncate(24 * time.Hour)

	days, err := j.punchRepo.ListUnclosedDays(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list unclosed days: %w", err)
	}

	if len(days) == 0 {
		slog.Debug("Cron: No stale open days found")
		return nil
	}

	flagged := 0
	for _, day := range days {
		if err := j.flagDay(ctx, day); err != nil {
			slog.Error("Cron: Failed to flag stale day",
				"employee_id", day.EmployeeID,
				"date", day.Date.Format("2006-01-02"),
				"error", err)
			continue
		}
		flagged++
	}

	slog.Info("Cron: Flagged stale open days", "count", flagged)
	return nil
}

func (j *PunchJobs) flagDay(ctx context.Context, day punch.DayRef) error {
	release, err := j.dayLocker.Acquire(ctx, day.EmployeeID, day.Date)
	if err != nil {
		return err
	}
	defer release()

	punches, err := j.punchRepo.ListByEmployeeAndDate(ctx, day.EmployeeID, day.Date)
	if err != nil {
		return err
	}

	var last *punch.Punch
	for i := len(punches) - 1; i >= 0; i-- {
		if punches[i].CountsTowardTotals() {
			last = &punches[i]
			break
		}
	}
	if last == nil || last.Type == punch.EntryClockOut {
		return nil
	}
	if last.Status == punch.StatusInconsistent {
		// Already flagged on a previous run.
		return nil
	}

	last.Status = punch.StatusInconsistent
	if err := j.punchRepo.Update(ctx, *last); err != nil {
		return err
	}

	justification := fmt.Sprintf(
		"day %s never reached a clock_out; flagged for review",
		day.Date.Format("2006-01-02"),
	)
	_, err = j.auditRepo.Append(ctx, audit.AuditRecord{
		ID:            uuid.Must(uuid.NewV7()).String(),
		ActorID:       "system",
		Action:        audit.ActionFlagDay,
		TargetType:    "punch",
		TargetID:      last.ID,
		Justification: &justification,
	})
	return err
}
