package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pontoweb/ponto-backend-go/internal/domain/audit"
	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timebank"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timesheet"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/locker"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/validator"
)

type WorkflowServiceImpl struct {
	punchRepo    punch.PunchRepository
	auditRepo    audit.AuditRepository
	timesheetSvc timesheet.TimesheetService
	locks        *locker.DayLocker
	opTimeout    time.Duration
}

func NewWorkflowService(
	punchRepo punch.PunchRepository,
	auditRepo audit.AuditRepository,
	timesheetSvc timesheet.TimesheetService,
	locks *locker.DayLocker,
	opTimeout time.Duration,
) punch.WorkflowService {
	return &WorkflowServiceImpl{
		punchRepo:    punchRepo,
		auditRepo:    auditRepo,
		timesheetSvc: timesheetSvc,
		locks:        locks,
		opTimeout:    opTimeout,
	}
}

// Approve implements punch.WorkflowService.
func (s *WorkflowServiceImpl) Approve(ctx context.Context, req punch.ApprovePunchRequest) (punch.Punch, error) {
	if err := req.Validate(); err != nil {
		return punch.Punch{}, err
	}
	if !req.Actor.CanManage {
		return punch.Punch{}, punch.ErrNotAuthorized
	}

	return s.transition(ctx, req.PunchID, func(p punch.Punch) (punch.Punch, audit.AuditRecord, error) {
		if err := approvable(p); err != nil {
			return punch.Punch{}, audit.AuditRecord{}, err
		}

		before := string(p.ApprovalStatus)
		p.ApprovalStatus = punch.ApprovalApproved
		p.Status = punch.StatusValid
		after := string(p.ApprovalStatus)

		return p, audit.AuditRecord{
			ActorID:       req.Actor.ID,
			Action:        audit.ActionApprove,
			BeforeValue:   &before,
			AfterValue:    &after,
			Justification: req.Notes,
		}, nil
	})
}

// Reject implements punch.WorkflowService. Rejected punches are excluded
// from totals but never deleted.
func (s *WorkflowServiceImpl) Reject(ctx context.Context, req punch.RejectPunchRequest) (punch.Punch, error) {
	if err := req.Validate(); err != nil {
		return punch.Punch{}, err
	}
	if !req.Actor.CanManage {
		return punch.Punch{}, punch.ErrNotAuthorized
	}

	return s.transition(ctx, req.PunchID, func(p punch.Punch) (punch.Punch, audit.AuditRecord, error) {
		if err := approvable(p); err != nil {
			return punch.Punch{}, audit.AuditRecord{}, err
		}

		before := string(p.ApprovalStatus)
		p.ApprovalStatus = punch.ApprovalRejected
		p.Status = punch.StatusRejected
		after := string(p.ApprovalStatus)
		notes := req.Notes

		return p, audit.AuditRecord{
			ActorID:       req.Actor.ID,
			Action:        audit.ActionReject,
			BeforeValue:   &before,
			AfterValue:    &after,
			Justification: &notes,
		}, nil
	})
}

// Correct implements punch.WorkflowService. A correction is self-approving
// by the corrector; the full chain of values lives in the audit trail while
// the punch keeps only the first pre-correction time.
func (s *WorkflowServiceImpl) Correct(ctx context.Context, req punch.CorrectPunchRequest) (punch.Punch, error) {
	if err := req.Validate(); err != nil {
		return punch.Punch{}, err
	}
	if validator.IsEmpty(req.Justification) {
		return punch.Punch{}, punch.ErrMissingJustification
	}
	if !req.Actor.CanManage {
		return punch.Punch{}, punch.ErrNotAuthorized
	}

	return s.transition(ctx, req.PunchID, func(p punch.Punch) (punch.Punch, audit.AuditRecord, error) {
		before := p.Time.UTC().Format(time.RFC3339)
		after := req.At.UTC().Format(time.RFC3339)

		if p.OriginalTime == nil {
			original := p.Time
			p.OriginalTime = &original
		}
		p.Time = req.At
		p.Date = dayOf(req.At)
		p.IsEdited = true
		p.EditReason = &req.Justification
		p.Status = punch.StatusValid
		p.ApprovalStatus = punch.ApprovalApproved

		justification := req.Justification
		return p, audit.AuditRecord{
			ActorID:       req.Actor.ID,
			Action:        audit.ActionCorrect,
			BeforeValue:   &before,
			AfterValue:    &after,
			Justification: &justification,
		}, nil
	})
}

// transition runs one workflow state change under the employee-day lock:
// re-read, mutate, persist, audit, recompute. When a correction moves the
// punch to another day both days are locked and recomputed.
func (s *WorkflowServiceImpl) transition(
	ctx context.Context,
	punchID string,
	mutate func(punch.Punch) (punch.Punch, audit.AuditRecord, error),
) (punch.Punch, error) {
	current, err := s.punchRepo.GetByID(ctx, punchID)
	if err != nil {
		return punch.Punch{}, err
	}

	release, err := s.acquire(ctx, current.EmployeeID, current.Date)
	if err != nil {
		return punch.Punch{}, err
	}
	defer release()

	// Re-read under the lock; a concurrent transition may have landed between
	// the first read and lock acquisition.
	current, err = s.punchRepo.GetByID(ctx, punchID)
	if err != nil {
		return punch.Punch{}, err
	}
	oldDate := current.Date

	updated, record, err := mutate(current)
	if err != nil {
		return punch.Punch{}, err
	}

	// A correction that moves the punch across midnight touches two days.
	// The acquisition timeout bounds any lock-order contention.
	if !sameDay(updated.Date, oldDate) {
		releaseNew, err := s.acquire(ctx, updated.EmployeeID, updated.Date)
		if err != nil {
			return punch.Punch{}, err
		}
		defer releaseNew()
	}

	if err := s.punchRepo.Update(ctx, updated); err != nil {
		return punch.Punch{}, fmt.Errorf("failed to update punch: %w", err)
	}

	record.ID = uuid.Must(uuid.NewV7()).String()
	record.TargetType = "punch"
	record.TargetID = updated.ID
	if _, err := s.auditRepo.Append(ctx, record); err != nil {
		return punch.Punch{}, fmt.Errorf("failed to append audit record: %w", err)
	}

	if err := s.refresh(ctx, updated.EmployeeID, oldDate); err != nil {
		return updated, err
	}
	if !sameDay(updated.Date, oldDate) {
		if err := s.refresh(ctx, updated.EmployeeID, updated.Date); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

func (s *WorkflowServiceImpl) refresh(ctx context.Context, employeeID string, date time.Time) error {
	_, err := s.timesheetSvc.Refresh(ctx, employeeID, date)
	if err != nil {
		var capErr *timebank.CapExceededError
		if errors.As(err, &capErr) {
			return capErr
		}
		return fmt.Errorf("failed to recompute day after transition: %w", err)
	}
	return nil
}

func (s *WorkflowServiceImpl) acquire(ctx context.Context, employeeID string, date time.Time) (func(), error) {
	lockCtx := ctx
	cancel := func() {}
	if s.opTimeout > 0 {
		lockCtx, cancel = context.WithTimeout(ctx, s.opTimeout)
	}
	release, err := s.locks.Acquire(lockCtx, employeeID, date)
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, punch.ErrOperationTimeout
	}
	return func() {
		release()
		cancel()
	}, nil
}

func approvable(p punch.Punch) error {
	switch p.ApprovalStatus {
	case punch.ApprovalPending:
		return nil
	case punch.ApprovalApproved, punch.ApprovalRejected:
		return punch.ErrAlreadyProcessed
	default:
		return punch.ErrNotPendingApproval
	}
}

func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return a.UTC().Format("2006-01-02") == b.UTC().Format("2006-01-02")
}
