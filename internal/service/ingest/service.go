package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timebank"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timesheet"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/locker"
)

// clockSkewGrace absorbs terminal clock drift before a timestamp counts as
// being in the future.
const clockSkewGrace = time.Minute

type IngestServiceImpl struct {
	punchRepo    punch.PunchRepository
	scheduleRepo schedule.ShiftRuleRepository
	timesheetSvc timesheet.TimesheetService
	locks        *locker.DayLocker
	opTimeout    time.Duration
}

func NewIngestService(
	punchRepo punch.PunchRepository,
	scheduleRepo schedule.ShiftRuleRepository,
	timesheetSvc timesheet.TimesheetService,
	locks *locker.DayLocker,
	opTimeout time.Duration,
) punch.IngestService {
	return &IngestServiceImpl{
		punchRepo:    punchRepo,
		scheduleRepo: scheduleRepo,
		timesheetSvc: timesheetSvc,
		locks:        locks,
		opTimeout:    opTimeout,
	}
}

// Record implements punch.IngestService.
func (s *IngestServiceImpl) Record(ctx context.Context, req punch.RecordPunchRequest) (punch.Punch, error) {
	if err := req.Validate(); err != nil {
		return punch.Punch{}, err
	}

	if req.At.After(time.Now().UTC().Add(clockSkewGrace)) {
		return punch.Punch{}, punch.ErrFutureTimestamp
	}

	date := dayOf(req.At)

	// Resolve the governing rule before persisting anything: a punch for an
	// employee without a schedule could never be computed.
	if _, err := s.scheduleRepo.ActiveForEmployee(ctx, req.EmployeeID, req.At); err != nil {
		return punch.Punch{}, err
	}

	release, err := s.acquire(ctx, req.EmployeeID, date)
	if err != nil {
		return punch.Punch{}, err
	}
	defer release()

	entryType, err := s.nextEntryType(ctx, req.EmployeeID, date, req.At)
	if err != nil {
		return punch.Punch{}, err
	}

	p := punch.Punch{
		ID:               uuid.Must(uuid.NewV7()).String(),
		EmployeeID:       req.EmployeeID,
		Date:             date,
		Time:             req.At,
		Type:             entryType,
		Method:           req.Method,
		Status:           punch.StatusValid,
		ApprovalStatus:   punch.ApprovalNotRequired,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		LocationAccuracy: req.Accuracy,
		DeviceInfo:       req.DeviceInfo,
		ComplianceTag:    req.Method.ComplianceTag(),
	}
	if req.Method.RequiresApproval() {
		p.Status = punch.StatusPendingReview
		p.ApprovalStatus = punch.ApprovalPending
	}

	created, err := s.punchRepo.Create(ctx, p)
	if err != nil {
		return punch.Punch{}, fmt.Errorf("failed to create punch: %w", err)
	}

	created, err = s.refreshAndFlag(ctx, created)
	if err != nil {
		return created, err
	}
	return created, nil
}

// Import implements punch.IngestService. Terminal records go through the
// same cycle and ordering rules as live punches; duplicates are detected by
// (employee, instant, device serial).
func (s *IngestServiceImpl) Import(ctx context.Context, req punch.ImportPunchRequest) (punch.Punch, error) {
	at := req.At.UTC()
	date := dayOf(at)

	if _, err := s.scheduleRepo.ActiveForEmployee(ctx, req.EmployeeID, at); err != nil {
		return punch.Punch{}, err
	}

	release, err := s.acquire(ctx, req.EmployeeID, date)
	if err != nil {
		return punch.Punch{}, err
	}
	defer release()

	exists, err := s.punchRepo.ExistsBySource(ctx, req.EmployeeID, at, req.DeviceSerial)
	if err != nil {
		return punch.Punch{}, fmt.Errorf("failed to check for duplicate punch: %w", err)
	}
	if exists {
		return punch.Punch{}, punch.ErrDuplicatePunch
	}

	entryType, err := s.nextEntryType(ctx, req.EmployeeID, date, at)
	if err != nil {
		return punch.Punch{}, err
	}

	serial := req.DeviceSerial
	seq := req.Sequence
	checksum := req.Checksum
	p := punch.Punch{
		ID:             uuid.Must(uuid.NewV7()).String(),
		EmployeeID:     req.EmployeeID,
		Date:           date,
		Time:           at,
		Type:           entryType,
		Method:         punch.MethodTerminalImport,
		Status:         punch.StatusValid,
		ApprovalStatus: punch.ApprovalNotRequired,
		ComplianceTag:  punch.MethodTerminalImport.ComplianceTag(),
		DeviceSerial:   &serial,
		SourceSequence: &seq,
		SourceChecksum: &checksum,
	}

	created, err := s.punchRepo.Create(ctx, p)
	if err != nil {
		return punch.Punch{}, fmt.Errorf("failed to create imported punch: %w", err)
	}

	created, err = s.refreshAndFlag(ctx, created)
	if err != nil {
		return created, err
	}
	return created, nil
}

func (s *IngestServiceImpl) acquire(ctx context.Context, employeeID string, date time.Time) (func(), error) {
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

// nextEntryType determines where the punch lands in the day's cycle and
// enforces monotonic ordering within the day.
func (s *IngestServiceImpl) nextEntryType(ctx context.Context, employeeID string, date, at time.Time) (punch.EntryType, error) {
	punches, err := s.punchRepo.ListByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return "", fmt.Errorf("failed to list punches for day: %w", err)
	}

	if len(punches) > 0 && at.Before(punches[len(punches)-1].Time) {
		return "", punch.ErrOutOfOrderPunch
	}

	// The cycle advances over punches that still count; rejected ones keep
	// their slot in history but not in the sequence.
	for i := len(punches) - 1; i >= 0; i-- {
		if punches[i].CountsTowardTotals() {
			return punches[i].Type.Next(), nil
		}
	}
	return punch.EntryClockIn, nil
}

// refreshAndFlag recomputes the day and, for self-reported punches, flags
// the new punch for approval when it produced an inconsistency.
func (s *IngestServiceImpl) refreshAndFlag(ctx context.Context, p punch.Punch) (punch.Punch, error) {
	comp, err := s.timesheetSvc.Refresh(ctx, p.EmployeeID, p.Date)

	var capErr *timebank.CapExceededError
	if err != nil && !errors.As(err, &capErr) {
		return p, fmt.Errorf("failed to recompute day after punch: %w", err)
	}

	if (p.Method == punch.MethodWeb || p.Method == punch.MethodMobile) && flaggedBy(comp, p.ID) {
		p.Status = punch.StatusPendingReview
		p.ApprovalStatus = punch.ApprovalPending
		if updateErr := s.punchRepo.Update(ctx, p); updateErr != nil {
			return p, fmt.Errorf("failed to flag punch for review: %w", updateErr)
		}
	}

	if capErr != nil {
		return p, capErr
	}
	return p, nil
}

func flaggedBy(comp timesheet.DailyComputation, punchID string) bool {
	for _, inc := range comp.Inconsistencies {
		if inc.PunchID == punchID {
			return true
		}
	}
	return false
}

func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
