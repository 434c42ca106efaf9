package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pontoweb/ponto-backend-go/internal/domain/audit"
	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/locker"
	"github.com/pontoweb/ponto-backend-go/internal/repository/memory"
	timebanksvc "github.com/pontoweb/ponto-backend-go/internal/service/timebank"
	timesheetsvc "github.com/pontoweb/ponto-backend-go/internal/service/timesheet"
)

var manager = punch.Actor{ID: "mgr-1", CanManage: true}

type fixture struct {
	punchRepo *memory.PunchRepository
	auditRepo *memory.AuditRepository
	svc       punch.WorkflowService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	punchRepo := memory.NewPunchRepository()
	scheduleRepo := memory.NewShiftRuleRepository()
	auditRepo := memory.NewAuditRepository()

	rule, err := scheduleRepo.Create(context.Background(), schedule.ShiftRule{
		ID: "rule-1", DailyHours: 8, IsActive: true,
	})
	require.NoError(t, err)
	_, err = scheduleRepo.Assign(context.Background(), "emp-1", rule.ID,
		time.Now().UTC().AddDate(0, -1, 0))
	require.NoError(t, err)

	bank := timebanksvc.NewTimeBankService(memory.NewTimeBankRepository(), auditRepo)
	ts := timesheetsvc.NewTimesheetService(punchRepo, scheduleRepo, bank)

	return &fixture{
		punchRepo: punchRepo,
		auditRepo: auditRepo,
		svc:       NewWorkflowService(punchRepo, auditRepo, ts, locker.New(), time.Second),
	}
}

func seedPunch(t *testing.T, f *fixture, approval punch.ApprovalStatus) punch.Punch {
	t.Helper()
	at := time.Now().UTC().Add(-3 * time.Hour).Truncate(time.Second)
	status := punch.StatusValid
	if approval == punch.ApprovalPending {
		status = punch.StatusPendingReview
	}
	p, err := f.punchRepo.Create(context.Background(), punch.Punch{
		ID:             "punch-1",
		EmployeeID:     "emp-1",
		Date:           dayOf(at),
		Time:           at,
		Type:           punch.EntryClockIn,
		Method:         punch.MethodManual,
		Status:         status,
		ApprovalStatus: approval,
		ComplianceTag:  "MANUAL",
	})
	require.NoError(t, err)
	return p
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	seedPunch(t, f, punch.ApprovalPending)

	p, err := f.svc.Approve(context.Background(), punch.ApprovePunchRequest{
		PunchID: "punch-1",
		Actor:   manager,
	})
	require.NoError(t, err)
	assert.Equal(t, punch.ApprovalApproved, p.ApprovalStatus)
	assert.Equal(t, punch.StatusValid, p.Status)

	records, err := f.auditRepo.ListByTarget(context.Background(), "punch", "punch-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, audit.ActionApprove, records[0].Action)
	assert.Equal(t, "mgr-1", records[0].ActorID)
}

func TestApprove_AlreadyProcessed(t *testing.T) {
	f := newFixture(t)
	seedPunch(t, f, punch.ApprovalPending)

	_, err := f.svc.Approve(context.Background(), punch.ApprovePunchRequest{
		PunchID: "punch-1", Actor: manager,
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), punch.ApprovePunchRequest{
		PunchID: "punch-1", Actor: manager,
	})
	assert.ErrorIs(t, err, punch.ErrAlreadyProcessed)
}

func TestApprove_NotPending(t *testing.T) {
	f := newFixture(t)
	seedPunch(t, f, punch.ApprovalNotRequired)

	_, err := f.svc.Approve(context.Background(), punch.ApprovePunchRequest{
		PunchID: "punch-1", Actor: manager,
	})
	assert.ErrorIs(t, err, punch.ErrNotPendingApproval)
}

func TestApprove_RequiresManager(t *testing.T) {
	f := newFixture(t)
	seedPunch(t, f, punch.ApprovalPending)

	_, err := f.svc.Approve(context.Background(), punch.ApprovePunchRequest{
		PunchID: "punch-1",
		Actor:   punch.Actor{ID: "emp-1", CanManage: false},
	})
	assert.ErrorIs(t, err, punch.ErrNotAuthorized)
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	seedPunch(t, f, punch.ApprovalPending)

	p, err := f.svc.Reject(context.Background(), punch.RejectPunchRequest{
		PunchID: "punch-1",
		Actor:   manager,
		Notes:   "punched from outside the site perimeter",
	})
	require.NoError(t, err)
	assert.Equal(t, punch.StatusRejected, p.Status)
	assert.Equal(t, punch.ApprovalRejected, p.ApprovalStatus)
	assert.False(t, p.CountsTowardTotals())

	// Retained for audit, never deleted.
	stored, err := f.punchRepo.GetByID(context.Background(), "punch-1")
	require.NoError(t, err)
	assert.Equal(t, punch.StatusRejected, stored.Status)

	records, err := f.auditRepo.ListByTarget(context.Background(), "punch", "punch-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Justification)
	assert.Equal(t, "punched from outside the site perimeter", *records[0].Justification)
}

func TestCorrect(t *testing.T) {
	f := newFixture(t)
	seeded := seedPunch(t, f, punch.ApprovalNotRequired)
	newTime := seeded.Time.Add(15 * time.Minute)

	p, err := f.svc.Correct(context.Background(), punch.CorrectPunchRequest{
		PunchID:       "punch-1",
		Actor:         manager,
		NewTime:       newTime.Format(time.RFC3339),
		Justification: "employee forgot to punch, terminal receipt attached",
	})
	require.NoError(t, err)

	assert.True(t, p.IsEdited)
	assert.True(t, p.Time.Equal(newTime))
	require.NotNil(t, p.OriginalTime)
	assert.True(t, p.OriginalTime.Equal(seeded.Time))
	assert.Equal(t, punch.StatusValid, p.Status)
	assert.Equal(t, punch.ApprovalApproved, p.ApprovalStatus)
}

func TestCorrect_MissingJustification(t *testing.T) {
	f := newFixture(t)
	seeded := seedPunch(t, f, punch.ApprovalNotRequired)

	_, err := f.svc.Correct(context.Background(), punch.CorrectPunchRequest{
		PunchID:       "punch-1",
		Actor:         manager,
		NewTime:       seeded.Time.Add(time.Minute).Format(time.RFC3339),
		Justification: "   ",
	})
	assert.ErrorIs(t, err, punch.ErrMissingJustification)

	stored, getErr := f.punchRepo.GetByID(context.Background(), "punch-1")
	require.NoError(t, getErr)
	assert.False(t, stored.IsEdited)
}

func TestCorrect_FirstOriginalTimeIsNeverOverwritten(t *testing.T) {
	f := newFixture(t)
	seeded := seedPunch(t, f, punch.ApprovalNotRequired)

	_, err := f.svc.Correct(context.Background(), punch.CorrectPunchRequest{
		PunchID:       "punch-1",
		Actor:         manager,
		NewTime:       seeded.Time.Add(10 * time.Minute).Format(time.RFC3339),
		Justification: "first correction",
	})
	require.NoError(t, err)

	p, err := f.svc.Correct(context.Background(), punch.CorrectPunchRequest{
		PunchID:       "punch-1",
		Actor:         manager,
		NewTime:       seeded.Time.Add(20 * time.Minute).Format(time.RFC3339),
		Justification: "second correction",
	})
	require.NoError(t, err)

	require.NotNil(t, p.OriginalTime)
	assert.True(t, p.OriginalTime.Equal(seeded.Time),
		"re-correcting must keep the first pre-correction time")

	// The full chain is queryable from the audit trail.
	records, err := f.auditRepo.ListByTarget(context.Background(), "punch", "punch-1")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestCorrect_ConcurrentCorrectionsSerialize(t *testing.T) {
	f := newFixture(t)
	seeded := seedPunch(t, f, punch.ApprovalNotRequired)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Correct(context.Background(), punch.CorrectPunchRequest{
				PunchID:       "punch-1",
				Actor:         manager,
				NewTime:       seeded.Time.Add(time.Duration(i+1) * 5 * time.Minute).Format(time.RFC3339),
				Justification: "concurrent correction",
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	stored, err := f.punchRepo.GetByID(context.Background(), "punch-1")
	require.NoError(t, err)
	require.NotNil(t, stored.OriginalTime)
	assert.True(t, stored.OriginalTime.Equal(seeded.Time))

	records, err := f.auditRepo.ListByTarget(context.Background(), "punch", "punch-1")
	require.NoError(t, err)
	assert.Len(t, records, 2, "both corrections must land, in some order")
}

func TestWorkflow_PunchNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), punch.ApprovePunchRequest{
		PunchID: "missing", Actor: manager,
	})
	assert.ErrorIs(t, err, punch.ErrPunchNotFound)
}
