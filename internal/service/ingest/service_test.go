package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/locker"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/validator"
	"github.com/pontoweb/ponto-backend-go/internal/repository/memory"
	timebanksvc "github.com/pontoweb/ponto-backend-go/internal/service/timebank"
	timesheetsvc "github.com/pontoweb/ponto-backend-go/internal/service/timesheet"
)

type fixture struct {
	punchRepo *memory.PunchRepository
	locks     *locker.DayLocker
	svc       punch.IngestService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	punchRepo := memory.NewPunchRepository()
	scheduleRepo := memory.NewShiftRuleRepository()
	bankRepo := memory.NewTimeBankRepository()
	auditRepo := memory.NewAuditRepository()

	rule, err := scheduleRepo.Create(context.Background(), schedule.ShiftRule{
		ID:         "rule-1",
		Name:       "Standard 8h",
		Country:    "BR",
		Type:       schedule.ShiftFixed,
		DailyHours: 8,
		IsActive:   true,
	})
	require.NoError(t, err)
	_, err = scheduleRepo.Assign(context.Background(), "emp-1", rule.ID,
		time.Now().UTC().AddDate(0, -1, 0))
	require.NoError(t, err)

	bank := timebanksvc.NewTimeBankService(bankRepo, auditRepo)
	ts := timesheetsvc.NewTimesheetService(punchRepo, scheduleRepo, bank)
	locks := locker.New()

	return &fixture{
		punchRepo: punchRepo,
		locks:     locks,
		svc:       NewIngestService(punchRepo, scheduleRepo, ts, locks, time.Second),
	}
}

func record(t *testing.T, f *fixture, employeeID string, at time.Time, method punch.EntryMethod) punch.Punch {
	t.Helper()
	p, err := f.svc.Record(context.Background(), punch.RecordPunchRequest{
		EmployeeID: employeeID,
		Timestamp:  at.UTC().Format(time.RFC3339),
		Method:     method,
	})
	require.NoError(t, err)
	return p
}

func TestRecord_FirstPunchOfDayIsClockIn(t *testing.T) {
	f := newFixture(t)
	at := time.Now().UTC().Add(-4 * time.Hour)

	p := record(t, f, "emp-1", at, punch.MethodWeb)

	assert.Equal(t, punch.EntryClockIn, p.Type)
	assert.Equal(t, punch.StatusValid, p.Status)
	assert.Equal(t, punch.ApprovalNotRequired, p.ApprovalStatus)
	assert.Equal(t, "REP-P", p.ComplianceTag)
	assert.NotEmpty(t, p.ID)
}

func TestRecord_CycleAdvancesAndWraps(t *testing.T) {
	f := newFixture(t)
	base := time.Now().UTC().Add(-8 * time.Hour)

	want := []punch.EntryType{
		punch.EntryClockIn,
		punch.EntryBreakStart,
		punch.EntryBreakEnd,
		punch.EntryClockOut,
		punch.EntryClockIn, // second segment of the same day
	}
	for i, typ := range want {
		p := record(t, f, "emp-1", base.Add(time.Duration(i)*time.Hour), punch.MethodWeb)
		assert.Equal(t, typ, p.Type, "punch %d", i)
	}
}

func TestRecord_OutOfOrderRejected(t *testing.T) {
	f := newFixture(t)
	base := time.Now().UTC().Add(-4 * time.Hour)

	record(t, f, "emp-1", base, punch.MethodWeb)

	_, err := f.svc.Record(context.Background(), punch.RecordPunchRequest{
		EmployeeID: "emp-1",
		Timestamp:  base.Add(-30 * time.Minute).Format(time.RFC3339),
		Method:     punch.MethodWeb,
	})
	assert.ErrorIs(t, err, punch.ErrOutOfOrderPunch)

	punches, listErr := f.punchRepo.ListByEmployeeAndDate(context.Background(), "emp-1", base)
	require.NoError(t, listErr)
	assert.Len(t, punches, 1, "rejected attempt must not persist")
}

func TestRecord_FutureTimestampRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Record(context.Background(), punch.RecordPunchRequest{
		EmployeeID: "emp-1",
		Timestamp:  time.Now().UTC().Add(2 * time.Hour).Format(time.RFC3339),
		Method:     punch.MethodWeb,
	})
	assert.ErrorIs(t, err, punch.ErrFutureTimestamp)
}

func TestRecord_ManualPunchRequiresApproval(t *testing.T) {
	f := newFixture(t)

	p := record(t, f, "emp-1", time.Now().UTC().Add(-time.Hour), punch.MethodManual)

	assert.Equal(t, punch.StatusPendingReview, p.Status)
	assert.Equal(t, punch.ApprovalPending, p.ApprovalStatus)
	assert.Equal(t, "MANUAL", p.ComplianceTag)
}

func TestRecord_NoActiveShiftRule(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Record(context.Background(), punch.RecordPunchRequest{
		EmployeeID: "emp-unknown",
		Timestamp:  time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		Method:     punch.MethodWeb,
	})
	assert.ErrorIs(t, err, schedule.ErrNoActiveShiftRule)
}

func TestRecord_ValidationErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Record(context.Background(), punch.RecordPunchRequest{
		Timestamp: "not-a-timestamp",
		Method:    punch.EntryMethod("fax"),
	})

	var errs validator.ValidationErrors
	require.True(t, errors.As(err, &errs))
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	assert.True(t, fields["employee_id"])
	assert.True(t, fields["timestamp"])
	assert.True(t, fields["method"])
}

func TestRecord_LockTimeout(t *testing.T) {
	f := newFixture(t)
	at := time.Now().UTC().Add(-time.Hour)

	// Hold the employee-day lock so ingest cannot acquire it in time.
	release, err := f.locks.Acquire(context.Background(), "emp-1", at)
	require.NoError(t, err)
	defer release()

	svc := NewIngestService(f.punchRepo, newScheduleRepoFor(t, "emp-1"), nil, f.locks, 20*time.Millisecond)
	_, err = svc.Record(context.Background(), punch.RecordPunchRequest{
		EmployeeID: "emp-1",
		Timestamp:  at.Format(time.RFC3339),
		Method:     punch.MethodWeb,
	})
	assert.ErrorIs(t, err, punch.ErrOperationTimeout)
}

func newScheduleRepoFor(t *testing.T, employeeID string) *memory.ShiftRuleRepository {
	t.Helper()
	repo := memory.NewShiftRuleRepository()
	rule, err := repo.Create(context.Background(), schedule.ShiftRule{
		ID: "rule-1", DailyHours: 8, IsActive: true,
	})
	require.NoError(t, err)
	_, err = repo.Assign(context.Background(), employeeID, rule.ID, time.Now().UTC().AddDate(0, -1, 0))
	require.NoError(t, err)
	return repo
}

func TestImport_CreatesTerminalPunchAndDetectsDuplicates(t *testing.T) {
	f := newFixture(t)
	at := time.Now().UTC().Add(-6 * time.Hour).Truncate(time.Second)

	req := punch.ImportPunchRequest{
		EmployeeID:   "emp-1",
		At:           at,
		DeviceSerial: "00004000123456789",
		Sequence:     42,
		Checksum:     "a1b2",
	}
	p, err := f.svc.Import(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, punch.MethodTerminalImport, p.Method)
	assert.Equal(t, punch.EntryClockIn, p.Type)
	assert.Equal(t, "REP-C", p.ComplianceTag)
	require.NotNil(t, p.DeviceSerial)
	assert.Equal(t, "00004000123456789", *p.DeviceSerial)
	require.NotNil(t, p.SourceSequence)
	assert.Equal(t, int64(42), *p.SourceSequence)

	_, err = f.svc.Import(context.Background(), req)
	assert.ErrorIs(t, err, punch.ErrDuplicatePunch)
}
