package compliance

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pontoweb/ponto-backend-go/internal/domain/audit"
	"github.com/pontoweb/ponto-backend-go/internal/domain/compliance"
	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/locker"
	"github.com/pontoweb/ponto-backend-go/internal/repository/memory"
	ingestsvc "github.com/pontoweb/ponto-backend-go/internal/service/ingest"
	timebanksvc "github.com/pontoweb/ponto-backend-go/internal/service/timebank"
	timesheetsvc "github.com/pontoweb/ponto-backend-go/internal/service/timesheet"
)

const (
	knownCPF  = "52998224725"
	repSerial = "00004000123456789"
)

type fixture struct {
	punchRepo *memory.PunchRepository
	auditRepo *memory.AuditRepository
	svc       compliance.ComplianceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	punchRepo := memory.NewPunchRepository()
	scheduleRepo := memory.NewShiftRuleRepository()
	auditRepo := memory.NewAuditRepository()
	directory := memory.NewEmployeeDirectory()
	directory.Register(knownCPF, "emp-1")

	rule, err := scheduleRepo.Create(context.Background(), schedule.ShiftRule{
		ID:         "rule-1",
		Name:       "Standard 8h",
		DailyHours: 8,
		IsActive:   true,
	})
	require.NoError(t, err)
	_, err = scheduleRepo.Assign(context.Background(), "emp-1", rule.ID,
		mustTime(t, "2025-01-01T00:00:00Z"))
	require.NoError(t, err)

	bank := timebanksvc.NewTimeBankService(memory.NewTimeBankRepository(), auditRepo)
	ts := timesheetsvc.NewTimesheetService(punchRepo, scheduleRepo, bank)
	ingest := ingestsvc.NewIngestService(punchRepo, scheduleRepo, ts, locker.New(), time.Second)

	return &fixture{
		punchRepo: punchRepo,
		auditRepo: auditRepo,
		svc: NewComplianceService(punchRepo, scheduleRepo, ingest, directory, auditRepo, Employer{
			IDType: "1",
			ID:     "12345678000190",
			Name:   "Pontoweb Sistemas LTDA",
		}),
	}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func punchLine(t *testing.T, nsr int64, stamp, cpf string) string {
	t.Helper()
	at, err := time.Parse(afdTimeLayout, stamp)
	require.NoError(t, err)
	return afdPunchRecord{NSR: nsr, At: at, CPF: cpf}.marshal()
}

func headerLine() string {
	return afdHeader{
		EmployerIDType: "1",
		EmployerID:     "12345678000190",
		EmployerName:   "Pontoweb Sistemas LTDA",
		DeviceSerial:   repSerial,
	}.marshal()
}

func TestImportAfd_PartialTolerance(t *testing.T) {
	f := newFixture(t)

	lines := []string{
		headerLine(),
		punchLine(t, 1, "2025-03-10T08:00:00-0300", knownCPF),
		punchLine(t, 2, "2025-03-10T12:00:00-0300", knownCPF),
		"garbage that matches no record layout",
		punchLine(t, 3, "2025-03-10T13:00:00-0300", knownCPF),
		punchLine(t, 4, "2025-03-10T11:00:00-0300", "98765432100"), // unknown CPF
		punchLine(t, 5, "2025-03-10T17:00:00-0300", knownCPF),
		punchLine(t, 1, "2025-03-10T08:00:00-0300", knownCPF), // duplicate of NSR 1
		marshalAfdTrailer(6),
	}

	report, err := f.svc.ImportAfd(context.Background(), strings.NewReader(strings.Join(lines, "\n")), "importer-1")
	require.NoError(t, err)

	assert.Equal(t, repSerial, report.DeviceSerial)
	assert.Equal(t, len(lines), report.TotalLines)
	assert.False(t, report.Cancelled)
	require.Len(t, report.Applied, 4)
	require.Len(t, report.Rejected, 3)

	reasons := map[string]int{}
	for _, r := range report.Rejected {
		reasons[r.Reason]++
	}
	assert.Equal(t, 1, reasons[compliance.ReasonMalformed])
	assert.Equal(t, 1, reasons[compliance.ReasonUnknownEmployee])
	assert.Equal(t, 1, reasons[compliance.ReasonDuplicate])

	// The four applied punches walked the full cycle.
	day := mustTime(t, "2025-03-10T00:00:00Z")
	punches, err := f.punchRepo.ListByEmployeeAndDate(context.Background(), "emp-1", day)
	require.NoError(t, err)
	require.Len(t, punches, 4)
	assert.Equal(t, punch.EntryClockIn, punches[0].Type)
	assert.Equal(t, punch.EntryBreakStart, punches[1].Type)
	assert.Equal(t, punch.EntryBreakEnd, punches[2].Type)
	assert.Equal(t, punch.EntryClockOut, punches[3].Type)
	assert.Equal(t, punch.MethodTerminalImport, punches[0].Method)
	require.NotNil(t, punches[0].DeviceSerial)
	assert.Equal(t, repSerial, *punches[0].DeviceSerial)
}

func TestImportAfd_OutOfOrderLine(t *testing.T) {
	f := newFixture(t)

	lines := []string{
		headerLine(),
		punchLine(t, 1, "2025-03-10T12:00:00-0300", knownCPF),
		punchLine(t, 2, "2025-03-10T08:00:00-0300", knownCPF),
	}

	report, err := f.svc.ImportAfd(context.Background(), strings.NewReader(strings.Join(lines, "\n")), "importer-1")
	require.NoError(t, err)
	require.Len(t, report.Applied, 1)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, compliance.ReasonOutOfOrder, report.Rejected[0].Reason)
}

// cancelReader hands out one line per Read and cancels the context before a
// chosen line becomes visible to the scanner.
type cancelReader struct {
	lines    []string
	next     int
	cancelAt int
	cancel   context.CancelFunc
}

func (r *cancelReader) Read(p []byte) (int, error) {
	if r.next >= len(r.lines) {
		return 0, context.Canceled
	}
	if r.next == r.cancelAt {
		r.cancel()
	}
	n := copy(p, r.lines[r.next]+"\n")
	r.next++
	return n, nil
}

func TestImportAfd_CancelledMidStreamKeepsAppliedPunches(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	reader := &cancelReader{
		lines: []string{
			headerLine(),
			punchLine(t, 1, "2025-03-10T08:00:00-0300", knownCPF),
			punchLine(t, 2, "2025-03-10T12:00:00-0300", knownCPF),
			punchLine(t, 3, "2025-03-10T13:00:00-0300", knownCPF),
		},
		cancelAt: 3,
		cancel:   cancel,
	}

	report, err := f.svc.ImportAfd(ctx, reader, "importer-1")
	assert.ErrorIs(t, err, compliance.ErrImportCancelled)
	assert.True(t, report.Cancelled)
	require.Len(t, report.Applied, 2)

	day := mustTime(t, "2025-03-10T00:00:00Z")
	punches, listErr := f.punchRepo.ListByEmployeeAndDate(context.Background(), "emp-1", day)
	require.NoError(t, listErr)
	assert.Len(t, punches, 2, "punches applied before cancellation persist")
}

func TestExportAej_Idempotent(t *testing.T) {
	f := newFixture(t)

	lines := []string{
		headerLine(),
		punchLine(t, 1, "2025-03-10T08:00:00-0300", knownCPF),
		punchLine(t, 2, "2025-03-10T12:00:00-0300", knownCPF),
		punchLine(t, 3, "2025-03-10T13:00:00-0300", knownCPF),
		punchLine(t, 4, "2025-03-10T17:00:00-0300", knownCPF),
	}
	_, err := f.svc.ImportAfd(context.Background(), strings.NewReader(strings.Join(lines, "\n")), "importer-1")
	require.NoError(t, err)

	req := compliance.ExportRequest{
		From:    mustTime(t, "2025-03-01T00:00:00Z"),
		To:      mustTime(t, "2025-03-31T00:00:00Z"),
		ActorID: "auditor-1",
	}

	var first, second bytes.Buffer
	require.NoError(t, f.svc.ExportAej(context.Background(), req, &first))
	require.NoError(t, f.svc.ExportAej(context.Background(), req, &second))

	assert.Equal(t, first.String(), second.String(), "same range over same data must be byte-identical")

	out := strings.Split(strings.TrimRight(first.String(), "\n"), "\n")
	require.Len(t, out, 8) // 01 header, 02 contract, 4x 03 punches, 04 totals, 99 trailer
	assert.True(t, strings.HasPrefix(out[0], "01|1|12345678000190|"))
	assert.True(t, strings.HasPrefix(out[1], "02|emp-1|rule-1|Standard 8h|8|"))
	assert.True(t, strings.HasPrefix(out[2], "03|emp-1|2025-03-10|"))
	assert.Equal(t, "04|emp-1|2025-03-10|480|60|0|0|ok", out[6])
	assert.Equal(t, "99|1|4|1", out[7])
}

func TestExportAej_EmptyRange(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ExportAej(context.Background(), compliance.ExportRequest{
		From: mustTime(t, "2025-03-31T00:00:00Z"),
		To:   mustTime(t, "2025-03-01T00:00:00Z"),
	}, &bytes.Buffer{})
	assert.ErrorIs(t, err, compliance.ErrEmptyRange)
}

func TestExportAej_WritesAuditRecord(t *testing.T) {
	f := newFixture(t)

	req := compliance.ExportRequest{
		From:    mustTime(t, "2025-03-01T00:00:00Z"),
		To:      mustTime(t, "2025-03-31T00:00:00Z"),
		ActorID: "auditor-1",
	}
	require.NoError(t, f.svc.ExportAej(context.Background(), req, &bytes.Buffer{}))

	records, err := f.auditRepo.ListByTarget(context.Background(), "aej_export", "range 2025-03-01..2025-03-31")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, audit.ActionExportAej, records[0].Action)
	assert.Equal(t, "auditor-1", records[0].ActorID)
}
