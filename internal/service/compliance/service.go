package compliance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/pontoweb/ponto-backend-go/internal/domain/audit"
	"github.com/pontoweb/ponto-backend-go/internal/domain/compliance"
	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timebank"
)

// Employer identifies the company in AFD/AEJ headers. Loaded from config.
type Employer struct {
	IDType string // "1" CNPJ, "2" CPF
	ID     string
	Name   string
}

type ComplianceServiceImpl struct {
	punchRepo    punch.PunchRepository
	scheduleRepo schedule.ShiftRuleRepository
	ingestSvc    punch.IngestService
	resolver     compliance.EmployeeResolver
	auditRepo    audit.AuditRepository
	employer     Employer
}

func NewComplianceService(
	punchRepo punch.PunchRepository,
	scheduleRepo schedule.ShiftRuleRepository,
	ingestSvc punch.IngestService,
	resolver compliance.EmployeeResolver,
	auditRepo audit.AuditRepository,
	employer Employer,
) compliance.ComplianceService {
	return &ComplianceServiceImpl{
		punchRepo:    punchRepo,
		scheduleRepo: scheduleRepo,
		ingestSvc:    ingestSvc,
		resolver:     resolver,
		auditRepo:    auditRepo,
		employer:     employer,
	}
}

// ImportAfd implements compliance.ComplianceService. The file is processed
// line by line in bounded memory; a bad line lands in the report and the
// import keeps going. Cancellation keeps everything applied so far.
func (s *ComplianceServiceImpl) ImportAfd(ctx context.Context, r io.Reader, actorID string) (compliance.ImportReport, error) {
	report := compliance.ImportReport{}
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		line++
		report.TotalLines++
		text := scanner.Text()
		if text == "" {
			continue
		}

		if len(text) < 10 {
			report.Rejected = append(report.Rejected, compliance.RejectedLine{
				Line:   line,
				Reason: compliance.ReasonMalformed,
				Detail: "record shorter than its type marker",
			})
			continue
		}

		switch text[9] {
		case '1':
			header, err := parseAfdHeader(text)
			if err != nil {
				report.Rejected = append(report.Rejected, compliance.RejectedLine{
					Line: line, Reason: compliance.ReasonMalformed, Detail: err.Error(),
				})
				continue
			}
			report.DeviceSerial = header.DeviceSerial
		case '3':
			s.importPunchLine(ctx, text, line, &report)
		case '9':
			// Trailer. Counts are informational; the report carries the
			// authoritative per-line outcome.
		default:
			// Record types 2, 4 and 5 (employer/employee/adjustment
			// bookkeeping) carry no punches.
		}
	}

	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("failed to read AFD stream: %w", err)
	}

	s.auditImport(ctx, actorID, report)

	if report.Cancelled {
		return report, compliance.ErrImportCancelled
	}
	return report, nil
}

func (s *ComplianceServiceImpl) importPunchLine(ctx context.Context, text string, line int, report *compliance.ImportReport) {
	rec, err := parseAfdPunchRecord(text)
	if err != nil {
		report.Rejected = append(report.Rejected, compliance.RejectedLine{
			Line: line, Reason: compliance.ReasonMalformed, Detail: err.Error(),
		})
		return
	}

	employeeID, err := s.resolver.ByCPF(ctx, rec.CPF)
	if err != nil {
		report.Rejected = append(report.Rejected, compliance.RejectedLine{
			Line: line, Sequence: rec.NSR,
			Reason: compliance.ReasonUnknownEmployee,
			Detail: fmt.Sprintf("no employee for CPF ending %s", rec.CPF[len(rec.CPF)-4:]),
		})
		return
	}

	created, err := s.ingestSvc.Import(ctx, punch.ImportPunchRequest{
		EmployeeID:   employeeID,
		At:           rec.At,
		DeviceSerial: report.DeviceSerial,
		Sequence:     rec.NSR,
		Checksum:     text[46:],
	})

	var capErr *timebank.CapExceededError
	switch {
	case err == nil || errors.As(err, &capErr):
		// A cap hit is a ledger condition, not an import failure; the punch
		// itself is persisted.
		report.Applied = append(report.Applied, compliance.AppliedLine{
			Line: line, Sequence: rec.NSR, PunchID: created.ID, EmployeeID: employeeID,
		})
	case errors.Is(err, punch.ErrDuplicatePunch):
		report.Rejected = append(report.Rejected, compliance.RejectedLine{
			Line: line, Sequence: rec.NSR, Reason: compliance.ReasonDuplicate,
		})
	case errors.Is(err, punch.ErrOutOfOrderPunch):
		report.Rejected = append(report.Rejected, compliance.RejectedLine{
			Line: line, Sequence: rec.NSR, Reason: compliance.ReasonOutOfOrder,
		})
	case errors.Is(err, schedule.ErrNoActiveShiftRule):
		report.Rejected = append(report.Rejected, compliance.RejectedLine{
			Line: line, Sequence: rec.NSR, Reason: compliance.ReasonNoShiftRule,
		})
	default:
		report.Rejected = append(report.Rejected, compliance.RejectedLine{
			Line: line, Sequence: rec.NSR,
			Reason: compliance.ReasonMalformed,
			Detail: err.Error(),
		})
	}
}

func (s *ComplianceServiceImpl) auditImport(ctx context.Context, actorID string, report compliance.ImportReport) {
	detail := fmt.Sprintf("%d lines: %d applied, %d rejected", report.TotalLines, len(report.Applied), len(report.Rejected))
	if report.Cancelled {
		detail += " (cancelled)"
	}
	// Best effort: the punches are already persisted either way.
	_, _ = s.auditRepo.Append(ctx, audit.AuditRecord{
		ID:         uuid.Must(uuid.NewV7()).String(),
		ActorID:    actorID,
		Action:     audit.ActionImportAfd,
		TargetType: "afd_import",
		TargetID:   report.DeviceSerial,
		AfterValue: &detail,
	})
}

// ExportAej implements compliance.ComplianceService.
func (s *ComplianceServiceImpl) ExportAej(ctx context.Context, req compliance.ExportRequest, w io.Writer) error {
	if req.From.IsZero() || req.To.IsZero() || req.To.Before(req.From) {
		return compliance.ErrEmptyRange
	}

	bw := bufio.NewWriter(w)
	if err := s.writeAej(ctx, req, bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush AEJ output: %w", err)
	}

	detail := fmt.Sprintf("range %s..%s", req.From.Format("2006-01-02"), req.To.Format("2006-01-02"))
	if _, err := s.auditRepo.Append(ctx, audit.AuditRecord{
		ID:         uuid.Must(uuid.NewV7()).String(),
		ActorID:    req.ActorID,
		Action:     audit.ActionExportAej,
		TargetType: "aej_export",
		TargetID:   detail,
		AfterValue: &detail,
	}); err != nil {
		return fmt.Errorf("failed to audit AEJ export: %w", err)
	}
	return nil
}
