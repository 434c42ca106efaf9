package compliance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pontoweb/ponto-backend-go/internal/domain/compliance"
	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	timesheetsvc "github.com/pontoweb/ponto-backend-go/internal/service/timesheet"
)

// AEJ (Arquivo Eletrônico de Jornada) is the pipe-delimited export consumed
// by auditors. Record types: 01 header, 02 one contract line per employee,
// 03 one line per punch, 04 one line per day with computed totals, 99
// trailer with record counts. The layout carries no generation timestamp:
// the same range over the same data must serialize byte-identically.

type aejCounts struct {
	contracts, punches, totals int
}

func (s *ComplianceServiceImpl) writeAej(ctx context.Context, req compliance.ExportRequest, bw *bufio.Writer) error {
	punches, err := s.punchRepo.ListForExport(ctx, req.From, req.To, req.EmployeeIDs)
	if err != nil {
		return fmt.Errorf("failed to list punches for export: %w", err)
	}

	fmt.Fprintf(bw, "01|%s|%s|%s|%s|%s\n",
		s.employer.IDType, s.employer.ID, s.employer.Name,
		req.From.Format("2006-01-02"), req.To.Format("2006-01-02"))

	// Open days inside the range must not accrue "live" minutes that depend
	// on when the export runs.
	asOf := req.To.AddDate(0, 0, 1)

	var counts aejCounts
	for start := 0; start < len(punches); {
		end := start
		for end < len(punches) && punches[end].EmployeeID == punches[start].EmployeeID {
			end++
		}
		if err := s.writeEmployee(ctx, bw, req, punches[start:end], asOf, &counts); err != nil {
			return err
		}
		start = end
	}

	fmt.Fprintf(bw, "99|%d|%d|%d\n", counts.contracts, counts.punches, counts.totals)
	return nil
}

func (s *ComplianceServiceImpl) writeEmployee(
	ctx context.Context,
	bw *bufio.Writer,
	req compliance.ExportRequest,
	punches []punch.Punch,
	asOf time.Time,
	counts *aejCounts,
) error {
	employeeID := punches[0].EmployeeID

	rule, err := s.scheduleRepo.ActiveForEmployee(ctx, employeeID, req.To)
	if err != nil && !errors.Is(err, schedule.ErrNoActiveShiftRule) {
		return fmt.Errorf("failed to resolve shift rule for export: %w", err)
	}
	if err == nil {
		fmt.Fprintf(bw, "02|%s|%s|%s|%s|%s\n",
			employeeID, rule.ID, rule.Name,
			formatHours(rule.DailyHours), formatHours(rule.WeeklyHours))
		counts.contracts++
	}

	for _, p := range punches {
		fmt.Fprintf(bw, "03|%s|%s|%s|%s|%s|%s\n",
			p.EmployeeID,
			p.Date.Format("2006-01-02"),
			p.Time.UTC().Format(time.RFC3339),
			p.Type, p.Method, p.ComplianceTag)
		counts.punches++
	}

	// One totals record per day, recomputed from the exported punch set.
	for start := 0; start < len(punches); {
		end := start
		day := punches[start].Date
		for end < len(punches) && sameDay(punches[end].Date, day) {
			end++
		}
		dayRule, ruleErr := s.scheduleRepo.ActiveForEmployee(ctx, employeeID, day)
		if ruleErr == nil {
			comp := timesheetsvc.Compute(employeeID, day, punches[start:end], dayRule, asOf)
			fmt.Fprintf(bw, "04|%s|%s|%d|%d|%d|%d|%s\n",
				employeeID, day.Format("2006-01-02"),
				comp.WorkedMinutes, comp.BreakMinutes,
				comp.OvertimeMinutes, comp.DeficitMinutes,
				dayFlag(comp.Incomplete, comp.NeedsReview))
			counts.totals++
		} else if !errors.Is(ruleErr, schedule.ErrNoActiveShiftRule) {
			return fmt.Errorf("failed to resolve shift rule for export: %w", ruleErr)
		}
		start = end
	}
	return nil
}

func dayFlag(incomplete, needsReview bool) string {
	switch {
	case incomplete:
		return "incomplete"
	case needsReview:
		return "needs_review"
	default:
		return "ok"
	}
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func sameDay(a, b time.Time) bool {
	return a.UTC().Format("2006-01-02") == b.UTC().Format("2006-01-02")
}
