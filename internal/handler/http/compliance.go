package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pontoweb/ponto-backend-go/internal/domain/compliance"
	"github.com/pontoweb/ponto-backend-go/internal/handler/http/middleware"
	"github.com/pontoweb/ponto-backend-go/internal/handler/http/response"
)

type ComplianceHandler interface {
	ImportAfd(w http.ResponseWriter, r *http.Request)
	ExportAej(w http.ResponseWriter, r *http.Request)
}

type complianceHandlerImpl struct {
	complianceService compliance.ComplianceService
}

func NewComplianceHandler(complianceService compliance.ComplianceService) ComplianceHandler {
	return &complianceHandlerImpl{complianceService: complianceService}
}

// ImportAfd implements ComplianceHandler. The request body is the raw AFD
// file; it is streamed through the ingest rules line by line, so a large
// file never loads fully into memory.
func (h *complianceHandlerImpl) ImportAfd(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromRequest(r)

	report, err := h.complianceService.ImportAfd(r.Context(), r.Body, actor.ID)
	if err != nil {
		// A cancelled import still produced a partial report; everything in
		// it was applied and stays applied.
		if report.Cancelled {
			response.SuccessWithMessage(w, "Import cancelled; applied punches were kept", report)
			return
		}
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "AFD file imported", report)
}

// ExportAej implements ComplianceHandler. The AEJ file is streamed directly
// to the response body.
func (h *complianceHandlerImpl) ExportAej(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		response.BadRequest(w, "from must be in YYYY-MM-DD format", nil)
		return
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		response.BadRequest(w, "to must be in YYYY-MM-DD format", nil)
		return
	}

	req := compliance.ExportRequest{
		From:    from,
		To:      to,
		ActorID: middleware.ActorFromRequest(r).ID,
	}
	if v := q.Get("employee_ids"); v != "" {
		req.EmployeeIDs = strings.Split(v, ",")
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(
		"attachment; filename=\"aej_%s_%s.txt\"",
		from.Format("20060102"), to.Format("20060102"),
	))

	if err := h.complianceService.ExportAej(r.Context(), req, w); err != nil {
		// Headers may already be out; HandleError only works before the first
		// byte of the file, which covers validation failures.
		response.HandleError(w, err)
		return
	}
}
