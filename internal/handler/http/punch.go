package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pontoweb/ponto-backend-go/internal/domain/audit"
	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/handler/http/middleware"
	"github.com/pontoweb/ponto-backend-go/internal/handler/http/response"
)

type PunchHandler interface {
	Record(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	AuditTrail(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Correct(w http.ResponseWriter, r *http.Request)
}

type punchHandlerImpl struct {
	ingestService   punch.IngestService
	workflowService punch.WorkflowService
	punchRepo       punch.PunchRepository
	auditRepo       audit.AuditRepository
}

func NewPunchHandler(
	ingestService punch.IngestService,
	workflowService punch.WorkflowService,
	punchRepo punch.PunchRepository,
	auditRepo audit.AuditRepository,
) PunchHandler {
	return &punchHandlerImpl{
		ingestService:   ingestService,
		workflowService: workflowService,
		punchRepo:       punchRepo,
		auditRepo:       auditRepo,
	}
}

// Record implements PunchHandler.
func (h *punchHandlerImpl) Record(w http.ResponseWriter, r *http.Request) {
	var req punch.RecordPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.ingestService.Record(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punch recorded", punch.ToResponse(result))
}

// List implements PunchHandler.
func (h *punchHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := punch.PunchFilter{
		Page:  1,
		Limit: 20,
	}

	q := r.URL.Query()
	if v := q.Get("employee_id"); v != "" {
		filter.EmployeeID = &v
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if v := q.Get("start_date"); v != "" {
		filter.StartDate = &v
	}
	if v := q.Get("end_date"); v != "" {
		filter.EndDate = &v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		filter.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 100 {
		filter.Limit = v
	}

	punches, total, err := h.punchRepo.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	items := make([]punch.PunchResponse, 0, len(punches))
	for _, p := range punches {
		items = append(items, punch.ToResponse(p))
	}

	totalPages := int(total) / filter.Limit
	if int(total)%filter.Limit > 0 {
		totalPages++
	}
	response.SuccessWithMeta(w, items, &response.Meta{
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// Get implements PunchHandler.
func (h *punchHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.punchRepo.GetByID(r.Context(), chi.URLParam(r, "punchID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, punch.ToResponse(p))
}

// AuditTrail implements PunchHandler. The chain of corrections and
// approvals, oldest first.
func (h *punchHandlerImpl) AuditTrail(w http.ResponseWriter, r *http.Request) {
	punchID := chi.URLParam(r, "punchID")

	if _, err := h.punchRepo.GetByID(r.Context(), punchID); err != nil {
		response.HandleError(w, err)
		return
	}

	records, err := h.auditRepo.ListByTarget(r.Context(), "punch", punchID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	items := make([]audit.AuditRecordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, audit.ToResponse(rec))
	}
	response.Success(w, items)
}

// Approve implements PunchHandler.
func (h *punchHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	var req punch.ApprovePunchRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}
	req.PunchID = chi.URLParam(r, "punchID")
	req.Actor = middleware.ActorFromRequest(r)

	result, err := h.workflowService.Approve(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Punch approved", punch.ToResponse(result))
}

// Reject implements PunchHandler.
func (h *punchHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	var req punch.RejectPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.PunchID = chi.URLParam(r, "punchID")
	req.Actor = middleware.ActorFromRequest(r)

	result, err := h.workflowService.Reject(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Punch rejected", punch.ToResponse(result))
}

// Correct implements PunchHandler.
func (h *punchHandlerImpl) Correct(w http.ResponseWriter, r *http.Request) {
	var req punch.CorrectPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.PunchID = chi.URLParam(r, "punchID")
	req.Actor = middleware.ActorFromRequest(r)

	result, err := h.workflowService.Correct(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Punch corrected", punch.ToResponse(result))
}
