package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/handler/http/response"
)

type ScheduleHandler interface {
	CreateShiftRule(w http.ResponseWriter, r *http.Request)
	GetShiftRule(w http.ResponseWriter, r *http.Request)
	ListShiftRules(w http.ResponseWriter, r *http.Request)
	DeactivateShiftRule(w http.ResponseWriter, r *http.Request)
	Assign(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	scheduleService schedule.ScheduleService
}

func NewScheduleHandler(scheduleService schedule.ScheduleService) ScheduleHandler {
	return &scheduleHandlerImpl{scheduleService: scheduleService}
}

// CreateShiftRule implements ScheduleHandler.
func (h *scheduleHandlerImpl) CreateShiftRule(w http.ResponseWriter, r *http.Request) {
	var req schedule.CreateShiftRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.scheduleService.CreateShiftRule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Shift rule created", result)
}

// GetShiftRule implements ScheduleHandler.
func (h *scheduleHandlerImpl) GetShiftRule(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduleService.GetShiftRule(r.Context(), chi.URLParam(r, "ruleID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// ListShiftRules implements ScheduleHandler.
func (h *scheduleHandlerImpl) ListShiftRules(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduleService.ListShiftRules(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// DeactivateShiftRule implements ScheduleHandler. Deactivation keeps the
// rule on record; past days already governed by it still resolve to it.
func (h *scheduleHandlerImpl) DeactivateShiftRule(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduleService.DeactivateShiftRule(r.Context(), chi.URLParam(r, "ruleID")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Shift rule deactivated", nil)
}

// Assign implements ScheduleHandler.
func (h *scheduleHandlerImpl) Assign(w http.ResponseWriter, r *http.Request) {
	var req schedule.AssignShiftRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	assignment, err := h.scheduleService.Assign(r.Context(), chi.URLParam(r, "ruleID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var endDate *string
	if assignment.EndDate != nil {
		s := assignment.EndDate.Format("2006-01-02")
		endDate = &s
	}
	response.Created(w, "Shift rule assigned", map[string]interface{}{
		"id":          assignment.ID,
		"employee_id": assignment.EmployeeID,
		"rule_id":     assignment.RuleID,
		"start_date":  assignment.StartDate.Format("2006-01-02"),
		"end_date":    endDate,
		"created_at":  assignment.CreatedAt.UTC().Format(time.RFC3339),
	})
}
