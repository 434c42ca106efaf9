package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pontoweb/ponto-backend-go/internal/domain/timesheet"
	"github.com/pontoweb/ponto-backend-go/internal/handler/http/response"
)

type TimesheetHandler interface {
	GetDay(w http.ResponseWriter, r *http.Request)
}

type timesheetHandlerImpl struct {
	timesheetService timesheet.TimesheetService
}

func NewTimesheetHandler(timesheetService timesheet.TimesheetService) TimesheetHandler {
	return &timesheetHandlerImpl{timesheetService: timesheetService}
}

// GetDay implements TimesheetHandler. Totals are derived on demand; the
// endpoint never mutates the ledger.
func (h *timesheetHandlerImpl) GetDay(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		response.BadRequest(w, "date must be in YYYY-MM-DD format", nil)
		return
	}

	comp, err := h.timesheetService.ComputeDay(r.Context(), employeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, timesheet.ToResponse(comp))
}
