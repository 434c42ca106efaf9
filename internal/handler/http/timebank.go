package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pontoweb/ponto-backend-go/internal/domain/timebank"
	"github.com/pontoweb/ponto-backend-go/internal/handler/http/response"
)

type TimeBankHandler interface {
	Balance(w http.ResponseWriter, r *http.Request)
	Statement(w http.ResponseWriter, r *http.Request)
}

type timeBankHandlerImpl struct {
	timeBankService timebank.TimeBankService
}

func NewTimeBankHandler(timeBankService timebank.TimeBankService) TimeBankHandler {
	return &timeBankHandlerImpl{timeBankService: timeBankService}
}

// Balance implements TimeBankHandler.
func (h *timeBankHandlerImpl) Balance(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	var asOf time.Time
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(w, "as_of must be a valid RFC3339 datetime", nil)
			return
		}
		asOf = parsed
	}

	balance, err := h.timeBankService.Balance(r.Context(), employeeID, asOf)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"employee_id":     employeeID,
		"balance_minutes": balance,
	})
}

// Statement implements TimeBankHandler.
func (h *timeBankHandlerImpl) Statement(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		response.BadRequest(w, "from must be in YYYY-MM-DD format", nil)
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		response.BadRequest(w, "to must be in YYYY-MM-DD format", nil)
		return
	}

	entries, err := h.timeBankService.Statement(r.Context(), employeeID, from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	items := make([]timebank.TimeBankEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, timebank.ToResponse(e))
	}
	response.Success(w, items)
}
