package response

import (
	"errors"
	"net/http"

	"github.com/pontoweb/ponto-backend-go/internal/domain/compliance"
	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/domain/timebank"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// A cap breach carries a payload the manager needs; it is not a plain
	// sentinel.
	var capErr *timebank.CapExceededError
	if errors.As(err, &capErr) {
		Conflict(w, capErr.Error())
		return
	}

	switch {
	// Ingest errors
	case errors.Is(err, punch.ErrOutOfOrderPunch):
		Conflict(w, "Punch is earlier than the latest punch of the day; submit a correction instead")
	case errors.Is(err, punch.ErrFutureTimestamp):
		BadRequest(w, "Punch timestamp is in the future", nil)
	case errors.Is(err, punch.ErrDuplicatePunch):
		Conflict(w, "An identical punch already exists")
	case errors.Is(err, punch.ErrOperationTimeout):
		Retryable(w, "Another operation holds this employee day; retry shortly")

	// Workflow errors
	case errors.Is(err, punch.ErrMissingJustification):
		BadRequest(w, "A correction requires a justification", nil)
	case errors.Is(err, punch.ErrNotPendingApproval):
		Conflict(w, "Punch is not pending approval")
	case errors.Is(err, punch.ErrAlreadyProcessed):
		Conflict(w, "Punch has already been approved or rejected")
	case errors.Is(err, punch.ErrNotAuthorized):
		Forbidden(w, "Managing punches requires a manager role")
	case errors.Is(err, punch.ErrPunchNotFound):
		NotFound(w, "Punch not found")

	// Schedule errors
	case errors.Is(err, schedule.ErrShiftRuleNotFound):
		NotFound(w, "Shift rule not found")
	case errors.Is(err, schedule.ErrNoActiveShiftRule):
		BadRequest(w, "No active shift rule governs this employee", nil)
	case errors.Is(err, schedule.ErrAssignmentNotFound):
		NotFound(w, "Shift rule assignment not found")
	case errors.Is(err, schedule.ErrRuleInactive):
		Conflict(w, "Shift rule is not active")

	// Time bank errors
	case errors.Is(err, timebank.ErrEntryNotFound):
		NotFound(w, "Time bank entry not found")

	// Compliance errors
	case errors.Is(err, compliance.ErrEmptyRange):
		BadRequest(w, "Export range is empty", nil)
	case errors.Is(err, compliance.ErrUnknownEmployee):
		NotFound(w, "No employee matches the record identifier")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
