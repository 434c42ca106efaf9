package timebank

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEntryNotFound = errors.New("time bank entry not found")
)

// CapExceededError reports minutes that could not be banked because the
// policy cap was reached. The posted portion is already in the ledger; the
// excess requires managerial disposition (pay out or discard) and is never
// silently dropped.
type CapExceededError struct {
	EmployeeID    string
	Date          time.Time
	PostedMinutes int
	ExcessMinutes int
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("time bank cap exceeded for employee %s on %s: %d minutes posted, %d minutes need disposition",
		e.EmployeeID, e.Date.Format("2006-01-02"), e.PostedMinutes, e.ExcessMinutes)
}
