package schedule

import "errors"

// Shift rule domain errors
var (
	ErrShiftRuleNotFound  = errors.New("shift rule not found")
	ErrNoActiveShiftRule  = errors.New("no active shift rule for employee")
	ErrAssignmentNotFound = errors.New("shift rule assignment not found")
	ErrRuleInactive       = errors.New("shift rule is inactive")
)
