package schedule

import (
	"context"
	"time"
)

type ScheduleService interface {
	CreateShiftRule(ctx context.Context, req CreateShiftRuleRequest) (ShiftRuleResponse, error)
	GetShiftRule(ctx context.Context, id string) (ShiftRuleResponse, error)
	ListShiftRules(ctx context.Context) ([]ShiftRuleResponse, error)
	DeactivateShiftRule(ctx context.Context, id string) error

	// Assign makes the rule govern the employee from the given date,
	// closing any previous assignment so at most one is active per instant.
	Assign(ctx context.Context, ruleID string, req AssignShiftRuleRequest) (Assignment, error)

	ActiveForEmployee(ctx context.Context, employeeID string, at time.Time) (ShiftRule, error)
}
