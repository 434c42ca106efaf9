package schedule

import (
	"context"
	"time"
)

type ShiftRuleRepository interface {
	Create(ctx context.Context, rule ShiftRule) (ShiftRule, error)
	Update(ctx context.Context, rule ShiftRule) error
	GetByID(ctx context.Context, id string) (ShiftRule, error)
	List(ctx context.Context) ([]ShiftRule, error)

	// ActiveForEmployee resolves the single shift rule governing the
	// employee at the given instant.
	ActiveForEmployee(ctx context.Context, employeeID string, at time.Time) (ShiftRule, error)

	// Assign opens an assignment starting at from, closing any previously
	// open assignment the day before. Runs inside one transaction.
	Assign(ctx context.Context, employeeID, ruleID string, from time.Time) (Assignment, error)
}
