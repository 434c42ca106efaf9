package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
)

type ScheduleServiceImpl struct {
	repo schedule.ShiftRuleRepository
}

func NewScheduleService(repo schedule.ShiftRuleRepository) schedule.ScheduleService {
	return &ScheduleServiceImpl{repo: repo}
}

// CreateShiftRule implements schedule.ScheduleService.
func (s *ScheduleServiceImpl) CreateShiftRule(ctx context.Context, req schedule.CreateShiftRuleRequest) (schedule.ShiftRuleResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ShiftRuleResponse{}, err
	}

	rule := req.ToEntity()
	rule.ID = uuid.Must(uuid.NewV7()).String()

	created, err := s.repo.Create(ctx, rule)
	if err != nil {
		return schedule.ShiftRuleResponse{}, fmt.Errorf("failed to create shift rule: %w", err)
	}
	return schedule.ToResponse(created), nil
}

// GetShiftRule implements schedule.ScheduleService.
func (s *ScheduleServiceImpl) GetShiftRule(ctx context.Context, id string) (schedule.ShiftRuleResponse, error) {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return schedule.ShiftRuleResponse{}, err
	}
	return schedule.ToResponse(rule), nil
}

// ListShiftRules implements schedule.ScheduleService.
func (s *ScheduleServiceImpl) ListShiftRules(ctx context.Context) ([]schedule.ShiftRuleResponse, error) {
	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift rules: %w", err)
	}
	out := make([]schedule.ShiftRuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, schedule.ToResponse(rule))
	}
	return out, nil
}

// DeactivateShiftRule implements schedule.ScheduleService. Deactivation
// stops the rule from governing future days; history stays computable.
func (s *ScheduleServiceImpl) DeactivateShiftRule(ctx context.Context, id string) error {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !rule.IsActive {
		return schedule.ErrRuleInactive
	}
	rule.IsActive = false
	if err := s.repo.Update(ctx, rule); err != nil {
		return fmt.Errorf("failed to deactivate shift rule: %w", err)
	}
	return nil
}

// Assign implements schedule.ScheduleService.
func (s *ScheduleServiceImpl) Assign(ctx context.Context, ruleID string, req schedule.AssignShiftRuleRequest) (schedule.Assignment, error) {
	if err := req.Validate(); err != nil {
		return schedule.Assignment{}, err
	}

	rule, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		return schedule.Assignment{}, err
	}
	if !rule.IsActive {
		return schedule.Assignment{}, schedule.ErrRuleInactive
	}

	assignment, err := s.repo.Assign(ctx, req.EmployeeID, ruleID, req.From)
	if err != nil {
		return schedule.Assignment{}, fmt.Errorf("failed to assign shift rule: %w", err)
	}
	return assignment, nil
}

// ActiveForEmployee implements schedule.ScheduleService.
func (s *ScheduleServiceImpl) ActiveForEmployee(ctx context.Context, employeeID string, at time.Time) (schedule.ShiftRule, error) {
	return s.repo.ActiveForEmployee(ctx, employeeID, at)
}
