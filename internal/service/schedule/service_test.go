package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/validator"
	"github.com/pontoweb/ponto-backend-go/internal/repository/memory"
)

func validRequest() schedule.CreateShiftRuleRequest {
	return schedule.CreateShiftRuleRequest{
		Name:             "Standard 8h",
		Country:          "BR",
		Type:             "fixed",
		WeeklyHours:      44,
		DailyHours:       8,
		ToleranceMinutes: 10,
		Holiday:          "time_bank",
		Days: []schedule.WeekdayTemplateRequest{
			{Weekday: 1, IsWorkDay: true, StartTime: "08:00", EndTime: "17:00", BreakStart: "12:00", BreakEnd: "13:00"},
			{Weekday: 0, IsWorkDay: false},
		},
		Break: schedule.BreakPolicy{Mandatory: true, MinBreakDurationMinutes: 60},
		TimeBank: schedule.TimeBankPolicy{
			Enabled:           true,
			CompensationRatio: 1.5,
			CapHours:          40,
		},
	}
}

func TestCreateShiftRule(t *testing.T) {
	svc := NewScheduleService(memory.NewShiftRuleRepository())

	resp, err := svc.CreateShiftRule(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.True(t, resp.IsActive)
	assert.Equal(t, "fixed", resp.Type)
	assert.Len(t, resp.Days, 2)

	got, err := svc.GetShiftRule(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}

func TestCreateShiftRule_Validation(t *testing.T) {
	svc := NewScheduleService(memory.NewShiftRuleRepository())

	tests := []struct {
		name   string
		mutate func(*schedule.CreateShiftRuleRequest)
		field  string
	}{
		{
			"non-work day with time fields",
			func(r *schedule.CreateShiftRuleRequest) { r.Days[1].StartTime = "08:00" },
			"days[1]",
		},
		{
			"invalid shift type",
			func(r *schedule.CreateShiftRuleRequest) { r.Type = "nightly" },
			"type",
		},
		{
			"bad time of day",
			func(r *schedule.CreateShiftRuleRequest) { r.Days[0].EndTime = "25:99" },
			"days[0].end_time",
		},
		{
			"bank enabled without ratio",
			func(r *schedule.CreateShiftRuleRequest) { r.TimeBank.CompensationRatio = 0 },
			"time_bank_policy.compensation_ratio",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.CreateShiftRule(context.Background(), req)

			var errs validator.ValidationErrors
			require.True(t, errors.As(err, &errs))
			assert.Contains(t, errs.ToMap(), tt.field)
		})
	}
}

func TestAssignAndResolve(t *testing.T) {
	svc := NewScheduleService(memory.NewShiftRuleRepository())

	first, err := svc.CreateShiftRule(context.Background(), validRequest())
	require.NoError(t, err)

	nightReq := validRequest()
	nightReq.Name = "Night 6h"
	nightReq.DailyHours = 6
	second, err := svc.CreateShiftRule(context.Background(), nightReq)
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), first.ID, schedule.AssignShiftRuleRequest{
		EmployeeID: "emp-1",
		StartDate:  "2025-01-01",
	})
	require.NoError(t, err)

	// Reassignment closes the first assignment the day before.
	_, err = svc.Assign(context.Background(), second.ID, schedule.AssignShiftRuleRequest{
		EmployeeID: "emp-1",
		StartDate:  "2025-03-01",
	})
	require.NoError(t, err)

	at, _ := time.Parse("2006-01-02", "2025-02-10")
	rule, err := svc.ActiveForEmployee(context.Background(), "emp-1", at)
	require.NoError(t, err)
	assert.Equal(t, first.ID, rule.ID)

	at, _ = time.Parse("2006-01-02", "2025-03-10")
	rule, err = svc.ActiveForEmployee(context.Background(), "emp-1", at)
	require.NoError(t, err)
	assert.Equal(t, second.ID, rule.ID)

	_, err = svc.ActiveForEmployee(context.Background(), "emp-2", at)
	assert.ErrorIs(t, err, schedule.ErrNoActiveShiftRule)
}

func TestDeactivateShiftRule(t *testing.T) {
	svc := NewScheduleService(memory.NewShiftRuleRepository())

	resp, err := svc.CreateShiftRule(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateShiftRule(context.Background(), resp.ID))

	got, err := svc.GetShiftRule(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// Deactivated rules cannot take new assignments.
	_, err = svc.Assign(context.Background(), resp.ID, schedule.AssignShiftRuleRequest{
		EmployeeID: "emp-1",
		StartDate:  "2025-01-01",
	})
	assert.ErrorIs(t, err, schedule.ErrRuleInactive)

	assert.ErrorIs(t, svc.DeactivateShiftRule(context.Background(), resp.ID), schedule.ErrRuleInactive)

	err = svc.DeactivateShiftRule(context.Background(), "missing")
	assert.ErrorIs(t, err, schedule.ErrShiftRuleNotFound)
}
