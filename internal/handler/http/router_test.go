package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pontoweb/ponto-backend-go/internal/domain/punch"
	"github.com/pontoweb/ponto-backend-go/internal/domain/schedule"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/jwt"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/locker"
	"github.com/pontoweb/ponto-backend-go/internal/repository/memory"
	complianceService "github.com/pontoweb/ponto-backend-go/internal/service/compliance"
	ingestService "github.com/pontoweb/ponto-backend-go/internal/service/ingest"
	scheduleService "github.com/pontoweb/ponto-backend-go/internal/service/schedule"
	timebankService "github.com/pontoweb/ponto-backend-go/internal/service/timebank"
	timesheetService "github.com/pontoweb/ponto-backend-go/internal/service/timesheet"
	workflowService "github.com/pontoweb/ponto-backend-go/internal/service/workflow"
)

const routerTestSecret = "test-secret-key-for-jwt"

type routerFixture struct {
	router    *chi.Mux
	jwtSvc    jwt.Service
	punchRepo *memory.PunchRepository
}

func newTestRouter(t *testing.T) *routerFixture {
	t.Helper()

	punchRepo := memory.NewPunchRepository()
	ruleRepo := memory.NewShiftRuleRepository()
	bankRepo := memory.NewTimeBankRepository()
	auditRepo := memory.NewAuditRepository()
	directory := memory.NewEmployeeDirectory()
	locks := locker.New()

	rule, err := ruleRepo.Create(context.Background(), schedule.ShiftRule{
		ID:         "rule-1",
		Name:       "Standard 8h",
		Country:    "BR",
		Type:       schedule.ShiftFixed,
		DailyHours: 8,
		IsActive:   true,
	})
	require.NoError(t, err)
	_, err = ruleRepo.Assign(context.Background(), "emp-1", rule.ID,
		time.Now().UTC().AddDate(0, -1, 0))
	require.NoError(t, err)

	jwtSvc := jwt.NewJWTService(routerTestSecret, "1h")
	bankSvc := timebankService.NewTimeBankService(bankRepo, auditRepo)
	timesheetSvc := timesheetService.NewTimesheetService(punchRepo, ruleRepo, bankSvc)
	ingestSvc := ingestService.NewIngestService(punchRepo, ruleRepo, timesheetSvc, locks, time.Second)
	workflowSvc := workflowService.NewWorkflowService(punchRepo, auditRepo, timesheetSvc, locks, time.Second)
	scheduleSvc := scheduleService.NewScheduleService(ruleRepo)
	complianceSvc := complianceService.NewComplianceService(
		punchRepo, ruleRepo, ingestSvc, directory, auditRepo,
		complianceService.Employer{IDType: "1", ID: "12345678000190", Name: "Test Employer"},
	)

	router := NewRouter(
		RouterConfig{Env: "test", AllowedOrigins: []string{"http://localhost:3000"}},
		jwtSvc,
		NewPunchHandler(ingestSvc, workflowSvc, punchRepo, auditRepo),
		NewTimesheetHandler(timesheetSvc),
		NewTimeBankHandler(bankSvc),
		NewScheduleHandler(scheduleSvc),
		NewComplianceHandler(complianceSvc),
	)

	return &routerFixture{router: router, jwtSvc: jwtSvc, punchRepo: punchRepo}
}

func accessToken(t *testing.T, f *routerFixture, userID, employeeID, role string) string {
	t.Helper()
	token, _, err := f.jwtSvc.GenerateAccessToken(userID, employeeID, role)
	require.NoError(t, err)
	return token
}

func doJSON(f *routerFixture, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRouter_RequiresAccessToken(t *testing.T) {
	f := newTestRouter(t)

	w := doJSON(f, http.MethodGet, "/api/v1/punches", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_RejectsNonAccessToken(t *testing.T) {
	f := newTestRouter(t)

	// A token of the wrong type must not pass even with a valid signature.
	other := jwt.NewJWTService(routerTestSecret, "1h")
	_, tokenString, err := other.JWTAuth().Encode(map[string]interface{}{
		"user_id": "user-1",
		"role":    jwt.RoleEmployee,
		"type":    "refresh",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	w := doJSON(f, http.MethodGet, "/api/v1/punches", tokenString, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_EmployeeRecordsPunch(t *testing.T) {
	f := newTestRouter(t)
	token := accessToken(t, f, "user-1", "emp-1", jwt.RoleEmployee)

	w := doJSON(f, http.MethodPost, "/api/v1/punches", token, punch.RecordPunchRequest{
		EmployeeID: "emp-1",
		Timestamp:  time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC3339),
		Method:     punch.MethodWeb,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Success bool                `json:"success"`
		Data    punch.PunchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "emp-1", resp.Data.EmployeeID)
	assert.Equal(t, string(punch.EntryClockIn), resp.Data.Type)
}

func TestRouter_EmployeeCannotApprove(t *testing.T) {
	f := newTestRouter(t)
	token := accessToken(t, f, "user-1", "emp-1", jwt.RoleEmployee)

	w := doJSON(f, http.MethodPost, "/api/v1/punches/some-id/approve", token, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_ManagerApprovesManualPunch(t *testing.T) {
	f := newTestRouter(t)
	employeeToken := accessToken(t, f, "user-1", "emp-1", jwt.RoleEmployee)
	managerToken := accessToken(t, f, "mgr-1", "", jwt.RoleManager)

	w := doJSON(f, http.MethodPost, "/api/v1/punches", employeeToken, punch.RecordPunchRequest{
		EmployeeID: "emp-1",
		Timestamp:  time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC3339),
		Method:     punch.MethodManual,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data punch.PunchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, string(punch.ApprovalPending), created.Data.ApprovalStatus)

	w = doJSON(f, http.MethodPost, "/api/v1/punches/"+created.Data.ID+"/approve", managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	approved, err := f.punchRepo.GetByID(context.Background(), created.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, punch.ApprovalApproved, approved.ApprovalStatus)
}

func TestRouter_ComplianceIsManagerOnly(t *testing.T) {
	f := newTestRouter(t)
	token := accessToken(t, f, "user-1", "emp-1", jwt.RoleEmployee)

	w := doJSON(f, http.MethodGet, "/api/v1/compliance/aej?from=2025-03-01&to=2025-03-31", token, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
