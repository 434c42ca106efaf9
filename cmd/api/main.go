package main

import (
	"fmt"
	"net/http"

	"github.com/pontoweb/ponto-backend-go/internal/config"
	appHTTP "github.com/pontoweb/ponto-backend-go/internal/handler/http"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/cron"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/database"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/jwt"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/locker"
	"github.com/pontoweb/ponto-backend-go/internal/repository/postgresql"
	complianceService "github.com/pontoweb/ponto-backend-go/internal/service/compliance"
	ingestService "github.com/pontoweb/ponto-backend-go/internal/service/ingest"
	scheduleService "github.com/pontoweb/ponto-backend-go/internal/service/schedule"
	timebankService "github.com/pontoweb/ponto-backend-go/internal/service/timebank"
	timesheetService "github.com/pontoweb/ponto-backend-go/internal/service/timesheet"
	workflowService "github.com/pontoweb/ponto-backend-go/internal/service/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	punchRepo := postgresql.NewPunchRepository(db)
	shiftRuleRepo := postgresql.NewShiftRuleRepository(db)
	timeBankRepo := postgresql.NewTimeBankRepository(db)
	auditRepo := postgresql.NewAuditRepository(db)
	employeeDirectory := postgresql.NewEmployeeDirectory(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	dayLocker := locker.New()

	timeBankSvc := timebankService.NewTimeBankService(timeBankRepo, auditRepo)
	timesheetSvc := timesheetService.NewTimesheetService(punchRepo, shiftRuleRepo, timeBankSvc)
	ingestSvc := ingestService.NewIngestService(
		punchRepo,
		shiftRuleRepo,
		timesheetSvc,
		dayLocker,
		cfg.Engine.OperationTimeout,
	)
	workflowSvc := workflowService.NewWorkflowService(
		punchRepo,
		auditRepo,
		timesheetSvc,
		dayLocker,
		cfg.Engine.OperationTimeout,
	)
	scheduleSvc := scheduleService.NewScheduleService(shiftRuleRepo)
	complianceSvc := complianceService.NewComplianceService(
		punchRepo,
		shiftRuleRepo,
		ingestSvc,
		employeeDirectory,
		auditRepo,
		complianceService.Employer{
			IDType: cfg.Employer.IDType,
			ID:     cfg.Employer.ID,
			Name:   cfg.Employer.Name,
		},
	)

	punchHandler := appHTTP.NewPunchHandler(ingestSvc, workflowSvc, punchRepo, auditRepo)
	timesheetHandler := appHTTP.NewTimesheetHandler(timesheetSvc)
	timeBankHandler := appHTTP.NewTimeBankHandler(timeBankSvc)
	scheduleHandler := appHTTP.NewScheduleHandler(scheduleSvc)
	complianceHandler := appHTTP.NewComplianceHandler(complianceSvc)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
		JWTService,
		punchHandler,
		timesheetHandler,
		timeBankHandler,
		scheduleHandler,
		complianceHandler,
	)

	scheduler := cron.NewScheduler()
	punchJobs := cron.NewPunchJobs(punchRepo, auditRepo, dayLocker)
	punchJobs.RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
