package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/pontoweb/ponto-backend-go/internal/handler/http/middleware"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/jwt"
)

type RouterConfig struct {
	Env            string
	AllowedOrigins []string
}

func NewRouter(
	cfg RouterConfig,
	jwtService jwt.Service,
	punchHandler PunchHandler,
	timesheetHandler TimesheetHandler,
	timeBankHandler TimeBankHandler,
	scheduleHandler ScheduleHandler,
	complianceHandler ComplianceHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "ponto-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/punches", func(r chi.Router) {
				r.Post("/", punchHandler.Record)
				r.Get("/", punchHandler.List)
				r.Get("/{punchID}", punchHandler.Get)
				r.Get("/{punchID}/audit", punchHandler.AuditTrail)

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/{punchID}/approve", punchHandler.Approve)
					r.Post("/{punchID}/reject", punchHandler.Reject)
					r.Post("/{punchID}/correct", punchHandler.Correct)
				})
			})

			r.Route("/timesheet", func(r chi.Router) {
				r.Get("/{employeeID}/{date}", timesheetHandler.GetDay)
			})

			r.Route("/time-bank", func(r chi.Router) {
				r.Get("/{employeeID}/balance", timeBankHandler.Balance)
				r.Get("/{employeeID}/statement", timeBankHandler.Statement)
			})

			r.Route("/shift-rules", func(r chi.Router) {
				r.Get("/", scheduleHandler.ListShiftRules)
				r.Get("/{ruleID}", scheduleHandler.GetShiftRule)

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/", scheduleHandler.CreateShiftRule)
					r.Delete("/{ruleID}", scheduleHandler.DeactivateShiftRule)
					r.Post("/{ruleID}/assign", scheduleHandler.Assign)
				})
			})

			// Manager only
			r.Route("/compliance", func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/afd", complianceHandler.ImportAfd)
				r.Get("/aej", complianceHandler.ExportAej)
			})
		})
	})
	return r
}
