package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/time/rate"
)

type Handlers struct {
	Attendance     AttendanceHandler
	Shift          ShiftHandler
	Regularization RegularizationHandler
	Leave          LeaveHandler
	Holiday        HolidayHandler
	Summary        SummaryHandler
	Payroll        PayrollHandler
	Biometric      BiometricHandler
}

func NewRouter(cfg *config.Config, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	origins := cfg.App.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", middleware.APIKeyHeader},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))

	r.Route("/api/v1", func(r chi.Router) {

		// Bridge agent, authenticated by shared key
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(rate.Limit(cfg.Bridge.RateLimitPerSec), cfg.Bridge.RateLimitBurst))
			r.Use(middleware.BridgeAPIKey(cfg.Bridge))
			r.Post("/biometric/logs", h.Biometric.Ingest)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService))

			r.With(middleware.RequirePermission(user.PermissionAttendanceRecalculate)).
				Post("/biometric/pull", h.Biometric.Pull)

			r.Route("/shifts", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionShiftView)).Get("/", h.Shift.List)
				r.With(middleware.RequirePermission(user.PermissionShiftView)).Get("/{id}", h.Shift.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionShiftManage))
					r.Post("/", h.Shift.Create)
					r.Put("/{id}", h.Shift.Update)
					r.Delete("/{id}", h.Shift.Delete)
				})
			})

			r.Route("/shift-assignments", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionShiftView)).Get("/", h.Shift.ListAssignments)
				r.With(middleware.RequirePermission(user.PermissionShiftView)).Get("/resolve", h.Shift.Resolve)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionShiftManage))
					r.Post("/", h.Shift.CreateAssignment)
					r.Delete("/{id}", h.Shift.DeleteAssignment)
				})
			})

			r.Route("/attendance", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn), middleware.RequireEmployee).
					Get("/my", h.Attendance.ListMy)
				r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).Get("/", h.Attendance.List)
				r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/{employee_id}/{date}", h.Attendance.GetDay)
				r.With(middleware.RequirePermission(user.PermissionAttendanceRecalculate)).Post("/recalculate", h.Attendance.Recalculate)
			})

			r.Route("/regularizations", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionRegularizationSubmit))
					r.With(middleware.RequireEmployee).Post("/", h.Regularization.Submit)
					r.With(middleware.RequireEmployee).Get("/my", h.Regularization.ListMy)
					r.Get("/{id}", h.Regularization.Get)
					r.Delete("/{id}", h.Regularization.Delete)
				})

				r.With(middleware.RequirePermission(user.PermissionRegularizationViewAll)).Get("/", h.Regularization.List)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionRegularizationApprove))
					r.Post("/{id}/approve", h.Regularization.Approve)
					r.Post("/{id}/reject", h.Regularization.Reject)
					r.Post("/{id}/revert", h.Regularization.Revert)
				})
			})

			r.Route("/holidays", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionHolidayView)).Get("/", h.Holiday.List)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionHolidayManage))
					r.Post("/", h.Holiday.Create)
					r.Delete("/{id}", h.Holiday.Delete)
					r.Post("/populate-sundays", h.Holiday.PopulateSundays)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionLeaveManage))
				r.Get("/leaves", h.Leave.List)
				r.Post("/leaves", h.Leave.Record)
				r.Delete("/leaves/{id}", h.Leave.Cancel)
				r.Get("/leave-allocations", h.Leave.GetAllocation)
				r.Put("/leave-allocations", h.Leave.UpsertAllocation)
			})

			r.Route("/summaries", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn), middleware.RequireEmployee).
					Get("/my", h.Summary.My)
				r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/{employee_id}", h.Summary.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionReportsView))
					r.Get("/register", h.Summary.Register)
					r.Get("/register/export", h.Summary.ExportRegister)
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionReportsView)).Get("/lop-deduction", h.Payroll.GetDeduction)
				r.With(middleware.RequirePermission(user.PermissionPayrollPost)).Post("/lop-deductions", h.Payroll.PostDeductions)
			})
		})
	})
	return r
}
