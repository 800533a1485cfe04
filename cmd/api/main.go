package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/summary"
	appHTTP "github.com/cmlabs-hris/attendance-engine-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/cache"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/device"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine-go/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/attendance-engine-go/internal/service/leave"
	payrollService "github.com/cmlabs-hris/attendance-engine-go/internal/service/payroll"
	punchService "github.com/cmlabs-hris/attendance-engine-go/internal/service/punch"
	regularizationService "github.com/cmlabs-hris/attendance-engine-go/internal/service/regularization"
	shiftService "github.com/cmlabs-hris/attendance-engine-go/internal/service/shift"
	summaryService "github.com/cmlabs-hris/attendance-engine-go/internal/service/summary"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.App.LogLevel),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	var summaryCache summary.Cache
	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, summaries will not be cached", "error", err)
	} else if rdb != nil {
		defer rdb.Close()
		summaryCache = cache.NewSummaryCache(rdb, cfg.Redis.TTL)
	}

	clk := clock.New(cfg.Location())
	tx := postgresql.NewTransactor(db)

	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	punchRepo := postgresql.NewPunchRepository(db)
	deviceLinkRepo := postgresql.NewDeviceLinkRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	assignmentRepo := postgresql.NewShiftAssignmentRepository(db)
	leaveRecordRepo := postgresql.NewLeaveRecordRepository(db)
	allocationRepo := postgresql.NewLeaveAllocationRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	regularizationRepo := postgresql.NewRegularizationRepository(db)
	deductionRepo := postgresql.NewPayrollDeductionRepository(db)

	attendanceSvc := attendanceService.NewAttendanceService(
		tx,
		attendanceRepo,
		punchRepo,
		shiftService.NewResolver(assignmentRepo),
		leaveRecordRepo,
		holidayRepo,
		regularizationRepo,
		employeeRepo,
		summaryCache,
		clk,
		attendanceService.Options{
			Policy:      attendance.Policy{HalfDayRatio: cfg.Attendance.HalfDayRatio},
			Concurrency: cfg.Attendance.RecalcConcurrency,
		},
	)
	shiftSvc := shiftService.NewShiftService(shiftRepo, assignmentRepo, employeeRepo, attendanceSvc, clk)
	regularizationSvc := regularizationService.NewRegularizationService(tx, regularizationRepo, employeeRepo, holidayRepo, attendanceSvc, clk)
	leaveSvc := leaveService.NewLeaveService(leaveRecordRepo, allocationRepo, employeeRepo, attendanceSvc, clk)
	holidaySvc := leaveService.NewHolidayService(holidayRepo, employeeRepo, attendanceSvc, summaryCache, clk)
	summarySvc := summaryService.NewSummaryService(attendanceRepo, holidayRepo, employeeRepo, summaryCache, clk, cfg.Attendance.RecalcConcurrency)
	deductionSvc := payrollService.NewDeductionService(deductionRepo, employeeRepo, summarySvc, payroll.DeductionPolicy{
		DaysDivisor:      cfg.Payroll.DaysDivisor,
		UnpaidLeaveAsLOP: cfg.Payroll.UnpaidLeaveAsLOP,
	}, cfg.Attendance.RecalcConcurrency)

	var fetcher punchService.LogFetcher
	if client := device.NewClient(cfg.Device); client != nil {
		fetcher = client
	}
	ingestSvc := punchService.NewIngestService(punchRepo, deviceLinkRepo, attendanceSvc, clk, fetcher)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	router := appHTTP.NewRouter(cfg, JWTService, appHTTP.Handlers{
		Attendance:     appHTTP.NewAttendanceHandler(attendanceSvc),
		Shift:          appHTTP.NewShiftHandler(shiftSvc),
		Regularization: appHTTP.NewRegularizationHandler(regularizationSvc),
		Leave:          appHTTP.NewLeaveHandler(leaveSvc, clk),
		Holiday:        appHTTP.NewHolidayHandler(holidaySvc, clk),
		Summary:        appHTTP.NewSummaryHandler(summarySvc, clk),
		Payroll:        appHTTP.NewPayrollHandler(deductionSvc),
		Biometric:      appHTTP.NewBiometricHandler(ingestSvc),
	})

	scheduler := cron.NewScheduler(ctx)
	if cfg.Cron.Enabled {
		var puller punch.IngestService
		if fetcher != nil {
			puller = ingestSvc
		}
		cron.NewAttendanceJobs(attendanceSvc, employeeRepo, puller, clk, cfg.Cron, cfg.Attendance.NightlyRecalcDays).
			RegisterJobs(scheduler)
		scheduler.Start()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "timezone", cfg.App.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		scheduler.Stop()
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	scheduler.Stop()
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
