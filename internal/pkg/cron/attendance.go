package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
)

// CompanyLister yields the companies that still have active employees.
type CompanyLister interface {
	ListActiveCompanyIDs(ctx context.Context) ([]string, error)
}

type AttendanceJobs struct {
	recalculator attendance.Reclassifier
	companies    CompanyLister
	ingester     punch.IngestService
	clock        clock.Clock
	cfg          config.CronConfig
	lookbackDays int
}

// NewAttendanceJobs wires the nightly recalculation and the device pull.
// ingester may be nil when no biometric bridge is configured.
func NewAttendanceJobs(
	recalculator attendance.Reclassifier,
	companies CompanyLister,
	ingester punch.IngestService,
	clk clock.Clock,
	cfg config.CronConfig,
	lookbackDays int,
) *AttendanceJobs {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	return &AttendanceJobs{
		recalculator: recalculator,
		companies:    companies,
		ingester:     ingester,
		clock:        clk,
		cfg:          cfg,
		lookbackDays: lookbackDays,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("recalculate_recent_attendance", j.cfg.RecalcInterval, j.RecalculateRecent)
	if j.ingester != nil {
		scheduler.AddJob("pull_device_logs", j.cfg.DevicePullInterval, j.PullDeviceLogs)
	}
}

// RecalculateRecent reclassifies the last lookbackDays days, ending
// yesterday, for every company. Days that passed without a punch become
// ABSENT here even if nobody ever reads them.
func (j *AttendanceJobs) RecalculateRecent(ctx context.Context) error {
	yesterday := clock.Today(j.clock).AddDate(0, 0, -1)
	from := yesterday.AddDate(0, 0, -(j.lookbackDays - 1))

	companyIDs, err := j.companies.ListActiveCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	slog.Info("Cron: Starting attendance recalculation",
		"companies", len(companyIDs),
		"from", from.Format(clock.DateLayout),
		"to", yesterday.Format(clock.DateLayout))

	var succeeded, failed int
	var errs []error
	for _, companyID := range companyIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := j.recalculator.Recalculate(ctx, companyID, attendance.RecalculateRequest{
			DateRange: attendance.DateRange{
				StartDate: from.Format(clock.DateLayout),
				EndDate:   yesterday.Format(clock.DateLayout),
			},
		})
		if err != nil {
			slog.Error("Cron: Failed to recalculate company", "company_id", companyID, "error", err)
			errs = append(errs, fmt.Errorf("company %s: %w", companyID, err))
			continue
		}

		succeeded += result.Succeeded
		failed += result.Failed
		for _, f := range result.Failures {
			slog.Warn("Cron: Employee recalculation failed",
				"company_id", companyID, "employee_id", f.EmployeeID, "error", f.Error)
		}
	}

	slog.Info("Cron: Attendance recalculation finished", "succeeded", succeeded, "failed", failed)
	return errors.Join(errs...)
}

// PullDeviceLogs fetches pending punches from the bridge. An unreachable
// device is retried on the next tick.
func (j *AttendanceJobs) PullDeviceLogs(ctx context.Context) error {
	result, err := j.ingester.PullFromDevice(ctx)
	if err != nil {
		if errors.Is(err, punch.ErrDeviceSyncOff) {
			return nil
		}
		return err
	}

	if result.Received > 0 {
		slog.Info("Cron: Device logs pulled",
			"received", result.Received,
			"accepted", result.Accepted,
			"duplicates", result.Duplicates,
			"skipped", result.Skipped)
	}
	return nil
}
