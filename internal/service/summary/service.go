package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/summary"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type SummaryServiceImpl struct {
	attendanceRepository attendance.AttendanceRepository
	holidayRepository    leave.HolidayRepository
	employeeRepository   employee.EmployeeRepository
	// cache may be nil; every call then aggregates from storage.
	cache       summary.Cache
	clock       clock.Clock
	sf          singleflight.Group
	concurrency int
}

func NewSummaryService(
	attendanceRepo attendance.AttendanceRepository,
	holidayRepo leave.HolidayRepository,
	employeeRepo employee.EmployeeRepository,
	cache summary.Cache,
	clk clock.Clock,
	concurrency int,
) *SummaryServiceImpl {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SummaryServiceImpl{
		attendanceRepository: attendanceRepo,
		holidayRepository:    holidayRepo,
		employeeRepository:   employeeRepo,
		cache:                cache,
		clock:                clk,
		concurrency:          concurrency,
	}
}

// Summarize implements summary.SummaryService.
func (s *SummaryServiceImpl) Summarize(ctx context.Context, companyID, employeeID string, req summary.MonthRequest) (summary.MonthlySummary, error) {
	if err := req.Validate(); err != nil {
		return summary.MonthlySummary{}, err
	}

	emp, err := s.employeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		return summary.MonthlySummary{}, err
	}
	if emp.CompanyID != companyID {
		return summary.MonthlySummary{}, employee.ErrEmployeeNotFound
	}

	return s.summarize(ctx, emp, req.Year, time.Month(req.Month))
}

func (s *SummaryServiceImpl) summarize(ctx context.Context, emp employee.Employee, year int, month time.Month) (summary.MonthlySummary, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, emp.ID, year, month)
		if err != nil {
			slog.WarnContext(ctx, "summary cache read failed", "employee_id", emp.ID, "error", err)
		} else if cached != nil {
			return *cached, nil
		}
	}

	key := fmt.Sprintf("%s:%04d-%02d", emp.ID, year, int(month))
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		computed, err := s.aggregate(ctx, emp, year, month)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, computed); err != nil {
				slog.WarnContext(ctx, "summary cache write failed", "employee_id", emp.ID, "error", err)
			}
		}
		return computed, nil
	})
	if err != nil {
		return summary.MonthlySummary{}, err
	}
	return v.(summary.MonthlySummary), nil
}

func (s *SummaryServiceImpl) aggregate(ctx context.Context, emp employee.Employee, year int, month time.Month) (summary.MonthlySummary, error) {
	first, last := clock.MonthBounds(year, month)

	records, err := s.attendanceRepository.ListByEmployee(ctx, emp.ID, first, last)
	if err != nil {
		return summary.MonthlySummary{}, fmt.Errorf("failed to load attendance records: %w", err)
	}
	holidays, err := s.holidayRepository.ListApplicable(ctx, emp.CompanyID, first, last)
	if err != nil {
		return summary.MonthlySummary{}, fmt.Errorf("failed to load holidays: %w", err)
	}

	return summary.Aggregate(summary.AggregateInput{
		EmployeeID: emp.ID,
		Year:       year,
		Month:      month,
		Today:      clock.Today(s.clock),
		Records:    records,
		Holidays:   holidays,
	}), nil
}

// Register implements summary.SummaryService. Rows follow employee code order.
func (s *SummaryServiceImpl) Register(ctx context.Context, companyID string, req summary.MonthRequest) (summary.RegisterResponse, error) {
	if err := req.Validate(); err != nil {
		return summary.RegisterResponse{}, err
	}

	employees, err := s.employeeRepository.GetActiveByCompanyID(ctx, companyID)
	if err != nil {
		return summary.RegisterResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	rows := make([]summary.RegisterRow, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, emp := range employees {
		g.Go(func() error {
			ms, err := s.summarize(gctx, emp, req.Year, time.Month(req.Month))
			if err != nil {
				return fmt.Errorf("employee %s: %w", emp.ID, err)
			}
			rows[i] = summary.RegisterRow{
				EmployeeID:   emp.ID,
				EmployeeCode: emp.EmployeeCode,
				EmployeeName: emp.FullName,
				Summary:      ms,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary.RegisterResponse{}, err
	}

	return summary.RegisterResponse{Year: req.Year, Month: req.Month, Rows: rows}, nil
}

var _ summary.SummaryService = (*SummaryServiceImpl)(nil)
