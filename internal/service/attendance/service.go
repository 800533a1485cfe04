package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/summary"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

type Options struct {
	Policy attendance.Policy
	// Concurrency bounds how many employees a bulk recalculation processes
	// at once.
	Concurrency int
}

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	punchRepository          punch.PunchRepository
	shiftResolver            shift.Resolver
	leaveRepository          leave.RecordRepository
	holidayRepository        leave.HolidayRepository
	regularizationRepository regularization.RequestRepository
	employeeRepository       employee.EmployeeRepository
	cache                    summary.Cache
	clock                    clock.Clock
	opts                     Options
}

// ClassifyAndPersist implements attendance.Reclassifier.
func (a *AttendanceServiceImpl) ClassifyAndPersist(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	date = clock.Date(date, nil)

	emp, err := a.employeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return nil, attendance.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	var result *attendance.Record
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := a.AttendanceRepository.LockDay(ctx, emp.ID, date); err != nil {
			return err
		}

		facts, err := a.loadFacts(ctx, emp, date)
		if err != nil {
			return err
		}

		rec := attendance.ClassifyDay(facts, a.opts.Policy)
		// Invalidate once the outermost transaction commits.
		database.AfterCommit(ctx, func(ctx context.Context) {
			a.invalidateSummary(ctx, emp.ID, date)
		})

		if rec == nil {
			if err := a.AttendanceRepository.Delete(ctx, emp.ID, date); err != nil {
				return fmt.Errorf("failed to clear pending day: %w", err)
			}
			return nil
		}
		if err := a.AttendanceRepository.Upsert(ctx, *rec); err != nil {
			return fmt.Errorf("failed to store attendance record: %w", err)
		}
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *AttendanceServiceImpl) loadFacts(ctx context.Context, emp employee.Employee, date time.Time) (attendance.DayFacts, error) {
	loc := a.clock.Location()
	facts := attendance.DayFacts{
		EmployeeID: emp.ID,
		Date:       date,
		Today:      clock.Today(a.clock),
		Location:   loc,
	}

	// Punches belong to the local calendar day they were made on.
	dayStart := clock.OnDate(date, 0, loc)
	dayEnd := clock.OnDate(date.AddDate(0, 0, 1), 0, loc)
	punches, err := a.punchRepository.ListBetween(ctx, emp.ID, dayStart, dayEnd)
	if err != nil {
		return facts, fmt.Errorf("failed to load punches: %w", err)
	}
	facts.Punches = punches

	res, err := a.shiftResolver.ResolveForEmployee(ctx, emp.ID, date)
	if err != nil {
		return facts, err
	}
	facts.Shift = res

	holidays, err := a.holidayRepository.ListApplicable(ctx, emp.CompanyID, date, date)
	if err != nil {
		return facts, fmt.Errorf("failed to load holidays: %w", err)
	}
	if h := leave.FindHoliday(holidays, date); h != nil {
		facts.Holiday = &attendance.HolidayFact{Name: h.Name, Recurring: h.IsRecurring}
	}

	lv, err := a.leaveRepository.FindApprovedCovering(ctx, emp.ID, date)
	if err != nil {
		return facts, fmt.Errorf("failed to load leave: %w", err)
	}
	if lv != nil {
		facts.Leave = &attendance.LeaveFact{LeaveID: lv.ID, LeaveType: string(lv.LeaveType)}
	}

	reg, err := a.regularizationRepository.FindApproved(ctx, emp.ID, date)
	if err != nil {
		return facts, fmt.Errorf("failed to load regularization: %w", err)
	}
	if reg != nil {
		facts.Regularization = &attendance.RegularizationFact{RequestID: reg.ID}
	}

	return facts, nil
}

func (a *AttendanceServiceImpl) invalidateSummary(ctx context.Context, employeeID string, date time.Time) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Invalidate(ctx, employeeID, date.Year(), date.Month()); err != nil {
		slog.WarnContext(ctx, "failed to invalidate summary cache", "employee_id", employeeID, "error", err)
	}
}

// ReclassifyRange implements attendance.Reclassifier. Each day commits on its
// own; the first failure stops the range.
func (a *AttendanceServiceImpl) ReclassifyRange(ctx context.Context, employeeID string, from, to time.Time) error {
	for _, day := range clock.DaysBetween(clock.Date(from, nil), clock.Date(to, nil)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := a.ClassifyAndPersist(ctx, employeeID, day); err != nil {
			return fmt.Errorf("reclassify %s: %w", day.Format(clock.DateLayout), err)
		}
	}
	return nil
}

// Recalculate implements attendance.Reclassifier.
func (a *AttendanceServiceImpl) Recalculate(ctx context.Context, companyID string, req attendance.RecalculateRequest) (attendance.RecalculateResult, error) {
	from, to, err := req.DateRange.Parse()
	if err != nil {
		return attendance.RecalculateResult{}, err
	}

	employeeIDs, failures, err := a.recalculationTargets(ctx, companyID, req.EmployeeIDs)
	if err != nil {
		return attendance.RecalculateResult{}, err
	}

	result := attendance.RecalculateResult{Failures: failures, Failed: len(failures)}
	var mu sync.Mutex

	limit := a.opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, id := range employeeIDs {
		g.Go(func() error {
			err := a.ReclassifyRange(gctx, id, from, to)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.ErrorContext(ctx, "recalculation failed", "employee_id", id, "error", err)
				result.Failed++
				result.Failures = append(result.Failures, attendance.RecalculateFailure{EmployeeID: id, Error: err.Error()})
				return nil
			}
			result.Succeeded++
			return nil
		})
	}
	_ = g.Wait()

	if result.Failures == nil {
		result.Failures = []attendance.RecalculateFailure{}
	}
	return result, nil
}

func (a *AttendanceServiceImpl) recalculationTargets(ctx context.Context, companyID string, requested []string) ([]string, []attendance.RecalculateFailure, error) {
	if len(requested) == 0 {
		emps, err := a.employeeRepository.GetActiveByCompanyID(ctx, companyID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list employees: %w", err)
		}
		ids := make([]string, len(emps))
		for i, e := range emps {
			ids[i] = e.ID
		}
		return ids, nil, nil
	}

	var ids []string
	var failures []attendance.RecalculateFailure
	for _, id := range requested {
		if _, err := a.companyEmployee(ctx, companyID, id); err != nil {
			failures = append(failures, attendance.RecalculateFailure{EmployeeID: id, Error: err.Error()})
			continue
		}
		ids = append(ids, id)
	}
	return ids, failures, nil
}

func (a *AttendanceServiceImpl) companyEmployee(ctx context.Context, companyID, employeeID string) (employee.Employee, error) {
	emp, err := a.employeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, attendance.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if emp.CompanyID != companyID {
		return employee.Employee{}, attendance.ErrEmployeeNotFound
	}
	return emp, nil
}

// GetDay implements attendance.AttendanceService. Days with no stored row are
// inferred the same way the monthly summary infers them.
func (a *AttendanceServiceImpl) GetDay(ctx context.Context, companyID, employeeID string, date time.Time) (attendance.RecordResponse, error) {
	emp, err := a.companyEmployee(ctx, companyID, employeeID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	date = clock.Date(date, nil)

	rec, err := a.AttendanceRepository.Get(ctx, emp.ID, date)
	if err == nil {
		return attendance.NewRecordResponse(rec, a.clock.Location()), nil
	}
	if !errors.Is(err, attendance.ErrRecordNotFound) {
		return attendance.RecordResponse{}, fmt.Errorf("failed to get attendance record: %w", err)
	}

	holidays, err := a.holidayRepository.ListApplicable(ctx, emp.CompanyID, date, date)
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to load holidays: %w", err)
	}
	if resp, ok := inferDay(emp.ID, date, holidays, clock.Today(a.clock)); ok {
		return resp, nil
	}
	return attendance.RecordResponse{}, attendance.ErrRecordNotFound
}

// ListRecords implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListRecords(ctx context.Context, companyID, employeeID string, r attendance.DateRange) ([]attendance.RecordResponse, error) {
	from, to, err := r.Parse()
	if err != nil {
		return nil, err
	}
	emp, err := a.companyEmployee(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}

	records, err := a.AttendanceRepository.ListByEmployee(ctx, emp.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	holidays, err := a.holidayRepository.ListApplicable(ctx, emp.CompanyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}

	byDate := make(map[time.Time]attendance.Record, len(records))
	for _, rec := range records {
		byDate[clock.Date(rec.Date, nil)] = rec
	}

	today := clock.Today(a.clock)
	loc := a.clock.Location()
	responses := make([]attendance.RecordResponse, 0, len(records))
	for _, day := range clock.DaysBetween(from, to) {
		if rec, ok := byDate[day]; ok {
			responses = append(responses, attendance.NewRecordResponse(rec, loc))
			continue
		}
		if resp, ok := inferDay(emp.ID, day, holidays, today); ok {
			responses = append(responses, resp)
		}
	}
	return responses, nil
}

// inferDay reports the status of an unrecorded day. Pending days yield false.
func inferDay(employeeID string, date time.Time, holidays []leave.Holiday, today time.Time) (attendance.RecordResponse, bool) {
	var status attendance.Status
	switch {
	case date.Weekday() == time.Sunday || leave.FindHoliday(holidays, date) != nil:
		status = attendance.StatusHoliday
	case date.Before(today):
		status = attendance.StatusAbsent
	default:
		return attendance.RecordResponse{}, false
	}
	return attendance.RecordResponse{
		EmployeeID: employeeID,
		Date:       date.Format(clock.DateLayout),
		Status:     status,
		DayValue:   status.DayValue(),
		Inferred:   true,
	}, true
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	punchRepo punch.PunchRepository,
	shiftResolver shift.Resolver,
	leaveRepo leave.RecordRepository,
	holidayRepo leave.HolidayRepository,
	regularizationRepo regularization.RequestRepository,
	employeeRepo employee.EmployeeRepository,
	cache summary.Cache,
	clk clock.Clock,
	opts Options,
) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		tx:                       tx,
		AttendanceRepository:     attendanceRepo,
		punchRepository:          punchRepo,
		shiftResolver:            shiftResolver,
		leaveRepository:          leaveRepo,
		holidayRepository:        holidayRepo,
		regularizationRepository: regularizationRepo,
		employeeRepository:       employeeRepo,
		cache:                    cache,
		clock:                    clk,
		opts:                     opts,
	}
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)
