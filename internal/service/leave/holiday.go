package leave

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/summary"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

type holidayServiceImpl struct {
	leave.HolidayRepository
	employeeRepository employee.EmployeeRepository
	reclassifier       attendance.Reclassifier
	// cache may be nil.
	cache summary.Cache
	clock clock.Clock
}

// ListHolidays implements leave.HolidayService.
func (h *holidayServiceImpl) ListHolidays(ctx context.Context, companyID string, year int) ([]leave.HolidayResponse, error) {
	if !validator.IsValidMonth(1, year) {
		return nil, validator.ValidationErrors{{Field: "year", Message: "year must be between 2000 and 2100"}}
	}

	holidays, err := h.HolidayRepository.ListByYear(ctx, companyID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}

	responses := make([]leave.HolidayResponse, 0, len(holidays))
	for _, hol := range holidays {
		responses = append(responses, leave.NewHolidayResponse(hol))
	}
	return responses, nil
}

// AddHoliday implements leave.HolidayService.
func (h *holidayServiceImpl) AddHoliday(ctx context.Context, companyID string, req leave.CreateHolidayRequest) (leave.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.HolidayResponse{}, err
	}
	date, _ := clock.ParseDate(req.Date)

	created, err := h.HolidayRepository.Create(ctx, leave.Holiday{
		CompanyID:   companyID,
		Date:        date,
		Name:        strings.TrimSpace(req.Name),
		IsRecurring: req.IsRecurring,
	})
	if err != nil {
		return leave.HolidayResponse{}, err
	}

	h.applyHolidayChange(ctx, created)
	return leave.NewHolidayResponse(created), nil
}

// DeleteHoliday implements leave.HolidayService.
func (h *holidayServiceImpl) DeleteHoliday(ctx context.Context, companyID, id string) error {
	existing, err := h.HolidayRepository.GetByID(ctx, id, companyID)
	if err != nil {
		return err
	}
	if err := h.HolidayRepository.Delete(ctx, id, companyID); err != nil {
		return err
	}

	h.applyHolidayChange(ctx, existing)
	return nil
}

// affectedDates lists the days a holiday changes: its own date and, when it
// recurs, the same month and day of every later year up to today. Feb 29
// occurrences are skipped in non-leap years.
func affectedDates(h leave.Holiday, today time.Time) []time.Time {
	dates := []time.Time{h.Date}
	if !h.IsRecurring || h.WeeklyOff {
		return dates
	}
	for year := h.Date.Year() + 1; year <= today.Year(); year++ {
		d := time.Date(year, h.Date.Month(), h.Date.Day(), 0, 0, 0, 0, time.UTC)
		if d.Month() != h.Date.Month() {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// applyHolidayChange reclassifies every elapsed affected date and drops the
// cached summaries of the months involved. Future dates are classified when
// they arrive.
func (h *holidayServiceImpl) applyHolidayChange(ctx context.Context, hol leave.Holiday) {
	today := clock.Today(h.clock)
	dates := affectedDates(hol, today)

	for _, date := range dates {
		if !date.After(today) {
			h.recalculateDate(ctx, hol.CompanyID, date)
		}
	}
	h.invalidateMonths(ctx, hol.CompanyID, dates)
}

func (h *holidayServiceImpl) recalculateDate(ctx context.Context, companyID string, date time.Time) {
	day := date.Format(clock.DateLayout)
	result, err := h.reclassifier.Recalculate(ctx, companyID, attendance.RecalculateRequest{
		DateRange: attendance.DateRange{StartDate: day, EndDate: day},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to recalculate holiday date",
			"company_id", companyID,
			"date", day,
			"error", err,
		)
		return
	}
	if result.Failed > 0 {
		slog.WarnContext(ctx, "holiday recalculation had failures",
			"company_id", companyID,
			"date", day,
			"failed", result.Failed,
		)
	}
}

// invalidateMonths drops cached summaries because aggregation counts holidays
// on days that have no stored record.
func (h *holidayServiceImpl) invalidateMonths(ctx context.Context, companyID string, dates []time.Time) {
	if h.cache == nil {
		return
	}

	employees, err := h.employeeRepository.GetActiveByCompanyID(ctx, companyID)
	if err != nil {
		slog.WarnContext(ctx, "failed to list employees for summary invalidation", "company_id", companyID, "error", err)
		return
	}

	for _, date := range dates {
		for _, emp := range employees {
			if err := h.cache.Invalidate(ctx, emp.ID, date.Year(), date.Month()); err != nil {
				slog.WarnContext(ctx, "failed to invalidate summary cache", "employee_id", emp.ID, "error", err)
			}
		}
	}
}

// PopulateSundays implements leave.HolidayService. Existing dates are kept.
func (h *holidayServiceImpl) PopulateSundays(ctx context.Context, companyID string, year int) (leave.PopulateSundaysResponse, error) {
	if !validator.IsValidMonth(1, year) {
		return leave.PopulateSundaysResponse{}, validator.ValidationErrors{{Field: "year", Message: "year must be between 2000 and 2100"}}
	}

	sundays := leave.SundaysOf(year)
	holidays := make([]leave.Holiday, 0, len(sundays))
	for _, day := range sundays {
		holidays = append(holidays, leave.Holiday{
			CompanyID:   companyID,
			Date:        day,
			Name:        leave.SundayHolidayName,
			IsRecurring: true,
			WeeklyOff:   true,
		})
	}

	inserted, err := h.HolidayRepository.UpsertMany(ctx, holidays)
	if err != nil {
		return leave.PopulateSundaysResponse{}, fmt.Errorf("failed to populate sundays: %w", err)
	}

	slog.InfoContext(ctx, "sundays populated", "company_id", companyID, "year", year, "inserted", inserted)
	return leave.PopulateSundaysResponse{Year: year, Sundays: len(sundays), Inserted: inserted}, nil
}

func NewHolidayService(
	holidayRepo leave.HolidayRepository,
	employeeRepo employee.EmployeeRepository,
	reclassifier attendance.Reclassifier,
	cache summary.Cache,
	clk clock.Clock,
) leave.HolidayService {
	return &holidayServiceImpl{
		HolidayRepository:  holidayRepo,
		employeeRepository: employeeRepo,
		reclassifier:       reclassifier,
		cache:              cache,
		clock:              clk,
	}
}
