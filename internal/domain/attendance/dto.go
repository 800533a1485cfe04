package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

const maxRangeDays = 366

type RecordResponse struct {
	EmployeeID string   `json:"employee_id"`
	Date       string   `json:"date"`
	Status     Status   `json:"status"`
	DayValue   float64  `json:"day_value"`
	CheckIn    *string  `json:"check_in"`
	CheckOut   *string  `json:"check_out"`
	WorkHours  *float64 `json:"work_hours"`
	LeaveType  *string  `json:"leave_type"`
	ShiftID    *string  `json:"shift_id"`
	// Inferred marks a past day with no stored row, reported as ABSENT.
	Inferred bool `json:"inferred,omitempty"`
}

func NewRecordResponse(r Record, loc *time.Location) RecordResponse {
	resp := RecordResponse{
		EmployeeID: r.EmployeeID,
		Date:       r.Date.Format("2006-01-02"),
		Status:     r.Status,
		DayValue:   r.Status.DayValue(),
		WorkHours:  r.WorkHours,
		LeaveType:  r.LeaveType,
		ShiftID:    r.ShiftID,
	}
	if r.CheckIn != nil {
		s := r.CheckIn.In(loc).Format(time.RFC3339)
		resp.CheckIn = &s
	}
	if r.CheckOut != nil {
		s := r.CheckOut.In(loc).Format(time.RFC3339)
		resp.CheckOut = &s
	}
	return resp
}

type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Parse validates the range and returns its bounds as calendar days.
func (r DateRange) Parse() (time.Time, time.Time, error) {
	var errs validator.ValidationErrors

	from, fromOK := validator.IsValidDate(r.StartDate)
	if !fromOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: ErrInvalidDateFormat.Error(),
		})
	}
	to, toOK := validator.IsValidDate(r.EndDate)
	if !toOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: ErrInvalidDateFormat.Error(),
		})
	}
	if fromOK && toOK {
		if to.Before(from) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: ErrInvalidDateRange.Error(),
			})
		} else if to.Sub(from) > maxRangeDays*24*time.Hour {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: ErrDateRangeTooLarge.Error(),
			})
		}
	}

	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}
	return from, to, nil
}

type RecalculateRequest struct {
	DateRange
	// EmployeeIDs limits the run; empty means every active employee.
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

type RecalculateFailure struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type RecalculateResult struct {
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Failures  []RecalculateFailure `json:"failures"`
}
