package leave

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

type RecordLeaveRequest struct {
	EmployeeID string  `json:"employee_id"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	LeaveType  string  `json:"leave_type"`
	Reason     *string `json:"reason,omitempty"`
}

func (r *RecordLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if !validator.IsInSlice(r.LeaveType, LeaveTypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type must be one of: " + strings.Join(LeaveTypeValues, ", "),
		})
	}
	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}
	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RecordResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	LeaveType  string  `json:"leave_type"`
	Status     string  `json:"status"`
	Reason     *string `json:"reason"`
	CreatedAt  string  `json:"created_at"`
}

func NewRecordResponse(r Record) RecordResponse {
	return RecordResponse{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		StartDate:  r.StartDate.Format("2006-01-02"),
		EndDate:    r.EndDate.Format("2006-01-02"),
		LeaveType:  string(r.LeaveType),
		Status:     string(r.Status),
		Reason:     r.Reason,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
}

type UpsertAllocationRequest struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Casual     int    `json:"casual"`
	Sick       int    `json:"sick"`
	Earned     int    `json:"earned"`
	Unpaid     int    `json:"unpaid"`
}

func (r *UpsertAllocationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if !validator.IsValidMonth(1, r.Year) {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 2000 and 2100",
		})
	}
	counts := map[string]int{"casual": r.Casual, "sick": r.Sick, "earned": r.Earned, "unpaid": r.Unpaid}
	for _, field := range []string{"casual", "sick", "earned", "unpaid"} {
		if counts[field] < 0 {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: field + " must be a non-negative number",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AllocationResponse struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Casual     int    `json:"casual"`
	Sick       int    `json:"sick"`
	Earned     int    `json:"earned"`
	Unpaid     int    `json:"unpaid"`
	Total      int    `json:"total"`
}

func NewAllocationResponse(a Allocation) AllocationResponse {
	return AllocationResponse{
		EmployeeID: a.EmployeeID,
		Year:       a.Year,
		Casual:     a.Casual,
		Sick:       a.Sick,
		Earned:     a.Earned,
		Unpaid:     a.Unpaid,
		Total:      a.Casual + a.Sick + a.Earned + a.Unpaid,
	}
}

type CreateHolidayRequest struct {
	Date        string `json:"date"`
	Name        string `json:"name"`
	IsRecurring bool   `json:"is_recurring"`
}

func (r *CreateHolidayRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type HolidayResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Name        string `json:"name"`
	IsRecurring bool   `json:"is_recurring"`
	WeeklyOff   bool   `json:"weekly_off"`
}

func NewHolidayResponse(h Holiday) HolidayResponse {
	return HolidayResponse{
		ID:          h.ID,
		Date:        h.Date.Format("2006-01-02"),
		Name:        h.Name,
		IsRecurring: h.IsRecurring,
		WeeklyOff:   h.WeeklyOff,
	}
}

type PopulateSundaysResponse struct {
	Year     int `json:"year"`
	Sundays  int `json:"sundays"`
	Inserted int `json:"inserted"`
}
