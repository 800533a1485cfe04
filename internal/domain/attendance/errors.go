package attendance

import "errors"

var (
	ErrRecordNotFound    = errors.New("attendance record not found")
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrInvalidDateRange  = errors.New("end_date must not be before start_date")
	ErrDateRangeTooLarge = errors.New("date range must not exceed 366 days")
	ErrInvalidDateFormat = errors.New("invalid date format, use YYYY-MM-DD")
)
