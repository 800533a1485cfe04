package shift

import "errors"

var (
	ErrShiftNotFound       = errors.New("shift not found")
	ErrShiftNameExists     = errors.New("shift with this name already exists")
	ErrShiftTimesImmutable = errors.New("shift start and end times cannot change once the shift is assigned")
	ErrInvalidShiftTimes   = errors.New("end_time must differ from start_time")

	ErrAssignmentNotFound = errors.New("shift assignment not found")
	ErrInvalidAssignRange = errors.New("to_date must not be before from_date")
	ErrEmployeeIDRequired = errors.New("employee ID is required")
	ErrInvalidDateFormat  = errors.New("invalid date format, use YYYY-MM-DD")
)
