package leave

import "errors"

var (
	ErrLeaveNotFound         = errors.New("leave record not found")
	ErrLeaveAlreadyCancelled = errors.New("leave record already cancelled")
	ErrLeaveOverlap          = errors.New("an approved leave already covers part of this range")
	ErrAllocationNotFound    = errors.New("leave allocation not found")

	ErrHolidayNotFound = errors.New("holiday not found")
	ErrHolidayExists   = errors.New("a holiday already exists on this date")
)
