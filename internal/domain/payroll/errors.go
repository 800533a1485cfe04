package payroll

import "errors"

var (
	ErrEmployeeHasNoBaseSalary = errors.New("employee has no base salary configured")
	ErrInvalidPerDayRate       = errors.New("per_day_rate must be a non-negative number")
)
