package attendance

import (
	"time"
)

type Status string

const (
	StatusPresent     Status = "PRESENT"
	StatusLate        Status = "LATE"
	StatusHalfDay     Status = "HALF_DAY"
	StatusAbsent      Status = "ABSENT"
	StatusLeave       Status = "LEAVE"
	StatusHoliday     Status = "HOLIDAY"
	StatusRegularized Status = "REGULARIZED"
)

var StatusValues = []string{
	string(StatusPresent),
	string(StatusLate),
	string(StatusHalfDay),
	string(StatusAbsent),
	string(StatusLeave),
	string(StatusHoliday),
	string(StatusRegularized),
}

// DayValue is the credit a day of this status contributes to monthly totals.
func (s Status) DayValue() float64 {
	switch s {
	case StatusPresent, StatusLate, StatusRegularized, StatusLeave, StatusHoliday:
		return 1.0
	case StatusHalfDay:
		return 0.5
	default:
		return 0
	}
}

// Record is the single stored classification of one employee-day.
type Record struct {
	EmployeeID string
	Date       time.Time
	Status     Status
	CheckIn    *time.Time
	CheckOut   *time.Time
	WorkHours  *float64
	LeaveType  *string
	ShiftID    *string
	UpdatedAt  time.Time
}

// Facts used by the engine. They are deliberately small copies of the
// owning modules' entities so the engine stays free of I/O.

type LeaveFact struct {
	LeaveID   string
	LeaveType string
}

type HolidayFact struct {
	Name      string
	Recurring bool
}

type RegularizationFact struct {
	RequestID string
}
