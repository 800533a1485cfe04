package leave

import (
	"time"
)

type LeaveType string

const (
	LeaveTypeCasual LeaveType = "CASUAL"
	LeaveTypeSick   LeaveType = "SICK"
	LeaveTypeEarned LeaveType = "EARNED"
	LeaveTypeUnpaid LeaveType = "UNPAID"
)

var LeaveTypeValues = []string{
	string(LeaveTypeCasual),
	string(LeaveTypeSick),
	string(LeaveTypeEarned),
	string(LeaveTypeUnpaid),
}

type RecordStatus string

const (
	RecordStatusApproved  RecordStatus = "APPROVED"
	RecordStatusCancelled RecordStatus = "CANCELLED"
)

// Record is an approved leave fact pushed by the leave module.
type Record struct {
	ID          string
	EmployeeID  string
	StartDate   time.Time
	EndDate     time.Time
	LeaveType   LeaveType
	Status      RecordStatus
	Reason      *string
	CreatedAt   time.Time
	CancelledAt *time.Time
}

func (r Record) Covers(date time.Time) bool {
	return r.Status == RecordStatusApproved && !date.Before(r.StartDate) && !date.After(r.EndDate)
}

// Allocation holds yearly entitlement counts.
type Allocation struct {
	EmployeeID string
	Year       int
	Casual     int
	Sick       int
	Earned     int
	Unpaid     int
	UpdatedAt  time.Time
}

type Holiday struct {
	ID          string
	CompanyID   string
	Date        time.Time
	Name        string
	IsRecurring bool
	// WeeklyOff rows come from PopulateSundays. They only ever apply on their
	// own date even though they are flagged recurring.
	WeeklyOff bool
	CreatedAt time.Time
}

// AppliesOn reports whether the holiday falls on date. Recurring holidays
// match month and day in any year.
func (h Holiday) AppliesOn(date time.Time) bool {
	if h.Date.Equal(date) {
		return true
	}
	if !h.IsRecurring || h.WeeklyOff {
		return false
	}
	return h.Date.Month() == date.Month() && h.Date.Day() == date.Day()
}

// FindHoliday returns the first holiday applying on date, or nil.
func FindHoliday(holidays []Holiday, date time.Time) *Holiday {
	for i := range holidays {
		if holidays[i].AppliesOn(date) {
			return &holidays[i]
		}
	}
	return nil
}

const SundayHolidayName = "Sunday Holiday"

// SundaysOf lists every Sunday of year.
func SundaysOf(year int) []time.Time {
	d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	var sundays []time.Time
	for d.Year() == year {
		sundays = append(sundays, d)
		d = d.AddDate(0, 0, 7)
	}
	return sundays
}
