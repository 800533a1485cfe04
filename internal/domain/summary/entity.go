package summary

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
)

// MonthlySummary rolls up one employee's month.
//
// Every day is accounted exactly once:
// PresentDays + LateDays + RegularizedDays + TotalHalfDaysCount +
// TotalLeaves + TotalLOP + PendingDays == TotalDays - TotalHolidays.
type MonthlySummary struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`

	TotalDays          int     `json:"total_days"`
	TotalHolidays      int     `json:"total_holidays"`
	TotalPresentValue  float64 `json:"total_present_value"`
	TotalHalfDaysCount int     `json:"total_half_days_count"`
	TotalLeaves        int     `json:"total_leaves"`
	TotalLOP           int     `json:"total_lop"`

	PresentDays     int `json:"present_days"`
	LateDays        int `json:"late_days"`
	RegularizedDays int `json:"regularized_days"`
	UnpaidLeaves    int `json:"unpaid_leaves"`
	PendingDays     int `json:"pending_days"`
	Sundays         int `json:"sundays"`
	WorkingDays     int `json:"working_days"`

	Days []DayStatus `json:"days,omitempty"`
}

// DayStatus is the aggregation view of one calendar day. Status is empty for
// pending days.
type DayStatus struct {
	Date     string            `json:"date"`
	Status   attendance.Status `json:"status,omitempty"`
	DayValue float64           `json:"day_value"`
	Inferred bool              `json:"inferred,omitempty"`
}

type AggregateInput struct {
	EmployeeID string
	Year       int
	Month      time.Month
	Today      time.Time
	Records    []attendance.Record
	Holidays   []leave.Holiday
}

// Aggregate computes the monthly summary. It never reads the clock; Today
// decides which unrecorded days are past.
func Aggregate(in AggregateInput) MonthlySummary {
	first, last := clock.MonthBounds(in.Year, in.Month)

	byDate := make(map[time.Time]attendance.Record, len(in.Records))
	for _, r := range in.Records {
		byDate[clock.Date(r.Date, nil)] = r
	}

	s := MonthlySummary{EmployeeID: in.EmployeeID, Year: in.Year, Month: int(in.Month)}
	for _, day := range clock.DaysBetween(first, last) {
		s.TotalDays++
		ds := DayStatus{Date: day.Format(clock.DateLayout)}

		status, inferred, known := statusFor(day, byDate, in.Holidays, in.Today)
		switch {
		case day.Weekday() == time.Sunday:
			s.Sundays++
			s.TotalHolidays++
			status = attendance.StatusHoliday
		case !known:
			s.PendingDays++
		default:
			s.count(status, byDate[day])
		}

		if known || day.Weekday() == time.Sunday {
			ds.Status = status
			ds.DayValue = status.DayValue()
			ds.Inferred = inferred
		}
		s.Days = append(s.Days, ds)
	}

	s.WorkingDays = s.TotalDays - s.TotalHolidays
	return s
}

func (s *MonthlySummary) count(status attendance.Status, rec attendance.Record) {
	switch status {
	case attendance.StatusHoliday:
		s.TotalHolidays++
		return
	case attendance.StatusPresent:
		s.PresentDays++
	case attendance.StatusLate:
		s.LateDays++
	case attendance.StatusRegularized:
		s.RegularizedDays++
	case attendance.StatusHalfDay:
		s.TotalHalfDaysCount++
	case attendance.StatusLeave:
		s.TotalLeaves++
		if rec.LeaveType != nil && *rec.LeaveType == string(leave.LeaveTypeUnpaid) {
			s.UnpaidLeaves++
		}
		return
	case attendance.StatusAbsent:
		s.TotalLOP++
	}
	s.TotalPresentValue += status.DayValue()
}

// statusFor returns the status of a non-Sunday day. known is false for days
// that are still pending.
func statusFor(day time.Time, byDate map[time.Time]attendance.Record, holidays []leave.Holiday, today time.Time) (status attendance.Status, inferred, known bool) {
	if rec, ok := byDate[day]; ok {
		return rec.Status, false, true
	}
	if leave.FindHoliday(holidays, day) != nil {
		return attendance.StatusHoliday, true, true
	}
	if day.Before(today) {
		return attendance.StatusAbsent, true, true
	}
	return "", false, false
}
