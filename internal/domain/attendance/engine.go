package attendance

import (
	"math"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
)

// DefaultHalfDayRatio: worked hours below this share of the shift span make
// the day a HALF_DAY.
const DefaultHalfDayRatio = 0.5

type Policy struct {
	HalfDayRatio float64
}

func DefaultPolicy() Policy {
	return Policy{HalfDayRatio: DefaultHalfDayRatio}
}

// DayFacts is everything known about one employee-day at classification time.
type DayFacts struct {
	EmployeeID     string
	Date           time.Time
	Today          time.Time
	Location       *time.Location
	Punches        []time.Time
	Shift          *shift.Resolution
	Holiday        *HolidayFact
	Leave          *LeaveFact
	Regularization *RegularizationFact
}

// ClassifyDay derives the attendance record of one day. A nil result means
// the day is still pending and no record should exist.
//
// Precedence: holiday (Sunday included), approved leave, punches, then
// absence for past days. An approved regularization overrides the outcome.
func ClassifyDay(f DayFacts, p Policy) *Record {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}

	rec := &Record{EmployeeID: f.EmployeeID, Date: f.Date, ShiftID: shiftIDOf(f.Shift)}

	punches := sortedPunches(f.Punches, loc)
	if len(punches) > 0 {
		in := punches[0]
		rec.CheckIn = &in
	}
	if len(punches) > 1 {
		out := punches[len(punches)-1]
		rec.CheckOut = &out
		hours := roundHours(out.Sub(punches[0]))
		rec.WorkHours = &hours
	}

	switch {
	case f.Holiday != nil || f.Date.Weekday() == time.Sunday:
		rec.Status = StatusHoliday
	case f.Leave != nil:
		rec.Status = StatusLeave
		lt := f.Leave.LeaveType
		rec.LeaveType = &lt
	case len(punches) == 1:
		rec.Status = StatusHalfDay
	case len(punches) > 1:
		rec.Status = classifyPunchPair(rec, f.Date, f.Shift, loc, p)
	case f.Date.Before(f.Today):
		rec.Status = StatusAbsent
	default:
		rec = nil
	}

	if f.Regularization != nil {
		if rec == nil {
			rec = &Record{EmployeeID: f.EmployeeID, Date: f.Date, ShiftID: shiftIDOf(f.Shift)}
		}
		rec.Status = StatusRegularized
		rec.LeaveType = nil
	}

	return rec
}

func classifyPunchPair(rec *Record, date time.Time, res *shift.Resolution, loc *time.Location, p Policy) Status {
	if res == nil {
		return StatusPresent
	}

	ratio := p.HalfDayRatio
	if ratio <= 0 {
		ratio = DefaultHalfDayRatio
	}
	if *rec.WorkHours < res.Shift.Span().Hours()*ratio {
		return StatusHalfDay
	}

	start := clock.OnDate(date, res.Shift.StartTime.Minutes(), loc)
	graceLimit := start.Add(time.Duration(res.EffectiveGraceMinutes) * time.Minute)
	if rec.CheckIn.After(graceLimit) {
		return StatusLate
	}
	return StatusPresent
}

func sortedPunches(punches []time.Time, loc *time.Location) []time.Time {
	out := make([]time.Time, len(punches))
	for i, t := range punches {
		out[i] = t.In(loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}

func shiftIDOf(res *shift.Resolution) *string {
	if res == nil {
		return nil
	}
	id := res.Shift.ID
	return &id
}
