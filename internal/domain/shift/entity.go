package shift

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

type Shift struct {
	ID                  string
	CompanyID           string
	Name                string
	StartTime           TimeOfDay
	EndTime             TimeOfDay
	DefaultGraceMinutes int
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

// IsOvernight reports whether the shift ends on the following calendar day.
func (s Shift) IsOvernight() bool {
	return s.EndTime <= s.StartTime
}

// Span is the scheduled duration of the shift.
func (s Shift) Span() time.Duration {
	minutes := int(s.EndTime) - int(s.StartTime)
	if s.IsOvernight() {
		minutes += 24 * 60
	}
	return time.Duration(minutes) * time.Minute
}

type Assignment struct {
	ID                   string
	EmployeeID           string
	ShiftID              string
	FromDate             time.Time
	ToDate               *time.Time // nil = open-ended
	GraceOverrideMinutes *int
	CreatedAt            time.Time
}

// Covers reports whether date falls inside the assignment interval. Both ends
// are inclusive.
func (a Assignment) Covers(date time.Time) bool {
	if date.Before(a.FromDate) {
		return false
	}
	return a.ToDate == nil || !date.After(*a.ToDate)
}

type AssignmentWithShift struct {
	Assignment
	Shift Shift
}

// Resolution is the shift in force for an employee on one day.
type Resolution struct {
	AssignmentID          string
	Shift                 Shift
	EffectiveGraceMinutes int
}

// Covering returns the candidates covering date ordered by precedence: most
// recently created first, ties broken by the greater id.
func Covering(candidates []AssignmentWithShift, date time.Time) []AssignmentWithShift {
	var matched []AssignmentWithShift
	for _, c := range candidates {
		if c.Covers(date) {
			matched = append(matched, c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return matched
}

// Resolve picks the assignment in force on date. It returns nil when no
// assignment covers the day.
func Resolve(candidates []AssignmentWithShift, date time.Time) *Resolution {
	matched := Covering(candidates, date)
	if len(matched) == 0 {
		return nil
	}
	winner := matched[0]
	grace := winner.Shift.DefaultGraceMinutes
	if winner.GraceOverrideMinutes != nil {
		grace = *winner.GraceOverrideMinutes
	}
	return &Resolution{
		AssignmentID:          winner.ID,
		Shift:                 winner.Shift,
		EffectiveGraceMinutes: grace,
	}
}
