package shift

import (
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

const maxGraceMinutes = 720

type CreateShiftRequest struct {
	Name                string `json:"name"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	DefaultGraceMinutes *int   `json:"default_grace_minutes"`
}

func (r *CreateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}
	if !validator.IsValidTimeOfDay(r.StartTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be in HH:MM format",
		})
	}
	if !validator.IsValidTimeOfDay(r.EndTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be in HH:MM format",
		})
	}
	if r.StartTime != "" && r.StartTime == r.EndTime {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must differ from start_time",
		})
	}
	if r.DefaultGraceMinutes == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "default_grace_minutes",
			Message: "default_grace_minutes is required",
		})
	} else if *r.DefaultGraceMinutes < 0 || *r.DefaultGraceMinutes > maxGraceMinutes {
		errs = append(errs, validator.ValidationError{
			Field:   "default_grace_minutes",
			Message: "default_grace_minutes must be between 0 and 720",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateShiftRequest struct {
	ID                  string  `json:"-"`
	Name                *string `json:"name,omitempty"`
	StartTime           *string `json:"start_time,omitempty"`
	EndTime             *string `json:"end_time,omitempty"`
	DefaultGraceMinutes *int    `json:"default_grace_minutes,omitempty"`
}

func (r *UpdateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name cannot be empty",
		})
	}
	if r.StartTime != nil && !validator.IsValidTimeOfDay(*r.StartTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be in HH:MM format",
		})
	}
	if r.EndTime != nil && !validator.IsValidTimeOfDay(*r.EndTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be in HH:MM format",
		})
	}
	if r.DefaultGraceMinutes != nil && (*r.DefaultGraceMinutes < 0 || *r.DefaultGraceMinutes > maxGraceMinutes) {
		errs = append(errs, validator.ValidationError{
			Field:   "default_grace_minutes",
			Message: "default_grace_minutes must be between 0 and 720",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ChangesTimes reports whether the update touches start or end time.
func (r *UpdateShiftRequest) ChangesTimes(current Shift) bool {
	if r.StartTime != nil && *r.StartTime != current.StartTime.String() {
		return true
	}
	return r.EndTime != nil && *r.EndTime != current.EndTime.String()
}

type CreateAssignmentRequest struct {
	EmployeeID           string  `json:"employee_id"`
	ShiftID              string  `json:"shift_id"`
	FromDate             string  `json:"from_date"`
	ToDate               *string `json:"to_date,omitempty"`
	GraceOverrideMinutes *int    `json:"grace_override_minutes,omitempty"`
}

func (r *CreateAssignmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if validator.IsEmpty(r.ShiftID) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_id",
			Message: "shift_id is required",
		})
	}
	from, fromOK := validator.IsValidDate(r.FromDate)
	if !fromOK {
		errs = append(errs, validator.ValidationError{
			Field:   "from_date",
			Message: "from_date must be in YYYY-MM-DD format",
		})
	}
	if r.ToDate != nil {
		to, ok := validator.IsValidDate(*r.ToDate)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "to_date",
				Message: "to_date must be in YYYY-MM-DD format",
			})
		} else if fromOK && to.Before(from) {
			errs = append(errs, validator.ValidationError{
				Field:   "to_date",
				Message: ErrInvalidAssignRange.Error(),
			})
		}
	}
	if r.GraceOverrideMinutes != nil && (*r.GraceOverrideMinutes < 0 || *r.GraceOverrideMinutes > maxGraceMinutes) {
		errs = append(errs, validator.ValidationError{
			Field:   "grace_override_minutes",
			Message: "grace_override_minutes must be between 0 and 720",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ShiftResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	StartTime           TimeOfDay `json:"start_time"`
	EndTime             TimeOfDay `json:"end_time"`
	DefaultGraceMinutes int       `json:"default_grace_minutes"`
	Overnight           bool      `json:"overnight"`
	SpanHours           float64   `json:"span_hours"`
	CreatedAt           string    `json:"created_at"`
	UpdatedAt           string    `json:"updated_at"`
}

func NewShiftResponse(s Shift) ShiftResponse {
	return ShiftResponse{
		ID:                  s.ID,
		Name:                s.Name,
		StartTime:           s.StartTime,
		EndTime:             s.EndTime,
		DefaultGraceMinutes: s.DefaultGraceMinutes,
		Overnight:           s.IsOvernight(),
		SpanHours:           s.Span().Hours(),
		CreatedAt:           s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:           s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

type AssignmentResponse struct {
	ID                   string         `json:"id"`
	EmployeeID           string         `json:"employee_id"`
	ShiftID              string         `json:"shift_id"`
	FromDate             string         `json:"from_date"`
	ToDate               *string        `json:"to_date"`
	GraceOverrideMinutes *int           `json:"grace_override_minutes"`
	CreatedAt            string         `json:"created_at"`
	Shift                *ShiftResponse `json:"shift,omitempty"`
}

func NewAssignmentResponse(a Assignment, s *Shift) AssignmentResponse {
	resp := AssignmentResponse{
		ID:                   a.ID,
		EmployeeID:           a.EmployeeID,
		ShiftID:              a.ShiftID,
		FromDate:             a.FromDate.Format("2006-01-02"),
		GraceOverrideMinutes: a.GraceOverrideMinutes,
		CreatedAt:            a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if a.ToDate != nil {
		to := a.ToDate.Format("2006-01-02")
		resp.ToDate = &to
	}
	if s != nil {
		sr := NewShiftResponse(*s)
		resp.Shift = &sr
	}
	return resp
}

type ResolveResponse struct {
	EmployeeID            string         `json:"employee_id"`
	Date                  string         `json:"date"`
	Assigned              bool           `json:"assigned"`
	AssignmentID          string         `json:"assignment_id,omitempty"`
	Shift                 *ShiftResponse `json:"shift,omitempty"`
	EffectiveGraceMinutes int            `json:"effective_grace_minutes"`
}
