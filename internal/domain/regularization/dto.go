package regularization

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

type SubmitRequest struct {
	Date          string `json:"date"`
	RequestedType string `json:"requested_type"`
	Reason        string `json:"reason"`
}

func (r *SubmitRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}
	if !validator.IsInSlice(r.RequestedType, RequestTypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "requested_type",
			Message: "requested_type must be one of: " + strings.Join(RequestTypeValues, ", "),
		})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if len(r.Reason) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DecideRequest struct {
	Status          Status  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

func (r *DecideRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Status != StatusApproved && r.Status != StatusRejected {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be APPROVED or REJECTED",
		})
	}
	if len(errs) > 0 {
		return errs
	}

	if r.Status == StatusRejected && (r.RejectionReason == nil || validator.IsEmpty(*r.RejectionReason)) {
		return ErrRejectionReasonRequired
	}
	return nil
}

type Filter struct {
	EmployeeID *string
	Status     *Status
	Month      int
	Year       int
}

func (f *Filter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && !validator.IsInSlice(string(*f.Status), []string{string(StatusPending), string(StatusApproved), string(StatusRejected)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be PENDING, APPROVED or REJECTED",
		})
	}
	if (f.Month != 0 || f.Year != 0) && !validator.IsValidMonth(f.Month, f.Year) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month and year must form a valid calendar month",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RequestResponse struct {
	ID               string  `json:"id"`
	EmployeeID       string  `json:"employee_id"`
	EmployeeName     *string `json:"employee_name,omitempty"`
	Date             string  `json:"date"`
	RequestedType    string  `json:"requested_type"`
	Reason           string  `json:"reason"`
	Status           string  `json:"status"`
	FlaggedForReview bool    `json:"flagged_for_review"`
	ApproverID       *string `json:"approver_id"`
	RejectionReason  *string `json:"rejection_reason"`
	DecidedAt        *string `json:"decided_at"`
	CreatedAt        string  `json:"created_at"`
}

func NewRequestResponse(r Request) RequestResponse {
	resp := RequestResponse{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		EmployeeName:     r.EmployeeName,
		Date:             r.Date.Format("2006-01-02"),
		RequestedType:    string(r.RequestedType),
		Reason:           r.Reason,
		Status:           string(r.Status),
		FlaggedForReview: r.FlaggedForReview,
		ApproverID:       r.ApproverID,
		RejectionReason:  r.RejectionReason,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
	if r.DecidedAt != nil {
		s := r.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &s
	}
	return resp
}
