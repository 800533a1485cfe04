package payroll

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type DeductionRequest struct {
	EmployeeID string           `json:"employee_id"`
	Month      int              `json:"month"`
	Year       int              `json:"year"`
	PerDayRate *decimal.Decimal `json:"per_day_rate,omitempty"`
}

func (r *DeductionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if !validator.IsValidMonth(r.Month, r.Year) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be 1-12 and year between 2000 and 2100",
		})
	}
	if r.PerDayRate != nil && r.PerDayRate.IsNegative() {
		errs = append(errs, validator.ValidationError{
			Field:   "per_day_rate",
			Message: ErrInvalidPerDayRate.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PostDeductionsRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (r *PostDeductionsRequest) Validate() error {
	if !validator.IsValidMonth(r.Month, r.Year) {
		return validator.ValidationErrors{{
			Field:   "month",
			Message: "month must be 1-12 and year between 2000 and 2100",
		}}
	}
	return nil
}

type DeductionResponse struct {
	EmployeeID     string          `json:"employee_id"`
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	LOPDays        int             `json:"lop_days"`
	UnpaidLeaves   int             `json:"unpaid_leaves"`
	DeductibleDays int             `json:"deductible_days"`
	PerDayRate     decimal.Decimal `json:"per_day_rate"`
	LeaveDeduction decimal.Decimal `json:"leave_deduction"`
	ComputedAt     *string         `json:"computed_at,omitempty"`
}

func NewDeductionResponse(d LOPDeduction) DeductionResponse {
	resp := DeductionResponse{
		EmployeeID:     d.EmployeeID,
		Year:           d.Year,
		Month:          d.Month,
		LOPDays:        d.LOPDays,
		UnpaidLeaves:   d.UnpaidLeaves,
		DeductibleDays: d.DeductibleDays,
		PerDayRate:     d.PerDayRate,
		LeaveDeduction: d.Amount,
	}
	if !d.ComputedAt.IsZero() {
		s := d.ComputedAt.Format(time.RFC3339)
		resp.ComputedAt = &s
	}
	return resp
}

type PostFailure struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type PostDeductionsResponse struct {
	Year       int                 `json:"year"`
	Month      int                 `json:"month"`
	Posted     []DeductionResponse `json:"posted"`
	Failed     int                 `json:"failed"`
	Failures   []PostFailure       `json:"failures"`
	TotalValue decimal.Decimal     `json:"total_value"`
}
