package summary

import (
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

type MonthRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (r MonthRequest) Validate() error {
	if !validator.IsValidMonth(r.Month, r.Year) {
		return validator.ValidationErrors{{
			Field:   "month",
			Message: "month must be 1-12 and year between 2000 and 2100",
		}}
	}
	return nil
}

type RegisterRow struct {
	EmployeeID   string         `json:"employee_id"`
	EmployeeCode string         `json:"employee_code"`
	EmployeeName string         `json:"employee_name"`
	Summary      MonthlySummary `json:"summary"`
}

type RegisterResponse struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Rows  []RegisterRow `json:"rows"`
}
