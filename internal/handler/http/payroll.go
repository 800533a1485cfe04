package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type PayrollHandler interface {
	GetDeduction(w http.ResponseWriter, r *http.Request)
	PostDeductions(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	deductionService payroll.DeductionService
}

func NewPayrollHandler(deductionService payroll.DeductionService) PayrollHandler {
	return &payrollHandlerImpl{deductionService: deductionService}
}

// GetDeduction implements PayrollHandler.
func (h *payrollHandlerImpl) GetDeduction(w http.ResponseWriter, r *http.Request) {
	employeeID, err := queryID(r, "employee_id")
	if err != nil {
		response.HandleError(w, err)
		return
	}
	req := payroll.DeductionRequest{EmployeeID: employeeID}

	if req.Month, err = queryInt(r, "month", 0); err != nil {
		response.HandleError(w, err)
		return
	}
	if req.Year, err = queryInt(r, "year", 0); err != nil {
		response.HandleError(w, err)
		return
	}
	if raw := r.URL.Query().Get("per_day_rate"); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			response.HandleError(w, validator.ValidationErrors{{Field: "per_day_rate", Message: payroll.ErrInvalidPerDayRate.Error()}})
			return
		}
		req.PerDayRate = &rate
	}

	deduction, err := h.deductionService.GetDeduction(r.Context(), principal(r).CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, deduction)
}

// PostDeductions implements PayrollHandler.
func (h *payrollHandlerImpl) PostDeductions(w http.ResponseWriter, r *http.Request) {
	var req payroll.PostDeductionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.deductionService.PostDeductions(r.Context(), principal(r).CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "LOP deductions posted", result)
}
