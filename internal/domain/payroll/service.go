package payroll

import "context"

type DeductionService interface {
	GetDeduction(ctx context.Context, companyID string, req DeductionRequest) (DeductionResponse, error)
	PostDeductions(ctx context.Context, companyID string, req PostDeductionsRequest) (PostDeductionsResponse, error)
}
