package summary

import (
	"context"
	"io"
)

type SummaryService interface {
	Summarize(ctx context.Context, companyID, employeeID string, req MonthRequest) (MonthlySummary, error)
	Register(ctx context.Context, companyID string, req MonthRequest) (RegisterResponse, error)
	// ExportRegister writes the register as an XLSX workbook.
	ExportRegister(ctx context.Context, companyID string, req MonthRequest, w io.Writer) error
}
