package payroll

import "context"

type DeductionRepository interface {
	Upsert(ctx context.Context, d LOPDeduction) (LOPDeduction, error)
}
