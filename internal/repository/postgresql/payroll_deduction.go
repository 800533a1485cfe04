package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
)

type payrollDeductionRepositoryImpl struct {
	db *database.DB
}

func NewPayrollDeductionRepository(db *database.DB) payroll.DeductionRepository {
	return &payrollDeductionRepositoryImpl{db: db}
}

// Upsert implements payroll.DeductionRepository. Posting the same month twice
// overwrites the earlier figures.
func (p *payrollDeductionRepositoryImpl) Upsert(ctx context.Context, d payroll.LOPDeduction) (payroll.LOPDeduction, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		INSERT INTO payroll_lop_deductions (
			employee_id, year, month, lop_days, unpaid_leaves, deductible_days, per_day_rate, deduction_amount, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (employee_id, year, month) DO UPDATE SET
			lop_days = EXCLUDED.lop_days,
			unpaid_leaves = EXCLUDED.unpaid_leaves,
			deductible_days = EXCLUDED.deductible_days,
			per_day_rate = EXCLUDED.per_day_rate,
			deduction_amount = EXCLUDED.deduction_amount,
			computed_at = now()
		RETURNING computed_at
	`
	err := q.QueryRow(ctx, query,
		d.EmployeeID, d.Year, d.Month, d.LOPDays, d.UnpaidLeaves, d.DeductibleDays, d.PerDayRate, d.Amount,
	).Scan(&d.ComputedAt)
	if err != nil {
		return payroll.LOPDeduction{}, fmt.Errorf("failed to upsert lop deduction: %w", err)
	}
	return d, nil
}
