package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeductionPolicy_PerDayRate(t *testing.T) {
	p := DeductionPolicy{DaysDivisor: 30}
	assert.True(t, decimal.NewFromInt(1000).Equal(p.PerDayRate(decimal.NewFromInt(30000))))

	// Zero divisor falls back to the default.
	assert.True(t, decimal.RequireFromString("1666.67").Equal(DeductionPolicy{}.PerDayRate(decimal.NewFromInt(50000))))
}

func TestComputeDeduction_OneLOPDayIsOneUnit(t *testing.T) {
	rate := decimal.RequireFromString("1250.50")
	d := ComputeDeduction("emp-1", 2024, 3, 3, 2, rate, DeductionPolicy{})

	assert.Equal(t, 3, d.DeductibleDays)
	assert.True(t, decimal.RequireFromString("3751.50").Equal(d.Amount), d.Amount.String())
}

func TestComputeDeduction_UnpaidLeavePolicy(t *testing.T) {
	rate := decimal.NewFromInt(1000)
	d := ComputeDeduction("emp-1", 2024, 3, 1, 2, rate, DeductionPolicy{UnpaidLeaveAsLOP: true})

	assert.Equal(t, 1, d.LOPDays)
	assert.Equal(t, 3, d.DeductibleDays)
	assert.True(t, decimal.NewFromInt(3000).Equal(d.Amount))
}

func TestComputeDeduction_NoLOP(t *testing.T) {
	d := ComputeDeduction("emp-1", 2024, 3, 0, 0, decimal.NewFromInt(900), DeductionPolicy{})
	assert.True(t, d.Amount.IsZero())
}
