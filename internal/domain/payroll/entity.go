package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDaysDivisor turns a monthly salary into a per-day rate.
const DefaultDaysDivisor = 30

// LOPDeduction is the leave deduction handed to payroll for one month.
// Amount = DeductibleDays x PerDayRate.
type LOPDeduction struct {
	EmployeeID     string
	Year           int
	Month          int
	LOPDays        int
	UnpaidLeaves   int
	DeductibleDays int
	PerDayRate     decimal.Decimal
	Amount         decimal.Decimal
	ComputedAt     time.Time
}

// DeductionPolicy controls how deductible days are counted.
type DeductionPolicy struct {
	DaysDivisor int
	// UnpaidLeaveAsLOP adds unpaid leave days to the LOP count.
	UnpaidLeaveAsLOP bool
}

// PerDayRate divides the monthly base by the policy divisor.
func (p DeductionPolicy) PerDayRate(monthlyBase decimal.Decimal) decimal.Decimal {
	divisor := p.DaysDivisor
	if divisor <= 0 {
		divisor = DefaultDaysDivisor
	}
	return monthlyBase.Div(decimal.NewFromInt(int64(divisor))).Round(2)
}

// ComputeDeduction applies leaveDeduction = deductible days x per-day rate.
func ComputeDeduction(employeeID string, year, month, lopDays, unpaidLeaves int, perDayRate decimal.Decimal, p DeductionPolicy) LOPDeduction {
	days := lopDays
	if p.UnpaidLeaveAsLOP {
		days += unpaidLeaves
	}
	return LOPDeduction{
		EmployeeID:     employeeID,
		Year:           year,
		Month:          month,
		LOPDays:        lopDays,
		UnpaidLeaves:   unpaidLeaves,
		DeductibleDays: days,
		PerDayRate:     perDayRate,
		Amount:         perDayRate.Mul(decimal.NewFromInt(int64(days))).Round(2),
	}
}
