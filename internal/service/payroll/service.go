package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/summary"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Summarizer is the slice of the summary service payroll reads.
type Summarizer interface {
	Summarize(ctx context.Context, companyID, employeeID string, req summary.MonthRequest) (summary.MonthlySummary, error)
}

type DeductionServiceImpl struct {
	payroll.DeductionRepository
	employeeRepository employee.EmployeeRepository
	summarizer         Summarizer
	policy             payroll.DeductionPolicy
	concurrency        int
}

func NewDeductionService(
	deductionRepo payroll.DeductionRepository,
	employeeRepo employee.EmployeeRepository,
	summarizer Summarizer,
	policy payroll.DeductionPolicy,
	concurrency int,
) payroll.DeductionService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &DeductionServiceImpl{
		DeductionRepository: deductionRepo,
		employeeRepository:  employeeRepo,
		summarizer:          summarizer,
		policy:              policy,
		concurrency:         concurrency,
	}
}

// GetDeduction implements payroll.DeductionService. Nothing is stored.
func (s *DeductionServiceImpl) GetDeduction(ctx context.Context, companyID string, req payroll.DeductionRequest) (payroll.DeductionResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.DeductionResponse{}, err
	}

	emp, err := s.employeeRepository.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return payroll.DeductionResponse{}, err
	}
	if emp.CompanyID != companyID {
		return payroll.DeductionResponse{}, employee.ErrEmployeeNotFound
	}

	d, err := s.compute(ctx, emp, req.Year, req.Month, req.PerDayRate)
	if err != nil {
		return payroll.DeductionResponse{}, err
	}
	return payroll.NewDeductionResponse(d), nil
}

func (s *DeductionServiceImpl) compute(ctx context.Context, emp employee.Employee, year, month int, override *decimal.Decimal) (payroll.LOPDeduction, error) {
	var rate decimal.Decimal
	switch {
	case override != nil:
		rate = *override
	case emp.BaseSalary != nil:
		rate = s.policy.PerDayRate(*emp.BaseSalary)
	default:
		return payroll.LOPDeduction{}, payroll.ErrEmployeeHasNoBaseSalary
	}

	ms, err := s.summarizer.Summarize(ctx, emp.CompanyID, emp.ID, summary.MonthRequest{Month: month, Year: year})
	if err != nil {
		return payroll.LOPDeduction{}, fmt.Errorf("failed to summarize month: %w", err)
	}

	return payroll.ComputeDeduction(emp.ID, year, month, ms.TotalLOP, ms.UnpaidLeaves, rate, s.policy), nil
}

// PostDeductions implements payroll.DeductionService. One employee failing
// does not stop the others.
func (s *DeductionServiceImpl) PostDeductions(ctx context.Context, companyID string, req payroll.PostDeductionsRequest) (payroll.PostDeductionsResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PostDeductionsResponse{}, err
	}

	employees, err := s.employeeRepository.GetActiveByCompanyID(ctx, companyID)
	if err != nil {
		return payroll.PostDeductionsResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	posted := make([]*payroll.LOPDeduction, len(employees))
	resp := payroll.PostDeductionsResponse{
		Year:     req.Year,
		Month:    req.Month,
		Posted:   []payroll.DeductionResponse{},
		Failures: []payroll.PostFailure{},
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, emp := range employees {
		g.Go(func() error {
			d, err := s.compute(ctx, emp, req.Year, req.Month, nil)
			if err == nil {
				d, err = s.DeductionRepository.Upsert(ctx, d)
			}
			if err != nil {
				slog.WarnContext(ctx, "failed to post lop deduction",
					"employee_id", emp.ID,
					"year", req.Year,
					"month", req.Month,
					"error", err,
				)
				mu.Lock()
				resp.Failures = append(resp.Failures, payroll.PostFailure{EmployeeID: emp.ID, Error: err.Error()})
				mu.Unlock()
				return nil
			}
			posted[i] = &d
			return nil
		})
	}
	_ = g.Wait()

	total := decimal.Zero
	for _, d := range posted {
		if d == nil {
			continue
		}
		resp.Posted = append(resp.Posted, payroll.NewDeductionResponse(*d))
		total = total.Add(d.Amount)
	}
	resp.Failed = len(resp.Failures)
	resp.TotalValue = total

	slog.InfoContext(ctx, "lop deductions posted",
		"company_id", companyID,
		"period", time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
		"posted", len(resp.Posted),
		"failed", resp.Failed,
	)
	return resp, nil
}
