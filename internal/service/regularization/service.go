package regularization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
)

type RegularizationServiceImpl struct {
	tx database.Transactor
	regularization.RequestRepository
	employeeRepository employee.EmployeeRepository
	holidayRepository  leave.HolidayRepository
	reclassifier       attendance.Reclassifier
	clock              clock.Clock
}

// Submit implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Submit(ctx context.Context, companyID, employeeID string, req regularization.SubmitRequest) (regularization.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return regularization.RequestResponse{}, err
	}

	emp, err := s.employeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		return regularization.RequestResponse{}, err
	}
	if emp.CompanyID != companyID {
		return regularization.RequestResponse{}, employee.ErrEmployeeNotFound
	}

	date, _ := clock.ParseDate(req.Date)
	if date.After(clock.Today(s.clock)) {
		return regularization.RequestResponse{}, regularization.ErrFutureDate
	}
	nonWorking, err := s.isNonWorkingDay(ctx, companyID, date)
	if err != nil {
		return regularization.RequestResponse{}, err
	}
	if nonWorking {
		return regularization.RequestResponse{}, regularization.ErrNonWorkingDay
	}

	var created regularization.Request
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		active, err := s.RequestRepository.HasActive(ctx, emp.ID, date)
		if err != nil {
			return fmt.Errorf("failed to check existing requests: %w", err)
		}
		if active {
			return regularization.ErrDuplicateActiveRequest
		}

		count, err := s.RequestRepository.CountInMonth(ctx, emp.ID, date.Year(), date.Month())
		if err != nil {
			return fmt.Errorf("failed to count monthly requests: %w", err)
		}

		created, err = s.RequestRepository.Create(ctx, regularization.Request{
			EmployeeID:       emp.ID,
			Date:             date,
			RequestedType:    regularization.RequestType(req.RequestedType),
			Reason:           strings.TrimSpace(req.Reason),
			FlaggedForReview: count >= regularization.MonthlySoftLimit,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, regularization.ErrDuplicateActiveRequest) {
			return regularization.RequestResponse{}, err
		}
		return regularization.RequestResponse{}, fmt.Errorf("failed to submit regularization: %w", err)
	}

	return regularization.NewRequestResponse(created), nil
}

func (s *RegularizationServiceImpl) isNonWorkingDay(ctx context.Context, companyID string, date time.Time) (bool, error) {
	if date.Weekday() == time.Sunday {
		return true, nil
	}
	holidays, err := s.holidayRepository.ListApplicable(ctx, companyID, date, date)
	if err != nil {
		return false, fmt.Errorf("failed to load holidays: %w", err)
	}
	return leave.FindHoliday(holidays, date) != nil, nil
}

// loadForCompany fetches a request and hides requests of other companies.
func (s *RegularizationServiceImpl) loadForCompany(ctx context.Context, companyID, requestID string, forUpdate bool) (regularization.Request, error) {
	var (
		req regularization.Request
		err error
	)
	if forUpdate {
		req, err = s.RequestRepository.GetByIDForUpdate(ctx, requestID)
	} else {
		req, err = s.RequestRepository.GetByID(ctx, requestID)
	}
	if err != nil {
		return regularization.Request{}, err
	}

	emp, err := s.employeeRepository.GetByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return regularization.Request{}, regularization.ErrRequestNotFound
		}
		return regularization.Request{}, err
	}
	if emp.CompanyID != companyID {
		return regularization.Request{}, regularization.ErrRequestNotFound
	}
	return req, nil
}

// Decide implements regularization.RegularizationService. Approval and the
// resulting reclassification commit together.
func (s *RegularizationServiceImpl) Decide(ctx context.Context, companyID, requestID, approverID string, decision regularization.DecideRequest) (regularization.RequestResponse, error) {
	if err := decision.Validate(); err != nil {
		return regularization.RequestResponse{}, err
	}

	var decided regularization.Request
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		req, err := s.loadForCompany(ctx, companyID, requestID, true)
		if err != nil {
			return err
		}
		if req.Status != regularization.StatusPending {
			return regularization.ErrNotPending
		}

		now := s.clock.Now()
		req.Status = decision.Status
		req.ApproverID = &approverID
		req.DecidedAt = &now
		req.RejectionReason = nil
		if decision.Status == regularization.StatusRejected {
			reason := strings.TrimSpace(*decision.RejectionReason)
			req.RejectionReason = &reason
		}

		if err := s.RequestRepository.Update(ctx, req); err != nil {
			return err
		}
		if req.Status == regularization.StatusApproved {
			if _, err := s.reclassifier.ClassifyAndPersist(ctx, req.EmployeeID, req.Date); err != nil {
				return fmt.Errorf("failed to apply regularization: %w", err)
			}
		}
		decided = req
		return nil
	})
	if err != nil {
		return regularization.RequestResponse{}, err
	}

	return regularization.NewRequestResponse(decided), nil
}

// Revert implements regularization.RegularizationService. A reverted approval
// reclassifies the day from its other facts in the same transaction.
func (s *RegularizationServiceImpl) Revert(ctx context.Context, companyID, requestID string) (regularization.RequestResponse, error) {
	var reverted regularization.Request
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		req, err := s.loadForCompany(ctx, companyID, requestID, true)
		if err != nil {
			return err
		}
		if !req.IsTerminal() {
			return regularization.ErrNotTerminal
		}

		wasApproved := req.Status == regularization.StatusApproved
		req.Status = regularization.StatusPending
		req.ApproverID = nil
		req.RejectionReason = nil
		req.DecidedAt = nil

		if err := s.RequestRepository.Update(ctx, req); err != nil {
			return err
		}
		if wasApproved {
			if _, err := s.reclassifier.ClassifyAndPersist(ctx, req.EmployeeID, req.Date); err != nil {
				return fmt.Errorf("failed to reclassify reverted day: %w", err)
			}
		}
		reverted = req
		return nil
	})
	if err != nil {
		return regularization.RequestResponse{}, err
	}

	return regularization.NewRequestResponse(reverted), nil
}

// Delete implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Delete(ctx context.Context, companyID, requestID, employeeID string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		req, err := s.loadForCompany(ctx, companyID, requestID, true)
		if err != nil {
			return err
		}
		if employeeID != "" && req.EmployeeID != employeeID {
			return regularization.ErrUnauthorized
		}
		if req.Status != regularization.StatusPending {
			return regularization.ErrCannotDeleteProcessed
		}
		return s.RequestRepository.Delete(ctx, req.ID)
	})
}

// Get implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Get(ctx context.Context, companyID, requestID string) (regularization.RequestResponse, error) {
	req, err := s.loadForCompany(ctx, companyID, requestID, false)
	if err != nil {
		return regularization.RequestResponse{}, err
	}
	return regularization.NewRequestResponse(req), nil
}

// List implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) List(ctx context.Context, companyID string, filter regularization.Filter) ([]regularization.RequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	requests, err := s.RequestRepository.List(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list regularization requests: %w", err)
	}

	responses := make([]regularization.RequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, regularization.NewRequestResponse(r))
	}
	return responses, nil
}

func NewRegularizationService(
	tx database.Transactor,
	requestRepo regularization.RequestRepository,
	employeeRepo employee.EmployeeRepository,
	holidayRepo leave.HolidayRepository,
	reclassifier attendance.Reclassifier,
	clk clock.Clock,
) regularization.RegularizationService {
	return &RegularizationServiceImpl{
		tx:                 tx,
		RequestRepository:  requestRepo,
		employeeRepository: employeeRepo,
		holidayRepository:  holidayRepo,
		reclassifier:       reclassifier,
		clock:              clk,
	}
}
