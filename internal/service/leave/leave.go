package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
)

type LeaveServiceImpl struct {
	leave.RecordRepository
	allocationRepository leave.AllocationRepository
	employeeRepository   employee.EmployeeRepository
	reclassifier         attendance.Reclassifier
	clock                clock.Clock
}

func (l *LeaveServiceImpl) companyEmployee(ctx context.Context, companyID, employeeID string) error {
	emp, err := l.employeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if emp.CompanyID != companyID {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// RecordLeave implements leave.LeaveService. Leave approval happens in the
// leave module; this records the approved fact and reclassifies elapsed days.
func (l *LeaveServiceImpl) RecordLeave(ctx context.Context, companyID string, req leave.RecordLeaveRequest) (leave.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.RecordResponse{}, err
	}
	if err := l.companyEmployee(ctx, companyID, req.EmployeeID); err != nil {
		return leave.RecordResponse{}, err
	}

	start, _ := clock.ParseDate(req.StartDate)
	end, _ := clock.ParseDate(req.EndDate)

	overlapping, err := l.RecordRepository.ListApprovedOverlapping(ctx, req.EmployeeID, start, end)
	if err != nil {
		return leave.RecordResponse{}, fmt.Errorf("failed to check leave overlap: %w", err)
	}
	if len(overlapping) > 0 {
		return leave.RecordResponse{}, leave.ErrLeaveOverlap
	}

	var reason *string
	if req.Reason != nil {
		r := strings.TrimSpace(*req.Reason)
		reason = &r
	}

	created, err := l.RecordRepository.Create(ctx, leave.Record{
		EmployeeID: req.EmployeeID,
		StartDate:  start,
		EndDate:    end,
		LeaveType:  leave.LeaveType(req.LeaveType),
		Reason:     reason,
	})
	if err != nil {
		return leave.RecordResponse{}, fmt.Errorf("failed to record leave: %w", err)
	}

	l.reclassifyElapsed(ctx, created)
	return leave.NewRecordResponse(created), nil
}

// CancelLeave implements leave.LeaveService.
func (l *LeaveServiceImpl) CancelLeave(ctx context.Context, companyID, id string) error {
	rec, err := l.RecordRepository.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := l.companyEmployee(ctx, companyID, rec.EmployeeID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return leave.ErrLeaveNotFound
		}
		return err
	}
	if rec.Status == leave.RecordStatusCancelled {
		return leave.ErrLeaveAlreadyCancelled
	}

	if err := l.RecordRepository.Cancel(ctx, id); err != nil {
		return err
	}

	l.reclassifyElapsed(ctx, rec)
	return nil
}

// reclassifyElapsed refreshes leave days up to today. Later days pick the
// leave up when they are classified.
func (l *LeaveServiceImpl) reclassifyElapsed(ctx context.Context, rec leave.Record) {
	to := clock.Today(l.clock)
	if rec.EndDate.Before(to) {
		to = rec.EndDate
	}
	if to.Before(rec.StartDate) {
		return
	}
	if err := l.reclassifier.ReclassifyRange(ctx, rec.EmployeeID, rec.StartDate, to); err != nil {
		slog.ErrorContext(ctx, "failed to reclassify leave days",
			"employee_id", rec.EmployeeID,
			"leave_id", rec.ID,
			"error", err,
		)
	}
}

// ListLeaves implements leave.LeaveService.
func (l *LeaveServiceImpl) ListLeaves(ctx context.Context, companyID, employeeID string, year int) ([]leave.RecordResponse, error) {
	if err := l.companyEmployee(ctx, companyID, employeeID); err != nil {
		return nil, err
	}

	records, err := l.RecordRepository.ListByEmployee(ctx, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaves: %w", err)
	}

	responses := make([]leave.RecordResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, leave.NewRecordResponse(r))
	}
	return responses, nil
}

// GetAllocation implements leave.LeaveService.
func (l *LeaveServiceImpl) GetAllocation(ctx context.Context, companyID, employeeID string, year int) (leave.AllocationResponse, error) {
	if err := l.companyEmployee(ctx, companyID, employeeID); err != nil {
		return leave.AllocationResponse{}, err
	}

	a, err := l.allocationRepository.Get(ctx, employeeID, year)
	if err != nil {
		return leave.AllocationResponse{}, err
	}
	return leave.NewAllocationResponse(a), nil
}

// UpsertAllocation implements leave.LeaveService.
func (l *LeaveServiceImpl) UpsertAllocation(ctx context.Context, companyID string, req leave.UpsertAllocationRequest) (leave.AllocationResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.AllocationResponse{}, err
	}
	if err := l.companyEmployee(ctx, companyID, req.EmployeeID); err != nil {
		return leave.AllocationResponse{}, err
	}

	saved, err := l.allocationRepository.Upsert(ctx, leave.Allocation{
		EmployeeID: req.EmployeeID,
		Year:       req.Year,
		Casual:     req.Casual,
		Sick:       req.Sick,
		Earned:     req.Earned,
		Unpaid:     req.Unpaid,
	})
	if err != nil {
		return leave.AllocationResponse{}, fmt.Errorf("failed to save leave allocation: %w", err)
	}
	return leave.NewAllocationResponse(saved), nil
}

func NewLeaveService(
	recordRepo leave.RecordRepository,
	allocationRepo leave.AllocationRepository,
	employeeRepo employee.EmployeeRepository,
	reclassifier attendance.Reclassifier,
	clk clock.Clock,
) leave.LeaveService {
	return &LeaveServiceImpl{
		RecordRepository:     recordRepo,
		allocationRepository: allocationRepo,
		employeeRepository:   employeeRepo,
		reclassifier:         reclassifier,
		clock:                clk,
	}
}

