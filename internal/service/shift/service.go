package shift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
)

type shiftServiceImpl struct {
	*Resolver
	shift.ShiftRepository
	assignmentRepository shift.AssignmentRepository
	employeeRepository   employee.EmployeeRepository
	reclassifier         attendance.Reclassifier
	clock                clock.Clock
}

// CreateShift implements shift.ShiftService.
func (s *shiftServiceImpl) CreateShift(ctx context.Context, companyID string, req shift.CreateShiftRequest) (shift.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}

	start, _ := shift.ParseTimeOfDay(req.StartTime)
	end, _ := shift.ParseTimeOfDay(req.EndTime)

	created, err := s.ShiftRepository.Create(ctx, shift.Shift{
		CompanyID:           companyID,
		Name:                strings.TrimSpace(req.Name),
		StartTime:           start,
		EndTime:             end,
		DefaultGraceMinutes: *req.DefaultGraceMinutes,
	})
	if err != nil {
		if errors.Is(err, shift.ErrShiftNameExists) {
			return shift.ShiftResponse{}, err
		}
		return shift.ShiftResponse{}, fmt.Errorf("failed to create shift: %w", err)
	}
	return shift.NewShiftResponse(created), nil
}

// GetShift implements shift.ShiftService.
func (s *shiftServiceImpl) GetShift(ctx context.Context, companyID, id string) (shift.ShiftResponse, error) {
	found, err := s.ShiftRepository.GetByID(ctx, id, companyID)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	return shift.NewShiftResponse(found), nil
}

// ListShifts implements shift.ShiftService.
func (s *shiftServiceImpl) ListShifts(ctx context.Context, companyID string) ([]shift.ShiftResponse, error) {
	shifts, err := s.ShiftRepository.List(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}

	responses := make([]shift.ShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		responses = append(responses, shift.NewShiftResponse(sh))
	}
	return responses, nil
}

// UpdateShift implements shift.ShiftService. Start and end times are frozen
// once any assignment references the preset, since stored days were
// classified against them.
func (s *shiftServiceImpl) UpdateShift(ctx context.Context, companyID string, req shift.UpdateShiftRequest) (shift.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}

	current, err := s.ShiftRepository.GetByID(ctx, req.ID, companyID)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	if req.ChangesTimes(current) {
		referenced, err := s.ShiftRepository.IsReferenced(ctx, current.ID)
		if err != nil {
			return shift.ShiftResponse{}, fmt.Errorf("failed to check shift usage: %w", err)
		}
		if referenced {
			return shift.ShiftResponse{}, shift.ErrShiftTimesImmutable
		}
	}

	updated := current
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.StartTime != nil {
		updated.StartTime, _ = shift.ParseTimeOfDay(*req.StartTime)
	}
	if req.EndTime != nil {
		updated.EndTime, _ = shift.ParseTimeOfDay(*req.EndTime)
	}
	if req.DefaultGraceMinutes != nil {
		updated.DefaultGraceMinutes = *req.DefaultGraceMinutes
	}
	if updated.StartTime == updated.EndTime {
		return shift.ShiftResponse{}, shift.ErrInvalidShiftTimes
	}

	saved, err := s.ShiftRepository.Update(ctx, updated)
	if err != nil {
		if errors.Is(err, shift.ErrShiftNameExists) || errors.Is(err, shift.ErrShiftNotFound) {
			return shift.ShiftResponse{}, err
		}
		return shift.ShiftResponse{}, fmt.Errorf("failed to update shift: %w", err)
	}
	return shift.NewShiftResponse(saved), nil
}

// DeleteShift implements shift.ShiftService. Presets are soft-deleted so that
// existing assignments keep resolving.
func (s *shiftServiceImpl) DeleteShift(ctx context.Context, companyID, id string) error {
	return s.ShiftRepository.SoftDelete(ctx, id, companyID)
}

func (s *shiftServiceImpl) companyEmployee(ctx context.Context, companyID, employeeID string) error {
	emp, err := s.employeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if emp.CompanyID != companyID {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// CreateAssignment implements shift.ShiftService.
func (s *shiftServiceImpl) CreateAssignment(ctx context.Context, companyID string, req shift.CreateAssignmentRequest) (shift.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.AssignmentResponse{}, err
	}
	if err := s.companyEmployee(ctx, companyID, req.EmployeeID); err != nil {
		return shift.AssignmentResponse{}, err
	}
	preset, err := s.ShiftRepository.GetByID(ctx, req.ShiftID, companyID)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}

	from, _ := clock.ParseDate(req.FromDate)
	a := shift.Assignment{
		EmployeeID:           req.EmployeeID,
		ShiftID:              preset.ID,
		FromDate:             from,
		GraceOverrideMinutes: req.GraceOverrideMinutes,
	}
	if req.ToDate != nil {
		to, _ := clock.ParseDate(*req.ToDate)
		a.ToDate = &to
	}

	s.warnOverlap(ctx, a)

	created, err := s.assignmentRepository.Create(ctx, a)
	if err != nil {
		return shift.AssignmentResponse{}, fmt.Errorf("failed to create shift assignment: %w", err)
	}

	s.reclassifyPast(ctx, created)
	return shift.NewAssignmentResponse(created, &preset), nil
}

// warnOverlap logs when the new interval intersects existing assignments.
// Overlaps are legal; the newest assignment wins.
func (s *shiftServiceImpl) warnOverlap(ctx context.Context, a shift.Assignment) {
	existing, err := s.assignmentRepository.ListByEmployee(ctx, a.EmployeeID)
	if err != nil {
		slog.WarnContext(ctx, "failed to check assignment overlap", "employee_id", a.EmployeeID, "error", err)
		return
	}

	var ids []string
	for _, e := range existing {
		if intervalsOverlap(a, e.Assignment) {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) > 0 {
		slog.WarnContext(ctx, "overlapping shift assignments",
			"employee_id", a.EmployeeID,
			"date", a.FromDate.Format(clock.DateLayout),
			"assignment_ids", ids,
		)
	}
}

func intervalsOverlap(a, b shift.Assignment) bool {
	if a.ToDate != nil && a.ToDate.Before(b.FromDate) {
		return false
	}
	if b.ToDate != nil && b.ToDate.Before(a.FromDate) {
		return false
	}
	return true
}

// reclassifyPast refreshes the stored days an assignment touches, up to
// today. Failures are logged; the nightly run repairs them.
func (s *shiftServiceImpl) reclassifyPast(ctx context.Context, a shift.Assignment) {
	to := clock.Today(s.clock)
	if a.ToDate != nil && a.ToDate.Before(to) {
		to = *a.ToDate
	}
	if to.Before(a.FromDate) {
		return
	}
	if err := s.reclassifier.ReclassifyRange(ctx, a.EmployeeID, a.FromDate, to); err != nil {
		slog.ErrorContext(ctx, "failed to reclassify after assignment change",
			"employee_id", a.EmployeeID,
			"assignment_id", a.ID,
			"error", err,
		)
	}
}

// ListAssignments implements shift.ShiftService.
func (s *shiftServiceImpl) ListAssignments(ctx context.Context, companyID, employeeID string) ([]shift.AssignmentResponse, error) {
	if employeeID == "" {
		return nil, shift.ErrEmployeeIDRequired
	}
	if err := s.companyEmployee(ctx, companyID, employeeID); err != nil {
		return nil, err
	}

	list, err := s.assignmentRepository.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift assignments: %w", err)
	}

	responses := make([]shift.AssignmentResponse, 0, len(list))
	for _, aw := range list {
		sh := aw.Shift
		responses = append(responses, shift.NewAssignmentResponse(aw.Assignment, &sh))
	}
	return responses, nil
}

// DeleteAssignment implements shift.ShiftService.
func (s *shiftServiceImpl) DeleteAssignment(ctx context.Context, companyID, id string) error {
	a, err := s.assignmentRepository.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.companyEmployee(ctx, companyID, a.EmployeeID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return shift.ErrAssignmentNotFound
		}
		return err
	}

	if err := s.assignmentRepository.Delete(ctx, id); err != nil {
		return err
	}

	s.reclassifyPast(ctx, a)
	return nil
}

// Resolve implements shift.ShiftService.
func (s *shiftServiceImpl) Resolve(ctx context.Context, companyID, employeeID string, date time.Time) (shift.ResolveResponse, error) {
	if employeeID == "" {
		return shift.ResolveResponse{}, shift.ErrEmployeeIDRequired
	}
	if err := s.companyEmployee(ctx, companyID, employeeID); err != nil {
		return shift.ResolveResponse{}, err
	}

	res, err := s.ResolveForEmployee(ctx, employeeID, date)
	if err != nil {
		return shift.ResolveResponse{}, err
	}

	resp := shift.ResolveResponse{EmployeeID: employeeID, Date: date.Format(clock.DateLayout)}
	if res != nil {
		sr := shift.NewShiftResponse(res.Shift)
		resp.Assigned = true
		resp.AssignmentID = res.AssignmentID
		resp.Shift = &sr
		resp.EffectiveGraceMinutes = res.EffectiveGraceMinutes
	}
	return resp, nil
}

func NewShiftService(
	shiftRepo shift.ShiftRepository,
	assignmentRepo shift.AssignmentRepository,
	employeeRepo employee.EmployeeRepository,
	reclassifier attendance.Reclassifier,
	clk clock.Clock,
) shift.ShiftService {
	return &shiftServiceImpl{
		Resolver:             NewResolver(assignmentRepo),
		ShiftRepository:      shiftRepo,
		assignmentRepository: assignmentRepo,
		employeeRepository:   employeeRepo,
		reclassifier:         reclassifier,
		clock:                clk,
	}
}
