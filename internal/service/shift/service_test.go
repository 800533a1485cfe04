package shift

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const companyID = "company-1"

type reclassifyCall struct {
	EmployeeID string
	From, To   string
}

type recordingReclassifier struct {
	mu    sync.Mutex
	calls []reclassifyCall
}

func (r *recordingReclassifier) ClassifyAndPersist(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	return nil, nil
}

func (r *recordingReclassifier) ReclassifyRange(ctx context.Context, employeeID string, from, to time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, reclassifyCall{employeeID, from.Format(clock.DateLayout), to.Format(clock.DateLayout)})
	return nil
}

func (r *recordingReclassifier) Recalculate(ctx context.Context, companyID string, req attendance.RecalculateRequest) (attendance.RecalculateResult, error) {
	return attendance.RecalculateResult{}, nil
}

type fixture struct {
	svc          shift.ShiftService
	shifts       *servicetest.ShiftRepo
	assignments  *servicetest.AssignmentRepo
	reclassifier *recordingReclassifier
}

// Today is 2024-03-06.
func newFixture() *fixture {
	f := &fixture{shifts: servicetest.NewShiftRepo(), reclassifier: &recordingReclassifier{}}
	f.assignments = servicetest.NewAssignmentRepo(f.shifts)
	employees := servicetest.NewEmployeeRepo(
		employee.Employee{ID: "emp-1", CompanyID: companyID, EmployeeCode: "E001"},
		employee.Employee{ID: "emp-x", CompanyID: "company-2", EmployeeCode: "X001"},
	)
	clk := clock.Fixed{At: time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)}
	f.svc = NewShiftService(f.shifts, f.assignments, employees, f.reclassifier, clk)
	return f
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func (f *fixture) createShift(t *testing.T, name, start, end string, grace int) shift.ShiftResponse {
	t.Helper()
	resp, err := f.svc.CreateShift(context.Background(), companyID, shift.CreateShiftRequest{
		Name: name, StartTime: start, EndTime: end, DefaultGraceMinutes: intPtr(grace),
	})
	require.NoError(t, err)
	return resp
}

func TestCreateShift(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	night := f.createShift(t, "Night", "22:00", "06:00", 15)
	assert.True(t, night.Overnight)
	assert.Equal(t, 8.0, night.SpanHours)

	_, err := f.svc.CreateShift(ctx, companyID, shift.CreateShiftRequest{Name: "Night", StartTime: "21:00", EndTime: "05:00", DefaultGraceMinutes: intPtr(0)})
	assert.ErrorIs(t, err, shift.ErrShiftNameExists)

	_, err = f.svc.CreateShift(ctx, companyID, shift.CreateShiftRequest{Name: "Bad", StartTime: "25:00", EndTime: "05:00"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "start_time")
	assert.Contains(t, verrs.ToMap(), "default_grace_minutes")
}

func TestUpdateShift_TimesFrozenOnceAssigned(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	general := f.createShift(t, "General", "09:00", "18:00", 10)

	updated, err := f.svc.UpdateShift(ctx, companyID, shift.UpdateShiftRequest{ID: general.ID, StartTime: strPtr("09:30")})
	require.NoError(t, err)
	assert.Equal(t, "09:30", updated.StartTime.String())

	_, err = f.svc.CreateAssignment(ctx, companyID, shift.CreateAssignmentRequest{EmployeeID: "emp-1", ShiftID: general.ID, FromDate: "2024-04-01"})
	require.NoError(t, err)

	_, err = f.svc.UpdateShift(ctx, companyID, shift.UpdateShiftRequest{ID: general.ID, EndTime: strPtr("19:00")})
	assert.ErrorIs(t, err, shift.ErrShiftTimesImmutable)

	renamed, err := f.svc.UpdateShift(ctx, companyID, shift.UpdateShiftRequest{ID: general.ID, Name: strPtr("Day"), StartTime: strPtr("09:30"), DefaultGraceMinutes: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, "Day", renamed.Name)
	assert.Equal(t, 5, renamed.DefaultGraceMinutes)
}

func TestCreateAssignment_ReclassifiesPastDaysOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	general := f.createShift(t, "General", "09:00", "18:00", 10)

	_, err := f.svc.CreateAssignment(ctx, companyID, shift.CreateAssignmentRequest{EmployeeID: "emp-1", ShiftID: general.ID, FromDate: "2024-03-01"})
	require.NoError(t, err)
	_, err = f.svc.CreateAssignment(ctx, companyID, shift.CreateAssignmentRequest{EmployeeID: "emp-1", ShiftID: general.ID, FromDate: "2024-02-01", ToDate: strPtr("2024-02-10")})
	require.NoError(t, err)
	_, err = f.svc.CreateAssignment(ctx, companyID, shift.CreateAssignmentRequest{EmployeeID: "emp-1", ShiftID: general.ID, FromDate: "2024-03-10"})
	require.NoError(t, err)

	assert.Equal(t, []reclassifyCall{
		{"emp-1", "2024-03-01", "2024-03-06"},
		{"emp-1", "2024-02-01", "2024-02-10"},
	}, f.reclassifier.calls)
}

func TestCreateAssignment_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	general := f.createShift(t, "General", "09:00", "18:00", 10)

	_, err := f.svc.CreateAssignment(ctx, companyID, shift.CreateAssignmentRequest{EmployeeID: "emp-x", ShiftID: general.ID, FromDate: "2024-03-01"})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = f.svc.CreateAssignment(ctx, companyID, shift.CreateAssignmentRequest{EmployeeID: "emp-1", ShiftID: "missing", FromDate: "2024-03-01"})
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)

	_, err = f.svc.CreateAssignment(ctx, companyID, shift.CreateAssignmentRequest{EmployeeID: "emp-1", ShiftID: general.ID, FromDate: "2024-03-10", ToDate: strPtr("2024-03-01")})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, shift.ErrInvalidAssignRange.Error(), verrs.ToMap()["to_date"])
}

func TestResolve_NewestAssignmentWins(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	general := f.createShift(t, "General", "09:00", "18:00", 10)
	night := f.createShift(t, "Night", "22:00", "06:00", 15)

	_, err := f.svc.CreateAssignment(ctx, companyID, shift.CreateAssignmentRequest{EmployeeID: "emp-1", ShiftID: general.ID, FromDate: "2024-01-01"})
	require.NoError(t, err)
	override, err := f.svc.CreateAssignment(ctx, companyID, shift.CreateAssignmentRequest{
		EmployeeID: "emp-1", ShiftID: night.ID, FromDate: "2024-03-04", ToDate: strPtr("2024-03-08"), GraceOverrideMinutes: intPtr(0),
	})
	require.NoError(t, err)

	resp, err := f.svc.Resolve(ctx, companyID, "emp-1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, resp.Assigned)
	assert.Equal(t, override.ID, resp.AssignmentID)
	assert.Equal(t, "Night", resp.Shift.Name)
	assert.Equal(t, 0, resp.EffectiveGraceMinutes)

	resp, err = f.svc.Resolve(ctx, companyID, "emp-1", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "General", resp.Shift.Name)
	assert.Equal(t, 10, resp.EffectiveGraceMinutes)

	resp, err = f.svc.Resolve(ctx, companyID, "emp-1", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, resp.Assigned)
	assert.Nil(t, resp.Shift)
}

func TestDeleteShift_KeepsAssignmentsResolving(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	general := f.createShift(t, "General", "09:00", "18:00", 10)
	_, err := f.svc.CreateAssignment(ctx, companyID, shift.CreateAssignmentRequest{EmployeeID: "emp-1", ShiftID: general.ID, FromDate: "2024-03-01"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteShift(ctx, companyID, general.ID))
	_, err = f.svc.GetShift(ctx, companyID, general.ID)
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)

	res, err := f.svc.ResolveForEmployee(ctx, "emp-1", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, general.ID, res.Shift.ID)
}

func TestDeleteAssignment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	general := f.createShift(t, "General", "09:00", "18:00", 10)
	a, err := f.svc.CreateAssignment(ctx, companyID, shift.CreateAssignmentRequest{EmployeeID: "emp-1", ShiftID: general.ID, FromDate: "2024-03-02"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteAssignment(ctx, "company-2", a.ID), shift.ErrAssignmentNotFound)

	require.NoError(t, f.svc.DeleteAssignment(ctx, companyID, a.ID))
	assert.Len(t, f.reclassifier.calls, 2)
	assert.Equal(t, reclassifyCall{"emp-1", "2024-03-02", "2024-03-06"}, f.reclassifier.calls[1])

	list, err := f.svc.ListAssignments(ctx, companyID, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
