package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/servicetest"
	shiftsvc "github.com/cmlabs-hris/attendance-engine-go/internal/service/shift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+1800)

const companyID = "company-1"

type fixture struct {
	svc         *AttendanceServiceImpl
	tx          *servicetest.Transactor
	records     *servicetest.AttendanceRepo
	punches     *servicetest.PunchRepo
	shifts      *servicetest.ShiftRepo
	assignments *servicetest.AssignmentRepo
	leaves      *servicetest.LeaveRecordRepo
	holidays    *servicetest.HolidayRepo
	regs        *servicetest.RegularizationRepo
	employees   *servicetest.EmployeeRepo
	cache       *servicetest.SummaryCache
}

// Wednesday 2024-03-06 10:00 IST.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tx:       &servicetest.Transactor{},
		records:  servicetest.NewAttendanceRepo(),
		punches:  &servicetest.PunchRepo{},
		shifts:   servicetest.NewShiftRepo(),
		leaves:   servicetest.NewLeaveRecordRepo(),
		holidays: servicetest.NewHolidayRepo(),
		employees: servicetest.NewEmployeeRepo(
			employee.Employee{ID: "emp-1", CompanyID: companyID, EmployeeCode: "E001", FullName: "Asha Rao"},
			employee.Employee{ID: "emp-2", CompanyID: companyID, EmployeeCode: "E002", FullName: "Ravi Kumar"},
			employee.Employee{ID: "emp-x", CompanyID: "company-2", EmployeeCode: "X001", FullName: "Other Co"},
		),
		cache: servicetest.NewSummaryCache(),
	}
	f.assignments = servicetest.NewAssignmentRepo(f.shifts)
	f.regs = servicetest.NewRegularizationRepo(f.employees)

	clk := clock.Fixed{At: time.Date(2024, 3, 6, 10, 0, 0, 0, ist), Loc: ist}
	f.svc = NewAttendanceService(f.tx, f.records, f.punches, shiftsvc.NewResolver(f.assignments), f.leaves, f.holidays, f.regs, f.employees,
		f.cache, clk, Options{Policy: attendance.DefaultPolicy(), Concurrency: 2})
	return f
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) punch(t *testing.T, employeeID string, at time.Time) {
	t.Helper()
	_, err := f.punches.Insert(context.Background(), punch.Event{EmployeeID: employeeID, PunchedAt: at})
	require.NoError(t, err)
}

func (f *fixture) assignGeneralShift(t *testing.T, employeeID string) {
	t.Helper()
	ctx := context.Background()
	s, err := f.shifts.Create(ctx, shift.Shift{CompanyID: companyID, Name: "General", StartTime: 9 * 60, EndTime: 18 * 60, DefaultGraceMinutes: 10})
	require.NoError(t, err)
	_, err = f.assignments.Create(ctx, shift.Assignment{EmployeeID: employeeID, ShiftID: s.ID, FromDate: day(1)})
	require.NoError(t, err)
}

func TestClassifyAndPersist_LateArrival(t *testing.T) {
	f := newFixture(t)
	f.assignGeneralShift(t, "emp-1")
	f.punch(t, "emp-1", time.Date(2024, 3, 4, 9, 15, 0, 0, ist))
	f.punch(t, "emp-1", time.Date(2024, 3, 4, 18, 5, 0, 0, ist))

	rec, err := f.svc.ClassifyAndPersist(context.Background(), "emp-1", day(4))
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, attendance.StatusLate, rec.Status)
	require.NotNil(t, rec.WorkHours)
	assert.InDelta(t, 8.83, *rec.WorkHours, 0.001)
	assert.Equal(t, attendance.StatusLate, f.records.Status("emp-1", day(4)))
	assert.Equal(t, 1, f.records.Locks)
	assert.Contains(t, f.cache.Invalidated, "emp-1|2024-03")
}

func TestClassifyAndPersist_InvalidatesSummaryAfterOuterCommit(t *testing.T) {
	f := newFixture(t)
	f.assignGeneralShift(t, "emp-1")
	f.punch(t, "emp-1", time.Date(2024, 3, 4, 9, 0, 0, 0, ist))

	err := f.tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		_, err := f.svc.ClassifyAndPersist(ctx, "emp-1", day(4))
		require.NoError(t, err)
		assert.Empty(t, f.cache.Invalidated, "cache is untouched until the outer commit")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"emp-1|2024-03"}, f.cache.Invalidated)

	rollback := errors.New("rolled back")
	err = f.tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		_, err := f.svc.ClassifyAndPersist(ctx, "emp-1", day(5))
		require.NoError(t, err)
		return rollback
	})
	assert.ErrorIs(t, err, rollback)
	assert.Equal(t, []string{"emp-1|2024-03"}, f.cache.Invalidated, "a rolled back transaction leaves the cache alone")
}

func TestClassifyAndPersist_PunchOutsideLocalDayIgnored(t *testing.T) {
	f := newFixture(t)
	// 2024-03-04 23:50 IST is still the 4th locally; 00:10 IST belongs to the 5th.
	f.punch(t, "emp-1", time.Date(2024, 3, 4, 23, 50, 0, 0, ist))
	f.punch(t, "emp-1", time.Date(2024, 3, 5, 0, 10, 0, 0, ist))

	rec, err := f.svc.ClassifyAndPersist(context.Background(), "emp-1", day(4))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.StatusHalfDay, rec.Status)
	assert.Nil(t, rec.CheckOut)
}

func TestClassifyAndPersist_TodayWithoutPunchesIsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.records.Upsert(ctx, attendance.Record{EmployeeID: "emp-1", Date: day(6), Status: attendance.StatusAbsent}))

	rec, err := f.svc.ClassifyAndPersist(ctx, "emp-1", day(6))
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, attendance.Status(""), f.records.Status("emp-1", day(6)))
}

func TestClassifyAndPersist_PastDayWithoutPunchesIsAbsent(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.ClassifyAndPersist(context.Background(), "emp-1", day(5))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.StatusAbsent, rec.Status)
}

func TestClassifyAndPersist_FactsTakePrecedence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.holidays.Create(ctx, leave.Holiday{CompanyID: companyID, Date: day(4), Name: "Maha Shivaratri"})
	require.NoError(t, err)
	_, err = f.leaves.Create(ctx, leave.Record{EmployeeID: "emp-1", StartDate: day(4), EndDate: day(5), LeaveType: leave.LeaveTypeSick})
	require.NoError(t, err)
	f.punch(t, "emp-1", time.Date(2024, 3, 4, 9, 0, 0, 0, ist))

	rec, err := f.svc.ClassifyAndPersist(ctx, "emp-1", day(4))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusHoliday, rec.Status)

	rec, err = f.svc.ClassifyAndPersist(ctx, "emp-1", day(5))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLeave, rec.Status)
	require.NotNil(t, rec.LeaveType)
	assert.Equal(t, "SICK", *rec.LeaveType)
}

func TestClassifyAndPersist_ApprovedRegularizationOverrides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.regs.Create(ctx, regularization.Request{EmployeeID: "emp-1", Date: day(5), RequestedType: regularization.TypeMissedPunchIn, Reason: "reader down"})
	require.NoError(t, err)
	req.Status = regularization.StatusApproved
	require.NoError(t, f.regs.Update(ctx, req))

	rec, err := f.svc.ClassifyAndPersist(ctx, "emp-1", day(5))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusRegularized, rec.Status)
}

func TestClassifyAndPersist_UnknownEmployee(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ClassifyAndPersist(context.Background(), "ghost", day(4))
	assert.ErrorIs(t, err, attendance.ErrEmployeeNotFound)
	assert.Equal(t, 0, f.tx.Calls)
}

func TestClassifyAndPersist_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assignGeneralShift(t, "emp-1")
	f.punch(t, "emp-1", time.Date(2024, 3, 4, 9, 0, 0, 0, ist))
	f.punch(t, "emp-1", time.Date(2024, 3, 4, 18, 0, 0, 0, ist))

	first, err := f.svc.ClassifyAndPersist(ctx, "emp-1", day(4))
	require.NoError(t, err)
	second, err := f.svc.ClassifyAndPersist(ctx, "emp-1", day(4))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, attendance.StatusPresent, second.Status)
	assert.Len(t, f.records.Records, 1)
}

func TestRecalculate_CollectsPerEmployeeFailures(t *testing.T) {
	f := newFixture(t)
	f.records.FailFor["emp-2"] = errors.New("disk full")

	result, err := f.svc.Recalculate(context.Background(), companyID, attendance.RecalculateRequest{
		DateRange: attendance.DateRange{StartDate: "2024-03-04", EndDate: "2024-03-05"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "emp-2", result.Failures[0].EmployeeID)
	assert.Contains(t, result.Failures[0].Error, "disk full")

	assert.Equal(t, attendance.StatusAbsent, f.records.Status("emp-1", day(4)))
	assert.Equal(t, attendance.StatusAbsent, f.records.Status("emp-1", day(5)))
}

func TestRecalculate_RejectsForeignEmployees(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Recalculate(context.Background(), companyID, attendance.RecalculateRequest{
		DateRange:   attendance.DateRange{StartDate: "2024-03-04", EndDate: "2024-03-04"},
		EmployeeIDs: []string{"emp-1", "emp-x"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "emp-x", result.Failures[0].EmployeeID)
}

func TestRecalculate_InvalidRange(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Recalculate(context.Background(), companyID, attendance.RecalculateRequest{
		DateRange: attendance.DateRange{StartDate: "2024-03-05", EndDate: "2024-03-04"},
	})
	assert.Error(t, err)
}

func TestListRecords_InfersUnrecordedDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.records.Upsert(ctx, attendance.Record{EmployeeID: "emp-1", Date: day(4), Status: attendance.StatusPresent}))

	// Sat 2nd .. Thu 7th; today is the 6th.
	resp, err := f.svc.ListRecords(ctx, companyID, "emp-1", attendance.DateRange{StartDate: "2024-03-02", EndDate: "2024-03-07"})
	require.NoError(t, err)

	got := make(map[string]attendance.Status)
	inferred := make(map[string]bool)
	for _, r := range resp {
		got[r.Date] = r.Status
		inferred[r.Date] = r.Inferred
	}
	assert.Equal(t, attendance.StatusAbsent, got["2024-03-02"])
	assert.Equal(t, attendance.StatusHoliday, got["2024-03-03"])
	assert.Equal(t, attendance.StatusPresent, got["2024-03-04"])
	assert.False(t, inferred["2024-03-04"])
	assert.Equal(t, attendance.StatusAbsent, got["2024-03-05"])
	assert.True(t, inferred["2024-03-05"])
	assert.NotContains(t, got, "2024-03-06")
	assert.NotContains(t, got, "2024-03-07")
}

func TestGetDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.GetDay(ctx, companyID, "emp-1", day(5))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, resp.Status)
	assert.True(t, resp.Inferred)

	_, err = f.svc.GetDay(ctx, companyID, "emp-1", day(7))
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)

	_, err = f.svc.GetDay(ctx, companyID, "emp-x", day(5))
	assert.ErrorIs(t, err, attendance.ErrEmployeeNotFound)
}
