package leave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const companyID = "company-1"

type recordingReclassifier struct {
	mu      sync.Mutex
	ranges  [][3]string
	recalcs []string
	failAll error
}

func (r *recordingReclassifier) ClassifyAndPersist(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	return nil, nil
}

func (r *recordingReclassifier) ReclassifyRange(ctx context.Context, employeeID string, from, to time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranges = append(r.ranges, [3]string{employeeID, from.Format(clock.DateLayout), to.Format(clock.DateLayout)})
	return r.failAll
}

func (r *recordingReclassifier) Recalculate(ctx context.Context, companyID string, req attendance.RecalculateRequest) (attendance.RecalculateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recalcs = append(r.recalcs, req.StartDate+".."+req.EndDate)
	return attendance.RecalculateResult{Failures: []attendance.RecalculateFailure{}}, r.failAll
}

type fixture struct {
	leaves       leave.LeaveService
	holidays     leave.HolidayService
	records      *servicetest.LeaveRecordRepo
	allocations  *servicetest.AllocationRepo
	holidayRepo  *servicetest.HolidayRepo
	cache        *servicetest.SummaryCache
	reclassifier *recordingReclassifier
}

// Today is Wednesday 2024-03-06.
func newFixture() *fixture {
	f := &fixture{
		records:      servicetest.NewLeaveRecordRepo(),
		allocations:  servicetest.NewAllocationRepo(),
		holidayRepo:  servicetest.NewHolidayRepo(),
		cache:        servicetest.NewSummaryCache(),
		reclassifier: &recordingReclassifier{},
	}
	employees := servicetest.NewEmployeeRepo(
		employee.Employee{ID: "emp-1", CompanyID: companyID, EmployeeCode: "E001"},
		employee.Employee{ID: "emp-x", CompanyID: "company-2", EmployeeCode: "X001"},
	)
	clk := clock.Fixed{At: time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)}
	f.leaves = NewLeaveService(f.records, f.allocations, employees, f.reclassifier, clk)
	f.holidays = NewHolidayService(f.holidayRepo, employees, f.reclassifier, f.cache, clk)
	return f
}

func sickLeave(start, end string) leave.RecordLeaveRequest {
	return leave.RecordLeaveRequest{EmployeeID: "emp-1", StartDate: start, EndDate: end, LeaveType: "SICK"}
}

func TestRecordLeave_ReclassifiesElapsedDays(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.leaves.RecordLeave(ctx, companyID, sickLeave("2024-03-04", "2024-03-08"))
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", resp.Status)
	assert.Equal(t, "SICK", resp.LeaveType)

	assert.Equal(t, [][3]string{{"emp-1", "2024-03-04", "2024-03-06"}}, f.reclassifier.ranges)
}

func TestRecordLeave_FutureLeaveSkipsReclassify(t *testing.T) {
	f := newFixture()

	_, err := f.leaves.RecordLeave(context.Background(), companyID, sickLeave("2024-03-11", "2024-03-12"))
	require.NoError(t, err)
	assert.Empty(t, f.reclassifier.ranges)
}

func TestRecordLeave_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.leaves.RecordLeave(ctx, companyID, sickLeave("2024-03-08", "2024-03-04"))
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))

	foreign := sickLeave("2024-03-04", "2024-03-04")
	foreign.EmployeeID = "emp-x"
	_, err = f.leaves.RecordLeave(ctx, companyID, foreign)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = f.leaves.RecordLeave(ctx, companyID, sickLeave("2024-03-04", "2024-03-05"))
	require.NoError(t, err)
	_, err = f.leaves.RecordLeave(ctx, companyID, sickLeave("2024-03-05", "2024-03-07"))
	assert.ErrorIs(t, err, leave.ErrLeaveOverlap)
}

func TestRecordLeave_ReclassifyFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.reclassifier.failAll = errors.New("db down")

	_, err := f.leaves.RecordLeave(context.Background(), companyID, sickLeave("2024-03-01", "2024-03-01"))
	assert.NoError(t, err)
	assert.Len(t, f.records.Records, 1)
}

func TestCancelLeave(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.leaves.RecordLeave(ctx, companyID, sickLeave("2024-03-01", "2024-03-02"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.leaves.CancelLeave(ctx, "company-2", resp.ID), leave.ErrLeaveNotFound)

	require.NoError(t, f.leaves.CancelLeave(ctx, companyID, resp.ID))
	assert.Equal(t, leave.RecordStatusCancelled, f.records.Records[resp.ID].Status)
	assert.Len(t, f.reclassifier.ranges, 2)
	assert.Equal(t, [3]string{"emp-1", "2024-03-01", "2024-03-02"}, f.reclassifier.ranges[1])

	assert.ErrorIs(t, f.leaves.CancelLeave(ctx, companyID, resp.ID), leave.ErrLeaveAlreadyCancelled)
	assert.ErrorIs(t, f.leaves.CancelLeave(ctx, companyID, "missing"), leave.ErrLeaveNotFound)

	// A cancelled range can be booked again.
	_, err = f.leaves.RecordLeave(ctx, companyID, sickLeave("2024-03-02", "2024-03-02"))
	assert.NoError(t, err)
}

func TestListLeaves(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.leaves.RecordLeave(ctx, companyID, sickLeave("2024-02-01", "2024-02-02"))
	require.NoError(t, err)
	_, err = f.leaves.RecordLeave(ctx, companyID, sickLeave("2024-03-11", "2024-03-11"))
	require.NoError(t, err)

	list, err := f.leaves.ListLeaves(ctx, companyID, "emp-1", 2024)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-03-11", list[0].StartDate)

	_, err = f.leaves.ListLeaves(ctx, companyID, "emp-x", 2024)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestAllocation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.leaves.GetAllocation(ctx, companyID, "emp-1", 2024)
	assert.ErrorIs(t, err, leave.ErrAllocationNotFound)

	_, err = f.leaves.UpsertAllocation(ctx, companyID, leave.UpsertAllocationRequest{EmployeeID: "emp-1", Year: 2024, Casual: -1})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))

	saved, err := f.leaves.UpsertAllocation(ctx, companyID, leave.UpsertAllocationRequest{
		EmployeeID: "emp-1", Year: 2024, Casual: 12, Sick: 6, Earned: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, 33, saved.Total)

	got, err := f.leaves.GetAllocation(ctx, companyID, "emp-1", 2024)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestAddHoliday_RecalculatesElapsedDate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.holidays.AddHoliday(ctx, companyID, leave.CreateHolidayRequest{Date: "2024-03-05", Name: " Holi "})
	require.NoError(t, err)
	assert.Equal(t, "Holi", resp.Name)
	assert.Equal(t, []string{"2024-03-05..2024-03-05"}, f.reclassifier.recalcs)

	_, err = f.holidays.AddHoliday(ctx, companyID, leave.CreateHolidayRequest{Date: "2024-03-05", Name: "Again"})
	assert.ErrorIs(t, err, leave.ErrHolidayExists)

	_, err = f.holidays.AddHoliday(ctx, companyID, leave.CreateHolidayRequest{Date: "2024-08-15", Name: "Independence Day"})
	require.NoError(t, err)
	assert.Len(t, f.reclassifier.recalcs, 1, "future holidays are not recalculated")
}

func TestAddHoliday_RecurringRecalculatesElapsedOccurrences(t *testing.T) {
	tests := []struct {
		name        string
		date        string
		recalcs     []string
		invalidated []string
	}{
		{
			name:        "occurrence earlier this year",
			date:        "2023-03-01",
			recalcs:     []string{"2023-03-01..2023-03-01", "2024-03-01..2024-03-01"},
			invalidated: []string{"emp-1|2023-03", "emp-1|2024-03"},
		},
		{
			name:        "occurrence later this year",
			date:        "2022-12-25",
			recalcs:     []string{"2022-12-25..2022-12-25", "2023-12-25..2023-12-25"},
			invalidated: []string{"emp-1|2022-12", "emp-1|2023-12", "emp-1|2024-12"},
		},
		{
			name:        "leap day only in leap years",
			date:        "2020-02-29",
			recalcs:     []string{"2020-02-29..2020-02-29", "2024-02-29..2024-02-29"},
			invalidated: []string{"emp-1|2020-02", "emp-1|2024-02"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.holidays.AddHoliday(context.Background(), companyID, leave.CreateHolidayRequest{
				Date:        tt.date,
				Name:        "Foundation Day",
				IsRecurring: true,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.recalcs, f.reclassifier.recalcs)
			assert.Equal(t, tt.invalidated, f.cache.Invalidated)
		})
	}
}

func TestAddHoliday_FutureDateInvalidatesCachedMonth(t *testing.T) {
	f := newFixture()
	_, err := f.holidays.AddHoliday(context.Background(), companyID, leave.CreateHolidayRequest{Date: "2024-03-20", Name: "Company Day"})
	require.NoError(t, err)

	assert.Empty(t, f.reclassifier.recalcs)
	assert.Equal(t, []string{"emp-1|2024-03"}, f.cache.Invalidated, "only employees of the company are touched")
}

func TestDeleteHoliday_Recurring(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.holidayRepo.Holidays["hol-r"] = leave.Holiday{
		ID:          "hol-r",
		CompanyID:   companyID,
		Date:        time.Date(2023, 1, 26, 0, 0, 0, 0, time.UTC),
		Name:        "Republic Day",
		IsRecurring: true,
	}

	require.NoError(t, f.holidays.DeleteHoliday(ctx, companyID, "hol-r"))
	assert.Equal(t, []string{"2023-01-26..2023-01-26", "2024-01-26..2024-01-26"}, f.reclassifier.recalcs)
	assert.Equal(t, []string{"emp-1|2023-01", "emp-1|2024-01"}, f.cache.Invalidated)
}

func TestDeleteHoliday(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.holidays.AddHoliday(ctx, companyID, leave.CreateHolidayRequest{Date: "2024-03-01", Name: "Founders Day"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.holidays.DeleteHoliday(ctx, "company-2", resp.ID), leave.ErrHolidayNotFound)
	require.NoError(t, f.holidays.DeleteHoliday(ctx, companyID, resp.ID))
	assert.Equal(t, []string{"2024-03-01..2024-03-01", "2024-03-01..2024-03-01"}, f.reclassifier.recalcs)

	list, err := f.holidays.ListHolidays(ctx, companyID, 2024)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPopulateSundays_Idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.holidays.AddHoliday(ctx, companyID, leave.CreateHolidayRequest{Date: "2024-03-03", Name: "Company Day"})
	require.NoError(t, err)

	first, err := f.holidays.PopulateSundays(ctx, companyID, 2024)
	require.NoError(t, err)
	assert.Equal(t, 52, first.Sundays)
	assert.Equal(t, 51, first.Inserted)

	second, err := f.holidays.PopulateSundays(ctx, companyID, 2024)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)

	list, err := f.holidays.ListHolidays(ctx, companyID, 2024)
	require.NoError(t, err)
	require.Len(t, list, 52)
	assert.Equal(t, "2024-01-07", list[0].Date)
	assert.True(t, list[0].WeeklyOff)

	_, err = f.holidays.PopulateSundays(ctx, companyID, 1999)
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}
