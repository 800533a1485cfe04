// Package servicetest holds in-memory repository fakes shared by the service
// tests.
package servicetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/summary"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/google/uuid"
)

// Transactor runs fn directly. Failed calls are counted so tests can assert
// that a rollback would have happened. Commit hooks run only when the
// outermost call succeeds.
type Transactor struct {
	mu       sync.Mutex
	Calls    int
	Failures int
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.Calls++
	t.mu.Unlock()

	if database.HasCommitHooks(ctx) {
		return t.record(fn(ctx))
	}
	txCtx, hooks := database.WithCommitHooks(ctx)
	if err := t.record(fn(txCtx)); err != nil {
		return err
	}
	hooks.Run(ctx)
	return nil
}

func (t *Transactor) record(err error) error {
	if err != nil {
		t.mu.Lock()
		t.Failures++
		t.mu.Unlock()
	}
	return err
}

type idSeq struct {
	mu sync.Mutex
	n  int
}

// next returns a deterministic UUID derived from prefix and a counter, so ids
// pass the same format checks as database generated ones.
func (s *idSeq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s-%04d", prefix, s.n))).String()
}

func dayKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

// ===== employees =====

type EmployeeRepo struct {
	mu        sync.Mutex
	Employees map[string]employee.Employee
}

func NewEmployeeRepo(emps ...employee.Employee) *EmployeeRepo {
	r := &EmployeeRepo{Employees: make(map[string]employee.Employee)}
	for _, e := range emps {
		if e.EmploymentStatus == "" {
			e.EmploymentStatus = employee.EmploymentStatusActive
		}
		r.Employees[e.ID] = e
	}
	return r
}

func (r *EmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.Employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *EmployeeRepo) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []employee.Employee
	for _, e := range r.Employees {
		if e.CompanyID == companyID && e.IsActive() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out, nil
}

func (r *EmployeeRepo) ListActiveCompanyIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, e := range r.Employees {
		if e.IsActive() && !seen[e.CompanyID] {
			seen[e.CompanyID] = true
			out = append(out, e.CompanyID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ===== attendance =====

type AttendanceRepo struct {
	mu      sync.Mutex
	Records map[string]attendance.Record
	Locks   int
	// FailFor makes every write for the employee fail.
	FailFor map[string]error
}

func NewAttendanceRepo() *AttendanceRepo {
	return &AttendanceRepo{Records: make(map[string]attendance.Record), FailFor: make(map[string]error)}
}

func (r *AttendanceRepo) LockDay(ctx context.Context, employeeID string, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Locks++
	return nil
}

func (r *AttendanceRepo) Upsert(ctx context.Context, rec attendance.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailFor[rec.EmployeeID]; err != nil {
		return err
	}
	rec.UpdatedAt = time.Now()
	r.Records[dayKey(rec.EmployeeID, rec.Date)] = rec
	return nil
}

func (r *AttendanceRepo) Delete(ctx context.Context, employeeID string, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailFor[employeeID]; err != nil {
		return err
	}
	delete(r.Records, dayKey(employeeID, date))
	return nil
}

func (r *AttendanceRepo) Get(ctx context.Context, employeeID string, date time.Time) (attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.Records[dayKey(employeeID, date)]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return rec, nil
}

func (r *AttendanceRepo) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.Record
	for _, rec := range r.Records {
		if rec.EmployeeID == employeeID && !rec.Date.Before(from) && !rec.Date.After(to) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Status returns the stored status for the day, or "" when no row exists.
func (r *AttendanceRepo) Status(employeeID string, date time.Time) attendance.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Records[dayKey(employeeID, date)].Status
}

// ===== punches =====

type PunchRepo struct {
	mu     sync.Mutex
	Events []punch.Event
}

func (r *PunchRepo) Insert(ctx context.Context, e punch.Event) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Events {
		if existing.EmployeeID == e.EmployeeID && existing.PunchedAt.Equal(e.PunchedAt) {
			return false, nil
		}
	}
	r.Events = append(r.Events, e)
	return true, nil
}

func (r *PunchRepo) ListBetween(ctx context.Context, employeeID string, from, to time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []time.Time
	for _, e := range r.Events {
		if e.EmployeeID == employeeID && !e.PunchedAt.Before(from) && e.PunchedAt.Before(to) {
			out = append(out, e.PunchedAt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

type DeviceLinkRepo struct {
	Links map[string]punch.DeviceLink
}

func (r *DeviceLinkRepo) GetByDeviceUserIDs(ctx context.Context, ids []string) (map[string]punch.DeviceLink, error) {
	out := make(map[string]punch.DeviceLink)
	for _, id := range ids {
		if l, ok := r.Links[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

// ===== shifts =====

type ShiftRepo struct {
	mu         sync.Mutex
	ids        idSeq
	Shifts     map[string]shift.Shift
	Referenced map[string]bool
}

func NewShiftRepo() *ShiftRepo {
	return &ShiftRepo{Shifts: make(map[string]shift.Shift), Referenced: make(map[string]bool)}
}

func (r *ShiftRepo) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Shifts {
		if existing.CompanyID == s.CompanyID && existing.DeletedAt == nil && existing.Name == s.Name {
			return shift.Shift{}, shift.ErrShiftNameExists
		}
	}
	if s.ID == "" {
		s.ID = r.ids.next("shift")
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	r.Shifts[s.ID] = s
	return s, nil
}

func (r *ShiftRepo) GetByID(ctx context.Context, id, companyID string) (shift.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.Shifts[id]
	if !ok || s.CompanyID != companyID || s.DeletedAt != nil {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	return s, nil
}

func (r *ShiftRepo) List(ctx context.Context, companyID string) ([]shift.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shift.Shift
	for _, s := range r.Shifts {
		if s.CompanyID == companyID && s.DeletedAt == nil {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ShiftRepo) Update(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Shifts[s.ID]; !ok {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	s.UpdatedAt = time.Now()
	r.Shifts[s.ID] = s
	return s, nil
}

func (r *ShiftRepo) SoftDelete(ctx context.Context, id, companyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.Shifts[id]
	if !ok || s.CompanyID != companyID || s.DeletedAt != nil {
		return shift.ErrShiftNotFound
	}
	now := time.Now()
	s.DeletedAt = &now
	r.Shifts[id] = s
	return nil
}

func (r *ShiftRepo) IsReferenced(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Referenced[id], nil
}

type AssignmentRepo struct {
	mu          sync.Mutex
	ids         idSeq
	Shifts      *ShiftRepo
	Assignments map[string]shift.Assignment
	clock       time.Time
}

func NewAssignmentRepo(shifts *ShiftRepo) *AssignmentRepo {
	return &AssignmentRepo{
		Shifts:      shifts,
		Assignments: make(map[string]shift.Assignment),
		clock:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Create stamps strictly increasing created_at values so that precedence is
// deterministic.
func (r *AssignmentRepo) Create(ctx context.Context, a shift.Assignment) (shift.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = r.ids.next("asg")
	}
	if a.CreatedAt.IsZero() {
		r.clock = r.clock.Add(time.Second)
		a.CreatedAt = r.clock
	}
	r.Assignments[a.ID] = a
	if r.Shifts != nil {
		r.Shifts.mu.Lock()
		r.Shifts.Referenced[a.ShiftID] = true
		r.Shifts.mu.Unlock()
	}
	return a, nil
}

func (r *AssignmentRepo) GetByID(ctx context.Context, id string) (shift.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.Assignments[id]
	if !ok {
		return shift.Assignment{}, shift.ErrAssignmentNotFound
	}
	return a, nil
}

func (r *AssignmentRepo) withShift(a shift.Assignment) shift.AssignmentWithShift {
	aw := shift.AssignmentWithShift{Assignment: a}
	if r.Shifts != nil {
		r.Shifts.mu.Lock()
		aw.Shift = r.Shifts.Shifts[a.ShiftID]
		r.Shifts.mu.Unlock()
	}
	return aw
}

func (r *AssignmentRepo) ListByEmployee(ctx context.Context, employeeID string) ([]shift.AssignmentWithShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shift.AssignmentWithShift
	for _, a := range r.Assignments {
		if a.EmployeeID == employeeID {
			out = append(out, r.withShift(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FromDate.Before(out[j].FromDate) })
	return out, nil
}

func (r *AssignmentRepo) ListCovering(ctx context.Context, employeeID string, date time.Time) ([]shift.AssignmentWithShift, error) {
	all, _ := r.ListByEmployee(ctx, employeeID)
	return shift.Covering(all, date), nil
}

func (r *AssignmentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Assignments[id]; !ok {
		return shift.ErrAssignmentNotFound
	}
	delete(r.Assignments, id)
	return nil
}

// ===== leave & holidays =====

type LeaveRecordRepo struct {
	mu      sync.Mutex
	ids     idSeq
	Records map[string]leave.Record
}

func NewLeaveRecordRepo() *LeaveRecordRepo {
	return &LeaveRecordRepo{Records: make(map[string]leave.Record)}
}

func (r *LeaveRecordRepo) Create(ctx context.Context, rec leave.Record) (leave.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = r.ids.next("leave")
	}
	rec.Status = leave.RecordStatusApproved
	rec.CreatedAt = time.Now()
	r.Records[rec.ID] = rec
	return rec, nil
}

func (r *LeaveRecordRepo) GetByID(ctx context.Context, id string) (leave.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.Records[id]
	if !ok {
		return leave.Record{}, leave.ErrLeaveNotFound
	}
	return rec, nil
}

func (r *LeaveRecordRepo) Cancel(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.Records[id]
	if !ok {
		return leave.ErrLeaveNotFound
	}
	if rec.Status != leave.RecordStatusApproved {
		return leave.ErrLeaveAlreadyCancelled
	}
	now := time.Now()
	rec.Status = leave.RecordStatusCancelled
	rec.CancelledAt = &now
	r.Records[id] = rec
	return nil
}

func (r *LeaveRecordRepo) FindApprovedCovering(ctx context.Context, employeeID string, date time.Time) (*leave.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.Records {
		if rec.EmployeeID == employeeID && rec.Covers(date) {
			found := rec
			return &found, nil
		}
	}
	return nil, nil
}

func (r *LeaveRecordRepo) ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.Record
	for _, rec := range r.Records {
		if rec.EmployeeID == employeeID && rec.Status == leave.RecordStatusApproved &&
			!rec.StartDate.After(to) && !rec.EndDate.Before(from) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *LeaveRecordRepo) ListByEmployee(ctx context.Context, employeeID string, year int) ([]leave.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.Record
	for _, rec := range r.Records {
		if rec.EmployeeID == employeeID && (rec.StartDate.Year() == year || rec.EndDate.Year() == year) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

type AllocationRepo struct {
	mu          sync.Mutex
	Allocations map[string]leave.Allocation
}

func NewAllocationRepo() *AllocationRepo {
	return &AllocationRepo{Allocations: make(map[string]leave.Allocation)}
}

func (r *AllocationRepo) Get(ctx context.Context, employeeID string, year int) (leave.Allocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.Allocations[fmt.Sprintf("%s|%d", employeeID, year)]
	if !ok {
		return leave.Allocation{}, leave.ErrAllocationNotFound
	}
	return a, nil
}

func (r *AllocationRepo) Upsert(ctx context.Context, a leave.Allocation) (leave.Allocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.UpdatedAt = time.Now()
	r.Allocations[fmt.Sprintf("%s|%d", a.EmployeeID, a.Year)] = a
	return a, nil
}

type HolidayRepo struct {
	mu       sync.Mutex
	ids      idSeq
	Holidays map[string]leave.Holiday
}

func NewHolidayRepo(holidays ...leave.Holiday) *HolidayRepo {
	r := &HolidayRepo{Holidays: make(map[string]leave.Holiday)}
	for _, h := range holidays {
		_, _ = r.Create(context.Background(), h)
	}
	return r
}

func (r *HolidayRepo) Create(ctx context.Context, h leave.Holiday) (leave.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Holidays {
		if existing.CompanyID == h.CompanyID && existing.Date.Equal(h.Date) {
			return leave.Holiday{}, leave.ErrHolidayExists
		}
	}
	if h.ID == "" {
		h.ID = r.ids.next("hol")
	}
	h.CreatedAt = time.Now()
	r.Holidays[h.ID] = h
	return h, nil
}

func (r *HolidayRepo) GetByID(ctx context.Context, id, companyID string) (leave.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.Holidays[id]
	if !ok || h.CompanyID != companyID {
		return leave.Holiday{}, leave.ErrHolidayNotFound
	}
	return h, nil
}

func (r *HolidayRepo) Delete(ctx context.Context, id, companyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.Holidays[id]
	if !ok || h.CompanyID != companyID {
		return leave.ErrHolidayNotFound
	}
	delete(r.Holidays, id)
	return nil
}

func (r *HolidayRepo) ExistsOnDate(ctx context.Context, companyID string, date time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.Holidays {
		if h.CompanyID == companyID && h.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (r *HolidayRepo) ListByYear(ctx context.Context, companyID string, year int) ([]leave.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.Holiday
	for _, h := range r.Holidays {
		if h.CompanyID == companyID && h.Date.Year() == year {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *HolidayRepo) ListApplicable(ctx context.Context, companyID string, from, to time.Time) ([]leave.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.Holiday
	for _, h := range r.Holidays {
		if h.CompanyID != companyID {
			continue
		}
		inRange := !h.Date.Before(from) && !h.Date.After(to)
		if inRange || (h.IsRecurring && !h.WeeklyOff) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *HolidayRepo) UpsertMany(ctx context.Context, holidays []leave.Holiday) (int, error) {
	inserted := 0
	for _, h := range holidays {
		_, err := r.Create(ctx, h)
		if errors.Is(err, leave.ErrHolidayExists) {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// ===== regularization =====

type RegularizationRepo struct {
	mu        sync.Mutex
	ids       idSeq
	Requests  map[string]regularization.Request
	Employees *EmployeeRepo
}

func NewRegularizationRepo(employees *EmployeeRepo) *RegularizationRepo {
	return &RegularizationRepo{Requests: make(map[string]regularization.Request), Employees: employees}
}

func (r *RegularizationRepo) withName(req regularization.Request) regularization.Request {
	if r.Employees != nil {
		if e, err := r.Employees.GetByID(context.Background(), req.EmployeeID); err == nil {
			name := e.FullName
			req.EmployeeName = &name
		}
	}
	return req
}

func (r *RegularizationRepo) Create(ctx context.Context, req regularization.Request) (regularization.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Requests {
		if existing.EmployeeID == req.EmployeeID && existing.Date.Equal(req.Date) && existing.IsActive() {
			return regularization.Request{}, regularization.ErrDuplicateActiveRequest
		}
	}
	req.ID = r.ids.next("reg")
	req.Status = regularization.StatusPending
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	r.Requests[req.ID] = req
	return r.withName(req), nil
}

func (r *RegularizationRepo) GetByIDForUpdate(ctx context.Context, id string) (regularization.Request, error) {
	return r.GetByID(ctx, id)
}

func (r *RegularizationRepo) GetByID(ctx context.Context, id string) (regularization.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.Requests[id]
	if !ok {
		return regularization.Request{}, regularization.ErrRequestNotFound
	}
	return r.withName(req), nil
}

func (r *RegularizationRepo) Update(ctx context.Context, req regularization.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Requests[req.ID]; !ok {
		return regularization.ErrRequestNotFound
	}
	if req.IsActive() {
		for id, existing := range r.Requests {
			if id != req.ID && existing.EmployeeID == req.EmployeeID && existing.Date.Equal(req.Date) && existing.IsActive() {
				return regularization.ErrDuplicateActiveRequest
			}
		}
	}
	req.UpdatedAt = time.Now()
	r.Requests[req.ID] = req
	return nil
}

func (r *RegularizationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Requests[id]; !ok {
		return regularization.ErrRequestNotFound
	}
	delete(r.Requests, id)
	return nil
}

func (r *RegularizationRepo) HasActive(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.Requests {
		if req.EmployeeID == employeeID && req.Date.Equal(date) && req.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r *RegularizationRepo) CountInMonth(ctx context.Context, employeeID string, year int, month time.Month) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, req := range r.Requests {
		if req.EmployeeID == employeeID && req.Date.Year() == year && req.Date.Month() == month {
			n++
		}
	}
	return n, nil
}

func (r *RegularizationRepo) FindApproved(ctx context.Context, employeeID string, date time.Time) (*regularization.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.Requests {
		if req.EmployeeID == employeeID && req.Date.Equal(date) && req.Status == regularization.StatusApproved {
			found := req
			return &found, nil
		}
	}
	return nil, nil
}

func (r *RegularizationRepo) List(ctx context.Context, companyID string, filter regularization.Filter) ([]regularization.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []regularization.Request
	for _, req := range r.Requests {
		if r.Employees != nil {
			e, err := r.Employees.GetByID(ctx, req.EmployeeID)
			if err != nil || e.CompanyID != companyID {
				continue
			}
		}
		if filter.EmployeeID != nil && req.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.Year > 0 && filter.Month > 0 && (req.Date.Year() != filter.Year || int(req.Date.Month()) != filter.Month) {
			continue
		}
		out = append(out, r.withName(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// ===== summary cache =====

type SummaryCache struct {
	mu          sync.Mutex
	Entries     map[string]summary.MonthlySummary
	Gets        int
	Invalidated []string
}

func NewSummaryCache() *SummaryCache {
	return &SummaryCache{Entries: make(map[string]summary.MonthlySummary)}
}

func cacheKey(employeeID string, year int, month time.Month) string {
	return fmt.Sprintf("%s|%04d-%02d", employeeID, year, int(month))
}

func (c *SummaryCache) Get(ctx context.Context, employeeID string, year int, month time.Month) (*summary.MonthlySummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	s, ok := c.Entries[cacheKey(employeeID, year, month)]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (c *SummaryCache) Set(ctx context.Context, s summary.MonthlySummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries[cacheKey(s.EmployeeID, s.Year, time.Month(s.Month))] = s
	return nil
}

func (c *SummaryCache) Invalidate(ctx context.Context, employeeID string, year int, month time.Month) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(employeeID, year, month)
	delete(c.Entries, key)
	c.Invalidated = append(c.Invalidated, key)
	return nil
}

// ===== payroll =====

type DeductionRepo struct {
	mu   sync.Mutex
	Rows map[string]payroll.LOPDeduction
}

func NewDeductionRepo() *DeductionRepo {
	return &DeductionRepo{Rows: make(map[string]payroll.LOPDeduction)}
}

func (r *DeductionRepo) Upsert(ctx context.Context, d payroll.LOPDeduction) (payroll.LOPDeduction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ComputedAt = time.Now()
	r.Rows[fmt.Sprintf("%s|%04d-%02d", d.EmployeeID, d.Year, d.Month)] = d
	return d, nil
}
