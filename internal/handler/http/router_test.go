package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/summary"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
	attendanceService "github.com/cmlabs-hris/attendance-engine-go/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/attendance-engine-go/internal/service/leave"
	payrollService "github.com/cmlabs-hris/attendance-engine-go/internal/service/payroll"
	punchService "github.com/cmlabs-hris/attendance-engine-go/internal/service/punch"
	regularizationService "github.com/cmlabs-hris/attendance-engine-go/internal/service/regularization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/servicetest"
	shiftService "github.com/cmlabs-hris/attendance-engine-go/internal/service/shift"
	summaryService "github.com/cmlabs-hris/attendance-engine-go/internal/service/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret    = "test-secret-key-for-jwt"
	testBridgeKey = "bridge-secret"
	testCompanyID = "company-1"

	ashaID = "0190a4e2-1c3b-7d40-8a51-3f2c9e0b7a11"
	raviID = "0190a4e2-1c3b-7d40-8a51-3f2c9e0b7a12"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	jwt     jwt.Service
	records *servicetest.AttendanceRepo
}

// Today is Wednesday 2024-03-06 10:00 IST.
func newTestServer(t *testing.T, bridge config.BridgeConfig) *testServer {
	t.Helper()
	clk := clock.Fixed{At: time.Date(2024, 3, 6, 10, 0, 0, 0, ist), Loc: ist}

	tx := &servicetest.Transactor{}
	employees := servicetest.NewEmployeeRepo(
		employee.Employee{ID: ashaID, CompanyID: testCompanyID, EmployeeCode: "E001", FullName: "Asha Rao"},
		employee.Employee{ID: raviID, CompanyID: testCompanyID, EmployeeCode: "E002", FullName: "Ravi Kumar"},
	)
	records := servicetest.NewAttendanceRepo()
	punches := &servicetest.PunchRepo{}
	shifts := servicetest.NewShiftRepo()
	assignments := servicetest.NewAssignmentRepo(shifts)
	leaves := servicetest.NewLeaveRecordRepo()
	holidays := servicetest.NewHolidayRepo()
	regs := servicetest.NewRegularizationRepo(employees)
	cache := servicetest.NewSummaryCache()
	links := &servicetest.DeviceLinkRepo{Links: map[string]punch.DeviceLink{
		"101": {DeviceUserID: "101", EmployeeID: ashaID, CompanyID: testCompanyID},
	}}

	attendanceSvc := attendanceService.NewAttendanceService(tx, records, punches, shiftService.NewResolver(assignments),
		leaves, holidays, regs, employees, cache, clk, attendanceService.Options{Policy: attendance.DefaultPolicy(), Concurrency: 2})
	summarySvc := summaryService.NewSummaryService(records, holidays, employees, cache, clk, 2)

	jwtSvc := jwt.NewJWTService(testSecret)
	cfg := &config.Config{App: config.AppConfig{Env: "test"}, Bridge: bridge}

	router := NewRouter(cfg, jwtSvc, Handlers{
		Attendance:     NewAttendanceHandler(attendanceSvc),
		Shift:          NewShiftHandler(shiftService.NewShiftService(shifts, assignments, employees, attendanceSvc, clk)),
		Regularization: NewRegularizationHandler(regularizationService.NewRegularizationService(tx, regs, employees, holidays, attendanceSvc, clk)),
		Leave:          NewLeaveHandler(leaveService.NewLeaveService(leaves, servicetest.NewAllocationRepo(), employees, attendanceSvc, clk), clk),
		Holiday:        NewHolidayHandler(leaveService.NewHolidayService(holidays, employees, attendanceSvc, cache, clk), clk),
		Summary:        NewSummaryHandler(summarySvc, clk),
		Payroll:        NewPayrollHandler(payrollService.NewDeductionService(servicetest.NewDeductionRepo(), employees, summarySvc, payroll.DeductionPolicy{DaysDivisor: 30}, 2)),
		Biometric:      NewBiometricHandler(punchService.NewIngestService(punches, links, attendanceSvc, clk, nil)),
	})

	return &testServer{t: t, handler: router, jwt: jwtSvc, records: records}
}

func defaultBridge() config.BridgeConfig {
	return config.BridgeConfig{APIKey: testBridgeKey, RateLimitPerSec: 100, RateLimitBurst: 100}
}

func (s *testServer) token(role user.Role, employeeID string) string {
	s.t.Helper()
	tok, err := s.jwt.IssueAccessToken(user.Principal{UserID: "user-" + string(role), CompanyID: testCompanyID, EmployeeID: employeeID, Role: role}, time.Hour)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestRouter_Heartbeat(t *testing.T) {
	s := newTestServer(t, defaultBridge())
	rec, _ := s.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AuthAndPermissions(t *testing.T) {
	s := newTestServer(t, defaultBridge())

	rec, _ := s.do(http.MethodGet, "/api/v1/shifts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	employeeToken := s.token(user.RoleEmployee, ashaID)
	rec, _ = s.do(http.MethodGet, "/api/v1/shifts", employeeToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := s.do(http.MethodPost, "/api/v1/shifts", employeeToken, map[string]interface{}{"name": "General", "start_time": "09:00", "end_time": "18:00"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	rec, _ = s.do(http.MethodGet, "/api/v1/attendance/"+raviID+"/2024-03-05", employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/shifts", s.token(user.RoleManager, ""), map[string]interface{}{"name": "General", "start_time": "09:00", "end_time": "18:00"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Owners without an employee record cannot use the self-service routes.
	rec, _ = s.do(http.MethodGet, "/api/v1/attendance/my?start_date=2024-03-01&end_date=2024-03-05", s.token(user.RoleOwner, ""), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_IngestThenReadDay(t *testing.T) {
	s := newTestServer(t, defaultBridge())
	logs := map[string]interface{}{"logs": []map[string]string{
		{"user_id": "101", "record_time": "2024-03-05 09:05:00"},
		{"user_id": "101", "record_time": "2024-03-05 18:10:00"},
		{"user_id": "999", "record_time": "2024-03-05 09:00:00"},
	}}

	rec, _ := s.do(http.MethodPost, "/api/v1/biometric/logs", "", logs)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/biometric/logs", strings.NewReader(mustJSON(t, logs)))
	req.Header.Set(middleware.APIKeyHeader, testBridgeKey)
	out := httptest.NewRecorder()
	s.handler.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(out.Body.Bytes(), &env))
	var result punch.IngestResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Accepted)
	assert.Equal(t, 1, result.Skipped)

	rec, env = s.do(http.MethodGet, "/api/v1/attendance/"+ashaID+"/2024-03-05", s.token(user.RoleEmployee, ashaID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var day attendance.RecordResponse
	require.NoError(t, json.Unmarshal(env.Data, &day))
	assert.Equal(t, attendance.StatusPresent, day.Status)
	assert.False(t, day.Inferred)
}

func TestRouter_RegularizationFlow(t *testing.T) {
	s := newTestServer(t, defaultBridge())
	employeeToken := s.token(user.RoleEmployee, ashaID)
	managerToken := s.token(user.RoleManager, raviID)

	rec, env := s.do(http.MethodPost, "/api/v1/regularizations", employeeToken, map[string]string{
		"date": "2024-03-04", "requested_type": "MISSED_PUNCH_IN", "reason": "Badge reader offline",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rec, _ = s.do(http.MethodPost, "/api/v1/regularizations/"+created.ID+"/approve", employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/v1/regularizations/"+created.ID+"/reject", managerToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error.Message, "rejection_reason")

	rec, _ = s.do(http.MethodPost, "/api/v1/regularizations/"+created.ID+"/approve", managerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, attendance.StatusRegularized, s.records.Status(ashaID, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)))

	rec, _ = s.do(http.MethodPost, "/api/v1/regularizations/"+created.ID+"/approve", managerToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/api/v1/regularizations/"+created.ID, employeeToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ValidationErrors(t *testing.T) {
	s := newTestServer(t, defaultBridge())
	ownerToken := s.token(user.RoleOwner, "")

	rec, env := s.do(http.MethodPost, "/api/v1/holidays", ownerToken, map[string]string{"date": "05-03-2024", "name": "Holi"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Details, "date")

	rec, _ = s.do(http.MethodGet, "/api/v1/attendance?employee_id="+ashaID+"&start_date=2024-03-09&end_date=2024-03-01", ownerToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/payroll/lop-deduction?employee_id="+raviID+"&month=2&year=2024", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, payroll.ErrEmployeeHasNoBaseSalary.Error(), env.Error.Message)

	rec, _ = s.do(http.MethodPost, "/api/v1/biometric/pull", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "device sync is off without a bridge URL")
}

func TestRouter_RegisterExport(t *testing.T) {
	s := newTestServer(t, defaultBridge())

	rec, _ := s.do(http.MethodGet, "/api/v1/summaries/register/export?month=3&year=2024", s.token(user.RoleManager, ""), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance-register-2024-03.xlsx")
	assert.NotZero(t, rec.Body.Len())

	rec, _ = s.do(http.MethodGet, "/api/v1/summaries/register?month=3&year=2024", s.token(user.RoleEmployee, ashaID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/v1/summaries/my?month=3&year=2024", s.token(user.RoleEmployee, ashaID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_MalformedIDs(t *testing.T) {
	s := newTestServer(t, defaultBridge())
	ownerToken := s.token(user.RoleOwner, "")

	notFound := []string{
		"/api/v1/regularizations/abc",
		"/api/v1/shifts/abc",
		"/api/v1/attendance/abc/2024-03-05",
		"/api/v1/summaries/abc?month=3&year=2024",
	}
	for _, path := range notFound {
		rec, env := s.do(http.MethodGet, path, ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		require.NotNil(t, env.Error, path)
		assert.Equal(t, "NOT_FOUND", env.Error.Code, path)
	}

	rec, _ := s.do(http.MethodPost, "/api/v1/regularizations/abc/approve", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = s.do(http.MethodDelete, "/api/v1/holidays/abc", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := s.do(http.MethodGet, "/api/v1/attendance?employee_id=abc&start_date=2024-03-01&end_date=2024-03-05", ownerToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Details, "employee_id")

	rec, env = s.do(http.MethodPost, "/api/v1/shift-assignments", ownerToken, map[string]string{
		"employee_id": ashaID, "shift_id": "abc", "from_date": "2024-03-01",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Details, "shift_id")

	rec, env = s.do(http.MethodPost, "/api/v1/leaves", ownerToken, map[string]string{
		"employee_id": "abc", "start_date": "2024-03-01", "end_date": "2024-03-01", "leave_type": "SICK",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Details, "employee_id")

	rec, env = s.do(http.MethodPost, "/api/v1/attendance/recalculate", ownerToken, map[string]interface{}{
		"start_date": "2024-03-01", "end_date": "2024-03-01", "employee_ids": []string{ashaID, "abc"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Details, "employee_ids")
}

func TestRouter_HolidayRefreshesCachedSummary(t *testing.T) {
	s := newTestServer(t, defaultBridge())
	ownerToken := s.token(user.RoleOwner, "")
	path := "/api/v1/summaries/" + ashaID + "?month=3&year=2024"

	monthSummary := func() summary.MonthlySummary {
		rec, env := s.do(http.MethodGet, path, ownerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out summary.MonthlySummary
		require.NoError(t, json.Unmarshal(env.Data, &out))
		return out
	}

	before := monthSummary()
	rec, _ := s.do(http.MethodPost, "/api/v1/holidays", ownerToken, map[string]string{"date": "2024-03-20", "name": "Company Day"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	after := monthSummary()
	assert.Equal(t, before.TotalHolidays+1, after.TotalHolidays)
}

func TestRouter_BridgeRateLimit(t *testing.T) {
	s := newTestServer(t, config.BridgeConfig{APIKey: testBridgeKey, RateLimitPerSec: 0.001, RateLimitBurst: 1})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/biometric/logs", strings.NewReader(`{"logs":[]}`))
		req.Header.Set(middleware.APIKeyHeader, testBridgeKey)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnprocessableEntity, send(), "empty batch fails validation")
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
