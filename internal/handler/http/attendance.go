package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	ListMy(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	GetDay(w http.ResponseWriter, r *http.Request)
	Recalculate(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

func dateRangeFromQuery(r *http.Request) attendance.DateRange {
	q := r.URL.Query()
	return attendance.DateRange{StartDate: q.Get("start_date"), EndDate: q.Get("end_date")}
}

// ListMy implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListMy(w http.ResponseWriter, r *http.Request) {
	p := principal(r)

	records, err := h.attendanceService.ListRecords(r.Context(), p.CompanyID, p.EmployeeID, dateRangeFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, records)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	p := principal(r)

	employeeID, err := queryID(r, "employee_id")
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if employeeID == "" {
		response.BadRequest(w, "employee_id is required", nil)
		return
	}

	records, err := h.attendanceService.ListRecords(r.Context(), p.CompanyID, employeeID, dateRangeFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, records)
}

// GetDay implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetDay(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	employeeID, err := pathID(r, "employee_id", attendance.ErrEmployeeNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !canAccessEmployee(p, employeeID, user.PermissionAttendanceViewAll) {
		response.HandleError(w, user.ErrInsufficientPermissions)
		return
	}

	date, err := parseDateParam("date", chi.URLParam(r, "date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.attendanceService.GetDay(r.Context(), p.CompanyID, employeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, record)
}

// Recalculate implements AttendanceHandler. Per-employee failures are
// reported in the body with status 200.
func (h *attendanceHandlerImpl) Recalculate(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecalculateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ids := make([]idField, len(req.EmployeeIDs))
	for i, id := range req.EmployeeIDs {
		ids[i] = idField{"employee_ids", id}
	}
	if err := validateIDs(ids...); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.Recalculate(r.Context(), principal(r).CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Recalculation finished", result)
}
