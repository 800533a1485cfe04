package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
)

type LeaveHandler interface {
	Record(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	GetAllocation(w http.ResponseWriter, r *http.Request)
	UpsertAllocation(w http.ResponseWriter, r *http.Request)
}

type leaveHandlerImpl struct {
	leaveService leave.LeaveService
	clock        clock.Clock
}

func NewLeaveHandler(leaveService leave.LeaveService, clk clock.Clock) LeaveHandler {
	return &leaveHandlerImpl{leaveService: leaveService, clock: clk}
}

// Record implements LeaveHandler.
func (h *leaveHandlerImpl) Record(w http.ResponseWriter, r *http.Request) {
	var req leave.RecordLeaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateIDs(idField{"employee_id", req.EmployeeID}); err != nil {
		response.HandleError(w, err)
		return
	}

	created, err := h.leaveService.RecordLeave(r.Context(), principal(r).CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Leave recorded successfully", created)
}

// Cancel implements LeaveHandler.
func (h *leaveHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", leave.ErrLeaveNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.leaveService.CancelLeave(r.Context(), principal(r).CompanyID, id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave cancelled successfully", nil)
}

// List implements LeaveHandler.
func (h *leaveHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", h.clock.Now().Year())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID, err := queryID(r, "employee_id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	leaves, err := h.leaveService.ListLeaves(r.Context(), principal(r).CompanyID, employeeID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, leaves)
}

// GetAllocation implements LeaveHandler.
func (h *leaveHandlerImpl) GetAllocation(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", h.clock.Now().Year())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID, err := queryID(r, "employee_id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	allocation, err := h.leaveService.GetAllocation(r.Context(), principal(r).CompanyID, employeeID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, allocation)
}

// UpsertAllocation implements LeaveHandler.
func (h *leaveHandlerImpl) UpsertAllocation(w http.ResponseWriter, r *http.Request) {
	var req leave.UpsertAllocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateIDs(idField{"employee_id", req.EmployeeID}); err != nil {
		response.HandleError(w, err)
		return
	}

	saved, err := h.leaveService.UpsertAllocation(r.Context(), principal(r).CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave allocation saved", saved)
}
