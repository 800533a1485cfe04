package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
)

type ShiftHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)

	CreateAssignment(w http.ResponseWriter, r *http.Request)
	ListAssignments(w http.ResponseWriter, r *http.Request)
	DeleteAssignment(w http.ResponseWriter, r *http.Request)
	Resolve(w http.ResponseWriter, r *http.Request)
}

type shiftHandlerImpl struct {
	shiftService shift.ShiftService
}

func NewShiftHandler(shiftService shift.ShiftService) ShiftHandler {
	return &shiftHandlerImpl{shiftService: shiftService}
}

// List implements ShiftHandler.
func (h *shiftHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.shiftService.ListShifts(r.Context(), principal(r).CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, shifts)
}

// Create implements ShiftHandler.
func (h *shiftHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req shift.CreateShiftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.shiftService.CreateShift(r.Context(), principal(r).CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Shift created successfully", created)
}

// Get implements ShiftHandler.
func (h *shiftHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", shift.ErrShiftNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	s, err := h.shiftService.GetShift(r.Context(), principal(r).CompanyID, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, s)
}

// Update implements ShiftHandler.
func (h *shiftHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", shift.ErrShiftNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req shift.UpdateShiftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = id

	updated, err := h.shiftService.UpdateShift(r.Context(), principal(r).CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Shift updated successfully", updated)
}

// Delete implements ShiftHandler.
func (h *shiftHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", shift.ErrShiftNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.shiftService.DeleteShift(r.Context(), principal(r).CompanyID, id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Shift deleted successfully", nil)
}

// CreateAssignment implements ShiftHandler.
func (h *shiftHandlerImpl) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req shift.CreateAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateIDs(idField{"employee_id", req.EmployeeID}, idField{"shift_id", req.ShiftID}); err != nil {
		response.HandleError(w, err)
		return
	}

	created, err := h.shiftService.CreateAssignment(r.Context(), principal(r).CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Shift assigned successfully", created)
}

// ListAssignments implements ShiftHandler.
func (h *shiftHandlerImpl) ListAssignments(w http.ResponseWriter, r *http.Request) {
	employeeID, err := queryID(r, "employee_id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	assignments, err := h.shiftService.ListAssignments(r.Context(), principal(r).CompanyID, employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, assignments)
}

// DeleteAssignment implements ShiftHandler.
func (h *shiftHandlerImpl) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", shift.ErrAssignmentNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.shiftService.DeleteAssignment(r.Context(), principal(r).CompanyID, id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Shift assignment deleted successfully", nil)
}

// Resolve implements ShiftHandler.
func (h *shiftHandlerImpl) Resolve(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam("date", r.URL.Query().Get("date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID, err := queryID(r, "employee_id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	resolved, err := h.shiftService.Resolve(r.Context(), principal(r).CompanyID, employeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, resolved)
}
