package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
)

type RegularizationHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	ListMy(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Revert(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type regularizationHandlerImpl struct {
	regularizationService regularization.RegularizationService
}

func NewRegularizationHandler(regularizationService regularization.RegularizationService) RegularizationHandler {
	return &regularizationHandlerImpl{regularizationService: regularizationService}
}

func filterFromQuery(r *http.Request) (regularization.Filter, error) {
	q := r.URL.Query()
	var f regularization.Filter

	employeeID, err := queryID(r, "employee_id")
	if err != nil {
		return f, err
	}
	if employeeID != "" {
		f.EmployeeID = &employeeID
	}
	if v := q.Get("status"); v != "" {
		status := regularization.Status(v)
		f.Status = &status
	}

	if f.Month, err = queryInt(r, "month", 0); err != nil {
		return f, err
	}
	if f.Year, err = queryInt(r, "year", 0); err != nil {
		return f, err
	}
	return f, nil
}

// Submit implements RegularizationHandler.
func (h *regularizationHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	var req regularization.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := principal(r)
	created, err := h.regularizationService.Submit(r.Context(), p.CompanyID, p.EmployeeID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Regularization request submitted", created)
}

// ListMy implements RegularizationHandler.
func (h *regularizationHandlerImpl) ListMy(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	p := principal(r)
	filter.EmployeeID = &p.EmployeeID

	requests, err := h.regularizationService.List(r.Context(), p.CompanyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, requests)
}

// List implements RegularizationHandler.
func (h *regularizationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	requests, err := h.regularizationService.List(r.Context(), principal(r).CompanyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, requests)
}

// Get implements RegularizationHandler. Employees only see their own requests.
func (h *regularizationHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	p := principal(r)

	id, err := pathID(r, "id", regularization.ErrRequestNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	req, err := h.regularizationService.Get(r.Context(), p.CompanyID, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if !canAccessEmployee(p, req.EmployeeID, user.PermissionRegularizationViewAll) {
		response.HandleError(w, regularization.ErrUnauthorized)
		return
	}
	response.Success(w, req)
}

func (h *regularizationHandlerImpl) decide(w http.ResponseWriter, r *http.Request, decision regularization.DecideRequest, message string) {
	p := principal(r)

	id, err := pathID(r, "id", regularization.ErrRequestNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	decided, err := h.regularizationService.Decide(r.Context(), p.CompanyID, id, p.UserID, decision)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, message, decided)
}

// Approve implements RegularizationHandler.
func (h *regularizationHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, regularization.DecideRequest{Status: regularization.StatusApproved}, "Regularization request approved")
}

// Reject implements RegularizationHandler.
func (h *regularizationHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RejectionReason *string `json:"rejection_reason"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	h.decide(w, r, regularization.DecideRequest{
		Status:          regularization.StatusRejected,
		RejectionReason: body.RejectionReason,
	}, "Regularization request rejected")
}

// Revert implements RegularizationHandler.
func (h *regularizationHandlerImpl) Revert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", regularization.ErrRequestNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	reverted, err := h.regularizationService.Revert(r.Context(), principal(r).CompanyID, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Regularization request reverted to pending", reverted)
}

// Delete implements RegularizationHandler. Approvers may delete any pending
// request; everyone else only their own.
func (h *regularizationHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	p := principal(r)

	owner := p.EmployeeID
	if p.CanApprove() {
		owner = ""
	} else if owner == "" {
		response.HandleError(w, user.ErrEmployeeIDRequired)
		return
	}

	id, err := pathID(r, "id", regularization.ErrRequestNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.regularizationService.Delete(r.Context(), p.CompanyID, id, owner); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Regularization request deleted", nil)
}
