package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/summary"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SummaryHandler interface {
	My(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Register(w http.ResponseWriter, r *http.Request)
	ExportRegister(w http.ResponseWriter, r *http.Request)
}

type summaryHandlerImpl struct {
	summaryService summary.SummaryService
	clock          clock.Clock
}

func NewSummaryHandler(summaryService summary.SummaryService, clk clock.Clock) SummaryHandler {
	return &summaryHandlerImpl{summaryService: summaryService, clock: clk}
}

// monthFromQuery defaults to the current month.
func (h *summaryHandlerImpl) monthFromQuery(r *http.Request) (summary.MonthRequest, error) {
	now := h.clock.Now()
	month, err := queryInt(r, "month", int(now.Month()))
	if err != nil {
		return summary.MonthRequest{}, err
	}
	year, err := queryInt(r, "year", now.Year())
	if err != nil {
		return summary.MonthRequest{}, err
	}
	return summary.MonthRequest{Month: month, Year: year}, nil
}

func (h *summaryHandlerImpl) summarize(w http.ResponseWriter, r *http.Request, employeeID string) {
	req, err := h.monthFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	s, err := h.summaryService.Summarize(r.Context(), principal(r).CompanyID, employeeID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, s)
}

// My implements SummaryHandler.
func (h *summaryHandlerImpl) My(w http.ResponseWriter, r *http.Request) {
	h.summarize(w, r, principal(r).EmployeeID)
}

// Get implements SummaryHandler.
func (h *summaryHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathID(r, "employee_id", employee.ErrEmployeeNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if !canAccessEmployee(principal(r), employeeID, user.PermissionReportsView) {
		response.HandleError(w, user.ErrInsufficientPermissions)
		return
	}
	h.summarize(w, r, employeeID)
}

// Register implements SummaryHandler.
func (h *summaryHandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	req, err := h.monthFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	reg, err := h.summaryService.Register(r.Context(), principal(r).CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, reg)
}

// ExportRegister implements SummaryHandler.
func (h *summaryHandlerImpl) ExportRegister(w http.ResponseWriter, r *http.Request) {
	req, err := h.monthFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.summaryService.ExportRegister(r.Context(), principal(r).CompanyID, req, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	filename := fmt.Sprintf("attendance-register-%04d-%02d.xlsx", req.Year, req.Month)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "failed to stream register export", "error", err)
	}
}
