package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
)

type HolidayHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	PopulateSundays(w http.ResponseWriter, r *http.Request)
}

type holidayHandlerImpl struct {
	holidayService leave.HolidayService
	clock          clock.Clock
}

func NewHolidayHandler(holidayService leave.HolidayService, clk clock.Clock) HolidayHandler {
	return &holidayHandlerImpl{holidayService: holidayService, clock: clk}
}

// List implements HolidayHandler.
func (h *holidayHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", h.clock.Now().Year())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	holidays, err := h.holidayService.ListHolidays(r.Context(), principal(r).CompanyID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, holidays)
}

// Create implements HolidayHandler.
func (h *holidayHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req leave.CreateHolidayRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.holidayService.AddHoliday(r.Context(), principal(r).CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Holiday created successfully", created)
}

// Delete implements HolidayHandler.
func (h *holidayHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", leave.ErrHolidayNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.holidayService.DeleteHoliday(r.Context(), principal(r).CompanyID, id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Holiday deleted successfully", nil)
}

// PopulateSundays implements HolidayHandler. Body {"year": 2024}; defaults to
// the current year.
func (h *holidayHandlerImpl) PopulateSundays(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Year int `json:"year"`
	}{}
	if r.ContentLength != 0 && !decodeJSON(w, r, &body) {
		return
	}
	if body.Year == 0 {
		body.Year = h.clock.Now().Year()
	}

	result, err := h.holidayService.PopulateSundays(r.Context(), principal(r).CompanyID, body.Year)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Sundays populated", result)
}
