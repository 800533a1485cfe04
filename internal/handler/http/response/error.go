package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/device"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var deviceErr *device.CommunicationError
	if errors.As(err, &deviceErr) {
		BadGateway(w, deviceErr.Error())
		return
	}

	switch {
	// Caller identity
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing access token")
	case errors.Is(err, user.ErrCompanyIDRequired):
		Unauthorized(w, "Access token has no company")
	case errors.Is(err, user.ErrEmployeeIDRequired):
		Forbidden(w, "This action requires an employee account")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())
	case errors.Is(err, punch.ErrInvalidAPIKey):
		Unauthorized(w, err.Error())

	// Not found
	case errors.Is(err, employee.ErrEmployeeNotFound), errors.Is(err, attendance.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, shift.ErrShiftNotFound):
		NotFound(w, "Shift not found")
	case errors.Is(err, shift.ErrAssignmentNotFound):
		NotFound(w, "Shift assignment not found")
	case errors.Is(err, regularization.ErrRequestNotFound):
		NotFound(w, "Regularization request not found")
	case errors.Is(err, leave.ErrLeaveNotFound):
		NotFound(w, "Leave record not found")
	case errors.Is(err, leave.ErrAllocationNotFound):
		NotFound(w, "Leave allocation not found")
	case errors.Is(err, leave.ErrHolidayNotFound):
		NotFound(w, "Holiday not found")

	// Conflicts
	case errors.Is(err, shift.ErrShiftNameExists),
		errors.Is(err, regularization.ErrNotPending),
		errors.Is(err, regularization.ErrNotTerminal),
		errors.Is(err, leave.ErrLeaveAlreadyCancelled),
		errors.Is(err, leave.ErrLeaveOverlap),
		errors.Is(err, leave.ErrHolidayExists):
		Conflict(w, err.Error())

	// Rule violations carried with their own message
	case errors.Is(err, regularization.ErrDuplicateActiveRequest),
		errors.Is(err, regularization.ErrRejectionReasonRequired),
		errors.Is(err, regularization.ErrCannotDeleteProcessed),
		errors.Is(err, regularization.ErrNonWorkingDay),
		errors.Is(err, regularization.ErrFutureDate),
		errors.Is(err, shift.ErrShiftTimesImmutable),
		errors.Is(err, shift.ErrInvalidShiftTimes),
		errors.Is(err, shift.ErrInvalidAssignRange),
		errors.Is(err, shift.ErrEmployeeIDRequired),
		errors.Is(err, payroll.ErrEmployeeHasNoBaseSalary):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, regularization.ErrUnauthorized):
		Forbidden(w, err.Error())
	case errors.Is(err, punch.ErrDeviceSyncOff):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
