package shift

import (
	"context"
	"time"
)

// Resolver finds the shift in force for an employee on a day.
type Resolver interface {
	// ResolveForEmployee returns the shift in force on date, or nil.
	ResolveForEmployee(ctx context.Context, employeeID string, date time.Time) (*Resolution, error)
}

type ShiftService interface {
	Resolver

	CreateShift(ctx context.Context, companyID string, req CreateShiftRequest) (ShiftResponse, error)
	GetShift(ctx context.Context, companyID, id string) (ShiftResponse, error)
	ListShifts(ctx context.Context, companyID string) ([]ShiftResponse, error)
	UpdateShift(ctx context.Context, companyID string, req UpdateShiftRequest) (ShiftResponse, error)
	DeleteShift(ctx context.Context, companyID, id string) error

	CreateAssignment(ctx context.Context, companyID string, req CreateAssignmentRequest) (AssignmentResponse, error)
	ListAssignments(ctx context.Context, companyID, employeeID string) ([]AssignmentResponse, error)
	DeleteAssignment(ctx context.Context, companyID, id string) error

	Resolve(ctx context.Context, companyID, employeeID string, date time.Time) (ResolveResponse, error)
}
