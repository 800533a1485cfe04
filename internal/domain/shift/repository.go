package shift

import (
	"context"
	"time"
)

type ShiftRepository interface {
	Create(ctx context.Context, s Shift) (Shift, error)
	GetByID(ctx context.Context, id, companyID string) (Shift, error)
	List(ctx context.Context, companyID string) ([]Shift, error)
	Update(ctx context.Context, s Shift) (Shift, error)
	SoftDelete(ctx context.Context, id, companyID string) error
	IsReferenced(ctx context.Context, id string) (bool, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, a Assignment) (Assignment, error)
	GetByID(ctx context.Context, id string) (Assignment, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]AssignmentWithShift, error)
	// ListCovering returns every assignment of the employee whose interval
	// contains date, joined with its shift (soft-deleted shifts included).
	ListCovering(ctx context.Context, employeeID string, date time.Time) ([]AssignmentWithShift, error)
	Delete(ctx context.Context, id string) error
}
