package regularization

import (
	"context"
	"time"
)

type RequestRepository interface {
	Create(ctx context.Context, r Request) (Request, error)
	// GetByIDForUpdate locks the row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id string) (Request, error)
	GetByID(ctx context.Context, id string) (Request, error)
	Update(ctx context.Context, r Request) error
	Delete(ctx context.Context, id string) error
	HasActive(ctx context.Context, employeeID string, date time.Time) (bool, error)
	CountInMonth(ctx context.Context, employeeID string, year int, month time.Month) (int, error)
	// FindApproved returns the approved request for the day, or nil.
	FindApproved(ctx context.Context, employeeID string, date time.Time) (*Request, error)
	List(ctx context.Context, companyID string, filter Filter) ([]Request, error)
}
