package leave

import (
	"context"
	"time"
)

type RecordRepository interface {
	Create(ctx context.Context, r Record) (Record, error)
	GetByID(ctx context.Context, id string) (Record, error)
	Cancel(ctx context.Context, id string) error
	// FindApprovedCovering returns the approved leave covering date, or nil.
	FindApprovedCovering(ctx context.Context, employeeID string, date time.Time) (*Record, error)
	ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
	ListByEmployee(ctx context.Context, employeeID string, year int) ([]Record, error)
}

type AllocationRepository interface {
	Get(ctx context.Context, employeeID string, year int) (Allocation, error)
	Upsert(ctx context.Context, a Allocation) (Allocation, error)
}

type HolidayRepository interface {
	Create(ctx context.Context, h Holiday) (Holiday, error)
	GetByID(ctx context.Context, id, companyID string) (Holiday, error)
	Delete(ctx context.Context, id, companyID string) error
	ExistsOnDate(ctx context.Context, companyID string, date time.Time) (bool, error)
	ListByYear(ctx context.Context, companyID string, year int) ([]Holiday, error)
	// ListApplicable returns dated holidays inside [from, to] plus every
	// recurring holiday of the company. Callers filter with AppliesOn.
	ListApplicable(ctx context.Context, companyID string, from, to time.Time) ([]Holiday, error)
	// UpsertMany inserts holidays, skipping dates that already exist, and
	// returns how many rows were written.
	UpsertMany(ctx context.Context, holidays []Holiday) (int, error)
}
