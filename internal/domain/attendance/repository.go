package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// LockDay serialises writers of one employee-day for the rest of the
	// current transaction.
	LockDay(ctx context.Context, employeeID string, date time.Time) error
	Upsert(ctx context.Context, rec Record) error
	Delete(ctx context.Context, employeeID string, date time.Time) error
	Get(ctx context.Context, employeeID string, date time.Time) (Record, error)
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
}
