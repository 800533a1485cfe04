package summary

import (
	"context"
	"time"
)

// Cache stores computed summaries. Implementations must treat a miss as
// (nil, nil).
type Cache interface {
	Get(ctx context.Context, employeeID string, year int, month time.Month) (*MonthlySummary, error)
	Set(ctx context.Context, s MonthlySummary) error
	Invalidate(ctx context.Context, employeeID string, year int, month time.Month) error
}
