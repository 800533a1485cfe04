package attendance

import (
	"context"
	"time"
)

// Reclassifier re-runs classification for stored days. Workflows that change
// a fact (regularization, leave, holiday, shift assignment) depend on this
// rather than on the full service.
type Reclassifier interface {
	ClassifyAndPersist(ctx context.Context, employeeID string, date time.Time) (*Record, error)
	ReclassifyRange(ctx context.Context, employeeID string, from, to time.Time) error
	Recalculate(ctx context.Context, companyID string, req RecalculateRequest) (RecalculateResult, error)
}

type AttendanceService interface {
	Reclassifier
	GetDay(ctx context.Context, companyID, employeeID string, date time.Time) (RecordResponse, error)
	ListRecords(ctx context.Context, companyID, employeeID string, r DateRange) ([]RecordResponse, error)
}
