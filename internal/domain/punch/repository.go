package punch

import (
	"context"
	"time"
)

type PunchRepository interface {
	// Insert stores the event unless (employee_id, punched_at) already
	// exists. It reports whether a row was written.
	Insert(ctx context.Context, e Event) (bool, error)
	// ListBetween returns punch instants in [from, to) ordered ascending.
	ListBetween(ctx context.Context, employeeID string, from, to time.Time) ([]time.Time, error)
}

type DeviceLinkRepository interface {
	GetByDeviceUserIDs(ctx context.Context, deviceUserIDs []string) (map[string]DeviceLink, error)
}
