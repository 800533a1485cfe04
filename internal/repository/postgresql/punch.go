package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
)

type punchRepository struct {
	db *database.DB
}

// Insert implements punch.PunchRepository.
func (r *punchRepository) Insert(ctx context.Context, e punch.Event) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		INSERT INTO punch_events (id, employee_id, device_user_id, punched_at)
		VALUES (uuidv7(), $1, $2, $3)
		ON CONFLICT (employee_id, punched_at) DO NOTHING`,
		e.EmployeeID, e.DeviceUserID, e.PunchedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert punch event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListBetween implements punch.PunchRepository.
func (r *punchRepository) ListBetween(ctx context.Context, employeeID string, from, to time.Time) ([]time.Time, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT punched_at FROM punch_events
		WHERE employee_id = $1 AND punched_at >= $2 AND punched_at < $3
		ORDER BY punched_at`, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list punch events: %w", err)
	}
	defer rows.Close()

	var punches []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan punch event: %w", err)
		}
		punches = append(punches, t)
	}
	return punches, rows.Err()
}

func NewPunchRepository(db *database.DB) punch.PunchRepository {
	return &punchRepository{db: db}
}

type deviceLinkRepository struct {
	db *database.DB
}

// GetByDeviceUserIDs implements punch.DeviceLinkRepository.
func (r *deviceLinkRepository) GetByDeviceUserIDs(ctx context.Context, deviceUserIDs []string) (map[string]punch.DeviceLink, error) {
	q := GetQuerier(ctx, r.db)

	links := make(map[string]punch.DeviceLink, len(deviceUserIDs))
	if len(deviceUserIDs) == 0 {
		return links, nil
	}

	rows, err := q.Query(ctx, `
		SELECT l.device_user_id, l.employee_id, l.company_id
		FROM device_user_links l
		JOIN employees e ON e.id = l.employee_id AND e.deleted_at IS NULL
		WHERE l.device_user_id = ANY($1)`, deviceUserIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve device users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l punch.DeviceLink
		if err := rows.Scan(&l.DeviceUserID, &l.EmployeeID, &l.CompanyID); err != nil {
			return nil, fmt.Errorf("failed to scan device link: %w", err)
		}
		links[l.DeviceUserID] = l
	}
	return links, rows.Err()
}

func NewDeviceLinkRepository(db *database.DB) punch.DeviceLinkRepository {
	return &deviceLinkRepository{db: db}
}
