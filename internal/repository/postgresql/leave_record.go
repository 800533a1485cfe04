package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRecordRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRecordRepository(db *database.DB) leave.RecordRepository {
	return &leaveRecordRepositoryImpl{db: db}
}

const leaveRecordColumns = `id, employee_id, start_date, end_date, leave_type, status, reason, created_at, cancelled_at`

func scanLeaveRecord(row pgx.Row) (leave.Record, error) {
	var r leave.Record
	var leaveType, status string
	err := row.Scan(&r.ID, &r.EmployeeID, &r.StartDate, &r.EndDate, &leaveType, &status, &r.Reason, &r.CreatedAt, &r.CancelledAt)
	if err != nil {
		return leave.Record{}, err
	}
	r.LeaveType = leave.LeaveType(leaveType)
	r.Status = leave.RecordStatus(status)
	return r, nil
}

func collectLeaveRecords(rows pgx.Rows) ([]leave.Record, error) {
	defer rows.Close()

	var out []leave.Record
	for rows.Next() {
		r, err := scanLeaveRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Create implements leave.RecordRepository.
func (l *leaveRecordRepositoryImpl) Create(ctx context.Context, r leave.Record) (leave.Record, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		INSERT INTO leave_records (id, employee_id, start_date, end_date, leave_type, status, reason)
		VALUES (uuidv7(), $1, $2, $3, $4, $5, $6)
		RETURNING ` + leaveRecordColumns

	created, err := scanLeaveRecord(q.QueryRow(ctx, query,
		r.EmployeeID, dateOnly(r.StartDate), dateOnly(r.EndDate), string(r.LeaveType), string(leave.RecordStatusApproved), r.Reason))
	if err != nil {
		return leave.Record{}, fmt.Errorf("failed to create leave record: %w", err)
	}
	return created, nil
}

// GetByID implements leave.RecordRepository.
func (l *leaveRecordRepositoryImpl) GetByID(ctx context.Context, id string) (leave.Record, error) {
	q := GetQuerier(ctx, l.db)

	r, err := scanLeaveRecord(q.QueryRow(ctx, `SELECT `+leaveRecordColumns+` FROM leave_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Record{}, leave.ErrLeaveNotFound
		}
		return leave.Record{}, fmt.Errorf("failed to get leave record with id %s: %w", id, err)
	}
	return r, nil
}

// Cancel implements leave.RecordRepository.
func (l *leaveRecordRepositoryImpl) Cancel(ctx context.Context, id string) error {
	q := GetQuerier(ctx, l.db)

	tag, err := q.Exec(ctx, `
		UPDATE leave_records SET status = $2, cancelled_at = now()
		WHERE id = $1 AND status = $3`,
		id, string(leave.RecordStatusCancelled), string(leave.RecordStatusApproved))
	if err != nil {
		return fmt.Errorf("failed to cancel leave record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveAlreadyCancelled
	}
	return nil
}

// FindApprovedCovering implements leave.RecordRepository.
func (l *leaveRecordRepositoryImpl) FindApprovedCovering(ctx context.Context, employeeID string, date time.Time) (*leave.Record, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT ` + leaveRecordColumns + `
		FROM leave_records
		WHERE employee_id = $1 AND status = $2 AND start_date <= $3 AND end_date >= $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	r, err := scanLeaveRecord(q.QueryRow(ctx, query, employeeID, string(leave.RecordStatusApproved), dateOnly(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find leave: %w", err)
	}
	return &r, nil
}

// ListApprovedOverlapping implements leave.RecordRepository.
func (l *leaveRecordRepositoryImpl) ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Record, error) {
	q := GetQuerier(ctx, l.db)

	rows, err := q.Query(ctx, `
		SELECT `+leaveRecordColumns+`
		FROM leave_records
		WHERE employee_id = $1 AND status = $2 AND start_date <= $4 AND end_date >= $3
		ORDER BY start_date`,
		employeeID, string(leave.RecordStatusApproved), dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list overlapping leaves: %w", err)
	}
	return collectLeaveRecords(rows)
}

// ListByEmployee implements leave.RecordRepository.
func (l *leaveRecordRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, year int) ([]leave.Record, error) {
	q := GetQuerier(ctx, l.db)

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	rows, err := q.Query(ctx, `
		SELECT `+leaveRecordColumns+`
		FROM leave_records
		WHERE employee_id = $1 AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date DESC`,
		employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaves: %w", err)
	}
	return collectLeaveRecords(rows)
}
