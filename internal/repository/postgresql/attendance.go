package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

// LockDay implements attendance.AttendanceRepository.
func (a *attendanceRepository) LockDay(ctx context.Context, employeeID string, date time.Time) error {
	q := GetQuerier(ctx, a.db)

	_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2::text, 0))`,
		employeeID, dateOnly(date).Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to lock attendance day: %w", err)
	}
	return nil
}

// Upsert implements attendance.AttendanceRepository.
func (a *attendanceRepository) Upsert(ctx context.Context, rec attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			employee_id, work_date, status, check_in, check_out, work_hours, leave_type, shift_id, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (employee_id, work_date) DO UPDATE SET
			status = EXCLUDED.status,
			check_in = EXCLUDED.check_in,
			check_out = EXCLUDED.check_out,
			work_hours = EXCLUDED.work_hours,
			leave_type = EXCLUDED.leave_type,
			shift_id = EXCLUDED.shift_id,
			updated_at = now()
	`
	_, err := q.Exec(ctx, query,
		rec.EmployeeID, dateOnly(rec.Date), string(rec.Status),
		rec.CheckIn, rec.CheckOut, rec.WorkHours, rec.LeaveType, rec.ShiftID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert attendance record: %w", err)
	}
	return nil
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepository) Delete(ctx context.Context, employeeID string, date time.Time) error {
	q := GetQuerier(ctx, a.db)

	_, err := q.Exec(ctx, `DELETE FROM attendance_records WHERE employee_id = $1 AND work_date = $2`, employeeID, dateOnly(date))
	if err != nil {
		return fmt.Errorf("failed to delete attendance record: %w", err)
	}
	return nil
}

const recordColumns = `employee_id, work_date, status, check_in, check_out, work_hours::float8, leave_type, shift_id, updated_at`

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	var status string
	err := row.Scan(&rec.EmployeeID, &rec.Date, &status, &rec.CheckIn, &rec.CheckOut, &rec.WorkHours, &rec.LeaveType, &rec.ShiftID, &rec.UpdatedAt)
	if err != nil {
		return attendance.Record{}, err
	}
	rec.Status = attendance.Status(status)
	return rec, nil
}

// Get implements attendance.AttendanceRepository.
func (a *attendanceRepository) Get(ctx context.Context, employeeID string, date time.Time) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	rec, err := scanRecord(q.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM attendance_records WHERE employee_id = $1 AND work_date = $2`,
		employeeID, dateOnly(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return rec, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx,
		`SELECT `+recordColumns+` FROM attendance_records
		 WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
		 ORDER BY work_date`,
		employeeID, dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
