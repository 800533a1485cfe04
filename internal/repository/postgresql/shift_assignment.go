package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type shiftAssignmentRepository struct {
	db *database.DB
}

const assignmentWithShiftSelect = `
	SELECT a.id, a.employee_id, a.shift_id, a.from_date, a.to_date, a.grace_override_minutes, a.created_at,
	       s.id, s.company_id, s.name, s.start_time, s.end_time, s.default_grace_minutes, s.created_at, s.updated_at, s.deleted_at
	FROM shift_assignments a
	JOIN shift_presets s ON s.id = a.shift_id
`

func scanAssignmentWithShift(row pgx.Row) (shift.AssignmentWithShift, error) {
	var aw shift.AssignmentWithShift
	var start, end pgtype.Time
	err := row.Scan(
		&aw.ID, &aw.EmployeeID, &aw.ShiftID, &aw.FromDate, &aw.ToDate, &aw.GraceOverrideMinutes, &aw.CreatedAt,
		&aw.Shift.ID, &aw.Shift.CompanyID, &aw.Shift.Name, &start, &end, &aw.Shift.DefaultGraceMinutes,
		&aw.Shift.CreatedAt, &aw.Shift.UpdatedAt, &aw.Shift.DeletedAt,
	)
	if err != nil {
		return shift.AssignmentWithShift{}, err
	}
	aw.Shift.StartTime = fromPgTime(start)
	aw.Shift.EndTime = fromPgTime(end)
	return aw, nil
}

func collectAssignments(rows pgx.Rows) ([]shift.AssignmentWithShift, error) {
	defer rows.Close()

	var out []shift.AssignmentWithShift
	for rows.Next() {
		aw, err := scanAssignmentWithShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift assignment: %w", err)
		}
		out = append(out, aw)
	}
	return out, rows.Err()
}

// Create implements shift.AssignmentRepository.
func (r *shiftAssignmentRepository) Create(ctx context.Context, a shift.Assignment) (shift.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	var toDate *time.Time
	if a.ToDate != nil {
		d := dateOnly(*a.ToDate)
		toDate = &d
	}

	query := `
		INSERT INTO shift_assignments (id, employee_id, shift_id, from_date, to_date, grace_override_minutes)
		VALUES (uuidv7(), $1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := q.QueryRow(ctx, query,
		a.EmployeeID, a.ShiftID, dateOnly(a.FromDate), toDate, a.GraceOverrideMinutes,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return shift.Assignment{}, fmt.Errorf("failed to create shift assignment: %w", err)
	}
	return a, nil
}

// GetByID implements shift.AssignmentRepository.
func (r *shiftAssignmentRepository) GetByID(ctx context.Context, id string) (shift.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	var a shift.Assignment
	err := q.QueryRow(ctx, `
		SELECT id, employee_id, shift_id, from_date, to_date, grace_override_minutes, created_at
		FROM shift_assignments WHERE id = $1`, id,
	).Scan(&a.ID, &a.EmployeeID, &a.ShiftID, &a.FromDate, &a.ToDate, &a.GraceOverrideMinutes, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Assignment{}, shift.ErrAssignmentNotFound
		}
		return shift.Assignment{}, fmt.Errorf("failed to get shift assignment: %w", err)
	}
	return a, nil
}

// ListByEmployee implements shift.AssignmentRepository.
func (r *shiftAssignmentRepository) ListByEmployee(ctx context.Context, employeeID string) ([]shift.AssignmentWithShift, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, assignmentWithShiftSelect+`
		WHERE a.employee_id = $1
		ORDER BY a.from_date DESC, a.created_at DESC`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift assignments: %w", err)
	}
	return collectAssignments(rows)
}

// ListCovering implements shift.AssignmentRepository.
func (r *shiftAssignmentRepository) ListCovering(ctx context.Context, employeeID string, date time.Time) ([]shift.AssignmentWithShift, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, assignmentWithShiftSelect+`
		WHERE a.employee_id = $1
		  AND a.from_date <= $2
		  AND (a.to_date IS NULL OR a.to_date >= $2)
		ORDER BY a.created_at DESC, a.id DESC`, employeeID, dateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list covering assignments: %w", err)
	}
	return collectAssignments(rows)
}

// Delete implements shift.AssignmentRepository.
func (r *shiftAssignmentRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM shift_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrAssignmentNotFound
	}
	return nil
}

func NewShiftAssignmentRepository(db *database.DB) shift.AssignmentRepository {
	return &shiftAssignmentRepository{db: db}
}
