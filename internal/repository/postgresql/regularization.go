package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type regularizationRepositoryImpl struct {
	db *database.DB
}

func NewRegularizationRepository(db *database.DB) regularization.RequestRepository {
	return &regularizationRepositoryImpl{db: db}
}

const regularizationColumns = `r.id, r.employee_id, r.work_date, r.requested_type, r.reason, r.status, r.flagged_for_review,
	r.approver_id, r.rejection_reason, r.decided_at, r.created_at, r.updated_at`

func scanRegularization(row pgx.Row, extra ...any) (regularization.Request, error) {
	var req regularization.Request
	var reqType, status string
	dest := []any{
		&req.ID, &req.EmployeeID, &req.Date, &reqType, &req.Reason, &status, &req.FlaggedForReview,
		&req.ApproverID, &req.RejectionReason, &req.DecidedAt, &req.CreatedAt, &req.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return regularization.Request{}, err
	}
	req.RequestedType = regularization.RequestType(reqType)
	req.Status = regularization.Status(status)
	return req, nil
}

// Create implements regularization.RequestRepository.
func (r *regularizationRepositoryImpl) Create(ctx context.Context, req regularization.Request) (regularization.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO regularization_requests AS r (id, employee_id, work_date, requested_type, reason, status, flagged_for_review)
		VALUES (uuidv7(), $1, $2, $3, $4, $5, $6)
		RETURNING ` + regularizationColumns

	created, err := scanRegularization(q.QueryRow(ctx, query,
		req.EmployeeID, dateOnly(req.Date), string(req.RequestedType), req.Reason,
		string(regularization.StatusPending), req.FlaggedForReview))
	if err != nil {
		if isUniqueViolation(err) {
			return regularization.Request{}, regularization.ErrDuplicateActiveRequest
		}
		return regularization.Request{}, fmt.Errorf("failed to create regularization request: %w", err)
	}
	return created, nil
}

func (r *regularizationRepositoryImpl) getByID(ctx context.Context, id string, forUpdate bool) (regularization.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + regularizationColumns + `, e.full_name
		FROM regularization_requests r
		JOIN employees e ON e.id = r.employee_id
		WHERE r.id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF r`
	}

	var name string
	req, err := scanRegularization(q.QueryRow(ctx, query, id), &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return regularization.Request{}, regularization.ErrRequestNotFound
		}
		return regularization.Request{}, fmt.Errorf("failed to get regularization request with id %s: %w", id, err)
	}
	req.EmployeeName = &name
	return req, nil
}

// GetByIDForUpdate implements regularization.RequestRepository.
func (r *regularizationRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (regularization.Request, error) {
	return r.getByID(ctx, id, true)
}

// GetByID implements regularization.RequestRepository.
func (r *regularizationRepositoryImpl) GetByID(ctx context.Context, id string) (regularization.Request, error) {
	return r.getByID(ctx, id, false)
}

// Update implements regularization.RequestRepository.
func (r *regularizationRepositoryImpl) Update(ctx context.Context, req regularization.Request) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE regularization_requests SET
			status = $2,
			approver_id = $3,
			rejection_reason = $4,
			decided_at = $5,
			updated_at = now()
		WHERE id = $1`,
		req.ID, string(req.Status), req.ApproverID, req.RejectionReason, req.DecidedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return regularization.ErrDuplicateActiveRequest
		}
		return fmt.Errorf("failed to update regularization request: %w", err)
	}
	return nil
}

// Delete implements regularization.RequestRepository.
func (r *regularizationRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM regularization_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete regularization request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return regularization.ErrRequestNotFound
	}
	return nil
}

// HasActive implements regularization.RequestRepository.
func (r *regularizationRepositoryImpl) HasActive(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM regularization_requests
			WHERE employee_id = $1 AND work_date = $2 AND status IN ($3, $4)
		)`, employeeID, dateOnly(date), string(regularization.StatusPending), string(regularization.StatusApproved),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active regularization: %w", err)
	}
	return exists, nil
}

// CountInMonth implements regularization.RequestRepository.
func (r *regularizationRepositoryImpl) CountInMonth(ctx context.Context, employeeID string, year int, month time.Month) (int, error) {
	q := GetQuerier(ctx, r.db)

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var count int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM regularization_requests
		WHERE employee_id = $1 AND work_date >= $2 AND work_date < $3`,
		employeeID, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count regularization requests: %w", err)
	}
	return count, nil
}

// FindApproved implements regularization.RequestRepository.
func (r *regularizationRepositoryImpl) FindApproved(ctx context.Context, employeeID string, date time.Time) (*regularization.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + regularizationColumns + `
		FROM regularization_requests r
		WHERE r.employee_id = $1 AND r.work_date = $2 AND r.status = $3
		LIMIT 1`

	req, err := scanRegularization(q.QueryRow(ctx, query, employeeID, dateOnly(date), string(regularization.StatusApproved)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find approved regularization: %w", err)
	}
	return &req, nil
}

// List implements regularization.RequestRepository.
func (r *regularizationRepositoryImpl) List(ctx context.Context, companyID string, filter regularization.Filter) ([]regularization.Request, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"e.company_id = $1"}
	args := []any{companyID}

	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("r.employee_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if filter.Year > 0 && filter.Month > 0 {
		from := time.Date(filter.Year, time.Month(filter.Month), 1, 0, 0, 0, 0, time.UTC)
		args = append(args, from, from.AddDate(0, 1, 0))
		conditions = append(conditions, fmt.Sprintf("r.work_date >= $%d AND r.work_date < $%d", len(args)-1, len(args)))
	}

	query := `SELECT ` + regularizationColumns + `, e.full_name
		FROM regularization_requests r
		JOIN employees e ON e.id = r.employee_id
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY r.work_date DESC, r.created_at DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list regularization requests: %w", err)
	}
	defer rows.Close()

	var out []regularization.Request
	for rows.Next() {
		var name string
		req, err := scanRegularization(rows, &name)
		if err != nil {
			return nil, fmt.Errorf("failed to scan regularization request: %w", err)
		}
		req.EmployeeName = &name
		out = append(out, req)
	}
	return out, rows.Err()
}
