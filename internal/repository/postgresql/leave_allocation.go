package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveAllocationRepositoryImpl struct {
	db *database.DB
}

func NewLeaveAllocationRepository(db *database.DB) leave.AllocationRepository {
	return &leaveAllocationRepositoryImpl{db: db}
}

// Get implements leave.AllocationRepository.
func (l *leaveAllocationRepositoryImpl) Get(ctx context.Context, employeeID string, year int) (leave.Allocation, error) {
	q := GetQuerier(ctx, l.db)

	var a leave.Allocation
	err := q.QueryRow(ctx, `
		SELECT employee_id, year, casual, sick, earned, unpaid, updated_at
		FROM leave_allocations
		WHERE employee_id = $1 AND year = $2`, employeeID, year,
	).Scan(&a.EmployeeID, &a.Year, &a.Casual, &a.Sick, &a.Earned, &a.Unpaid, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Allocation{}, leave.ErrAllocationNotFound
		}
		return leave.Allocation{}, fmt.Errorf("failed to get leave allocation: %w", err)
	}
	return a, nil
}

// Upsert implements leave.AllocationRepository.
func (l *leaveAllocationRepositoryImpl) Upsert(ctx context.Context, a leave.Allocation) (leave.Allocation, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		INSERT INTO leave_allocations (employee_id, year, casual, sick, earned, unpaid, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (employee_id, year) DO UPDATE SET
			casual = EXCLUDED.casual,
			sick = EXCLUDED.sick,
			earned = EXCLUDED.earned,
			unpaid = EXCLUDED.unpaid,
			updated_at = now()
		RETURNING updated_at
	`
	if err := q.QueryRow(ctx, query, a.EmployeeID, a.Year, a.Casual, a.Sick, a.Earned, a.Unpaid).Scan(&a.UpdatedAt); err != nil {
		return leave.Allocation{}, fmt.Errorf("failed to upsert leave allocation: %w", err)
	}
	return a, nil
}
