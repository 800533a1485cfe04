package shift

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
)

// Resolver implements shift.Resolver on top of the assignment store.
type Resolver struct {
	assignmentRepository shift.AssignmentRepository
}

func NewResolver(assignmentRepo shift.AssignmentRepository) *Resolver {
	return &Resolver{assignmentRepository: assignmentRepo}
}

// ResolveForEmployee implements shift.Resolver. More than one covering
// assignment is a data consistency problem; it is logged and the newest wins.
func (r *Resolver) ResolveForEmployee(ctx context.Context, employeeID string, date time.Time) (*shift.Resolution, error) {
	date = clock.Date(date, nil)
	candidates, err := r.assignmentRepository.ListCovering(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift assignments: %w", err)
	}
	if len(candidates) > 1 {
		ids := make([]string, len(candidates))
		for i, c := range candidates {
			ids[i] = c.ID
		}
		slog.WarnContext(ctx, "overlapping shift assignments",
			"employee_id", employeeID,
			"date", date.Format(clock.DateLayout),
			"assignment_ids", ids,
		)
	}
	return shift.Resolve(candidates, date), nil
}
