package leave

import (
	"context"
)

type LeaveService interface {
	RecordLeave(ctx context.Context, companyID string, req RecordLeaveRequest) (RecordResponse, error)
	CancelLeave(ctx context.Context, companyID, id string) error
	ListLeaves(ctx context.Context, companyID, employeeID string, year int) ([]RecordResponse, error)

	GetAllocation(ctx context.Context, companyID, employeeID string, year int) (AllocationResponse, error)
	UpsertAllocation(ctx context.Context, companyID string, req UpsertAllocationRequest) (AllocationResponse, error)
}

type HolidayService interface {
	ListHolidays(ctx context.Context, companyID string, year int) ([]HolidayResponse, error)
	AddHoliday(ctx context.Context, companyID string, req CreateHolidayRequest) (HolidayResponse, error)
	DeleteHoliday(ctx context.Context, companyID, id string) error
	PopulateSundays(ctx context.Context, companyID string, year int) (PopulateSundaysResponse, error)
}
