package punch

import "time"

// Event is one raw device punch. Events are append-only.
type Event struct {
	ID           string
	EmployeeID   string
	DeviceUserID string
	PunchedAt    time.Time
	IngestedAt   time.Time
}

// DeviceLink maps a device enrolment id to an employee. Maintained by the
// external link-users workflow.
type DeviceLink struct {
	DeviceUserID string
	EmployeeID   string
	CompanyID    string
}
