package regularization

import "time"

type RequestType string

const (
	TypeMissedPunchIn  RequestType = "MISSED_PUNCH_IN"
	TypeMissedPunchOut RequestType = "MISSED_PUNCH_OUT"
	TypeLateArrival    RequestType = "LATE_ARRIVAL"
	TypeEarlyDeparture RequestType = "EARLY_DEPARTURE"
	TypeWorkFromHome   RequestType = "WORK_FROM_HOME"
	TypeOther          RequestType = "OTHER"
)

var RequestTypeValues = []string{
	string(TypeMissedPunchIn),
	string(TypeMissedPunchOut),
	string(TypeLateArrival),
	string(TypeEarlyDeparture),
	string(TypeWorkFromHome),
	string(TypeOther),
}

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// MonthlySoftLimit is the number of requests per calendar month after which
// new requests are flagged for stricter review.
const MonthlySoftLimit = 3

type Request struct {
	ID               string
	EmployeeID       string
	Date             time.Time
	RequestedType    RequestType
	Reason           string
	Status           Status
	FlaggedForReview bool
	ApproverID       *string
	RejectionReason  *string
	DecidedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// DTO
	EmployeeName *string
}

func (r Request) IsActive() bool {
	return r.Status == StatusPending || r.Status == StatusApproved
}

func (r Request) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}
