package regularization

import "context"

type RegularizationService interface {
	Submit(ctx context.Context, companyID, employeeID string, req SubmitRequest) (RequestResponse, error)
	Decide(ctx context.Context, companyID, requestID, approverID string, req DecideRequest) (RequestResponse, error)
	Revert(ctx context.Context, companyID, requestID string) (RequestResponse, error)
	// Delete removes a pending request. A non-empty employeeID restricts
	// deletion to that employee's own requests.
	Delete(ctx context.Context, companyID, requestID, employeeID string) error
	Get(ctx context.Context, companyID, requestID string) (RequestResponse, error)
	List(ctx context.Context, companyID string, filter Filter) ([]RequestResponse, error)
}
