package regularization

import "errors"

var (
	ErrRequestNotFound = errors.New("regularization request not found")
	ErrNotPending      = errors.New("regularization request has already been processed")
	ErrNotTerminal     = errors.New("only approved or rejected requests can be reverted")
	ErrUnauthorized    = errors.New("unauthorized to access this regularization request")

	// Validation failures surfaced with their own message.
	ErrDuplicateActiveRequest  = errors.New("an active regularization request already exists for this date")
	ErrRejectionReasonRequired = errors.New("rejection_reason is required when rejecting")
	ErrCannotDeleteProcessed   = errors.New("only pending requests can be deleted")
	ErrNonWorkingDay           = errors.New("sundays and holidays cannot be regularized")
	ErrFutureDate              = errors.New("future dates cannot be regularized")
)
