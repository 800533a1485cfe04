package punch

import "errors"

var (
	ErrEmptyBatch    = errors.New("logs must contain at least one entry")
	ErrBatchTooLarge = errors.New("logs exceed the maximum batch size")
	ErrInvalidAPIKey = errors.New("invalid or missing bridge API key")
	ErrDeviceSyncOff = errors.New("device sync is not configured")
)
