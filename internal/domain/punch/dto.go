package punch

import (
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// MaxBatchSize caps a single bridge delivery.
const MaxBatchSize = 5000

type LogEntry struct {
	UserID     string `json:"user_id"`
	RecordTime string `json:"record_time"`
}

type IngestRequest struct {
	Logs []LogEntry `json:"logs"`
}

// Validate checks the batch shape only. Individual bad entries are skipped
// during ingest rather than rejected here.
func (r *IngestRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Logs) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "logs",
			Message: ErrEmptyBatch.Error(),
		})
	}
	if len(r.Logs) > MaxBatchSize {
		errs = append(errs, validator.ValidationError{
			Field:   "logs",
			Message: ErrBatchTooLarge.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SkipReason string

const (
	SkipEmptyUserID      SkipReason = "empty_user_id"
	SkipUnlinkedUserID   SkipReason = "unlinked_user_id"
	SkipInvalidTimestamp SkipReason = "invalid_record_time"
)

type IngestResult struct {
	Received       int                `json:"received"`
	Accepted       int                `json:"accepted"`
	Duplicates     int                `json:"duplicates"`
	Skipped        int                `json:"skipped"`
	SkipReasons    map[SkipReason]int `json:"skip_reasons,omitempty"`
	DaysAffected   int                `json:"days_affected"`
	Reclassified   int                `json:"reclassified"`
	ClassifyErrors []string           `json:"classify_errors,omitempty"`
}

// Skip records one skipped entry.
func (r *IngestResult) Skip(reason SkipReason) {
	if r.SkipReasons == nil {
		r.SkipReasons = make(map[SkipReason]int)
	}
	r.Skipped++
	r.SkipReasons[reason]++
}
