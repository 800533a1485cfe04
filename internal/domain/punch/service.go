package punch

import "context"

type IngestService interface {
	Ingest(ctx context.Context, req IngestRequest) (IngestResult, error)
	// PullFromDevice fetches pending logs from the configured bridge and
	// ingests them.
	PullFromDevice(ctx context.Context) (IngestResult, error)
}
