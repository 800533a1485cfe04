package punch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
	"github.com/google/uuid"
)

// LogFetcher pulls buffered logs from a bridge agent.
type LogFetcher interface {
	FetchLogs(ctx context.Context, since time.Time) ([]punch.LogEntry, error)
}

type IngestServiceImpl struct {
	punch.PunchRepository
	deviceLinkRepository punch.DeviceLinkRepository
	reclassifier         attendance.Reclassifier
	clock                clock.Clock
	fetcher              LogFetcher

	pullMu   sync.Mutex
	lastPull time.Time
}

type employeeDay struct {
	employeeID string
	date       time.Time
}

// Ingest implements punch.IngestService. Bad entries are skipped and counted;
// only storage failures abort the batch. Redelivering a batch is safe.
func (s *IngestServiceImpl) Ingest(ctx context.Context, req punch.IngestRequest) (punch.IngestResult, error) {
	if err := req.Validate(); err != nil {
		return punch.IngestResult{}, err
	}

	batchID := uuid.NewString()
	loc := s.clock.Location()
	result := punch.IngestResult{Received: len(req.Logs)}

	links, err := s.deviceLinkRepository.GetByDeviceUserIDs(ctx, distinctUserIDs(req.Logs))
	if err != nil {
		return punch.IngestResult{}, fmt.Errorf("failed to resolve device users: %w", err)
	}

	affected := make(map[employeeDay]struct{})
	for _, entry := range req.Logs {
		userID := strings.TrimSpace(entry.UserID)
		if userID == "" {
			result.Skip(punch.SkipEmptyUserID)
			slog.WarnContext(ctx, "skipping punch without user id", "batch_id", batchID, "record_time", entry.RecordTime)
			continue
		}
		link, ok := links[userID]
		if !ok {
			result.Skip(punch.SkipUnlinkedUserID)
			slog.WarnContext(ctx, "skipping punch from unlinked device user", "batch_id", batchID, "device_user_id", userID)
			continue
		}
		at, ok := validator.ParseDeviceTime(entry.RecordTime, loc)
		if !ok {
			result.Skip(punch.SkipInvalidTimestamp)
			slog.WarnContext(ctx, "skipping punch with unparsable time",
				"batch_id", batchID, "device_user_id", userID, "record_time", entry.RecordTime)
			continue
		}

		inserted, err := s.PunchRepository.Insert(ctx, punch.Event{
			EmployeeID:   link.EmployeeID,
			DeviceUserID: userID,
			PunchedAt:    at,
		})
		if err != nil {
			return result, fmt.Errorf("failed to store punch: %w", err)
		}
		if inserted {
			result.Accepted++
		} else {
			result.Duplicates++
		}

		// Duplicates still mark the day so a redelivered batch repairs a
		// classification that failed the first time.
		affected[employeeDay{link.EmployeeID, clock.Date(at, loc)}] = struct{}{}
	}

	s.reclassify(ctx, batchID, affected, &result)

	slog.InfoContext(ctx, "punch batch ingested",
		"batch_id", batchID,
		"received", result.Received,
		"accepted", result.Accepted,
		"duplicates", result.Duplicates,
		"skipped", result.Skipped,
		"days_affected", result.DaysAffected,
	)
	return result, nil
}

func (s *IngestServiceImpl) reclassify(ctx context.Context, batchID string, affected map[employeeDay]struct{}, result *punch.IngestResult) {
	days := make([]employeeDay, 0, len(affected))
	for d := range affected {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		if days[i].employeeID != days[j].employeeID {
			return days[i].employeeID < days[j].employeeID
		}
		return days[i].date.Before(days[j].date)
	})

	result.DaysAffected = len(days)
	for _, d := range days {
		if _, err := s.reclassifier.ClassifyAndPersist(ctx, d.employeeID, d.date); err != nil {
			slog.ErrorContext(ctx, "failed to classify day after ingest",
				"batch_id", batchID, "employee_id", d.employeeID, "date", d.date.Format(clock.DateLayout), "error", err)
			result.ClassifyErrors = append(result.ClassifyErrors,
				fmt.Sprintf("%s %s: %v", d.employeeID, d.date.Format(clock.DateLayout), err))
			continue
		}
		result.Reclassified++
	}
}

func distinctUserIDs(logs []punch.LogEntry) []string {
	seen := make(map[string]struct{}, len(logs))
	ids := make([]string, 0, len(logs))
	for _, l := range logs {
		id := strings.TrimSpace(l.UserID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// PullFromDevice implements punch.IngestService. The watermark only advances
// after a successful ingest, so a failed pull is retried from the same point.
func (s *IngestServiceImpl) PullFromDevice(ctx context.Context) (punch.IngestResult, error) {
	if s.fetcher == nil {
		return punch.IngestResult{}, punch.ErrDeviceSyncOff
	}

	s.pullMu.Lock()
	defer s.pullMu.Unlock()

	startedAt := s.clock.Now()
	since := s.lastPull
	if since.IsZero() {
		since = clock.OnDate(clock.Today(s.clock).AddDate(0, 0, -1), 0, s.clock.Location())
	}

	logs, err := s.fetcher.FetchLogs(ctx, since)
	if err != nil {
		return punch.IngestResult{}, err
	}

	var result punch.IngestResult
	for start := 0; start < len(logs); start += punch.MaxBatchSize {
		end := min(start+punch.MaxBatchSize, len(logs))
		part, err := s.Ingest(ctx, punch.IngestRequest{Logs: logs[start:end]})
		if err != nil {
			return result, err
		}
		mergeResult(&result, part)
	}

	s.lastPull = startedAt
	return result, nil
}

func mergeResult(dst *punch.IngestResult, src punch.IngestResult) {
	dst.Received += src.Received
	dst.Accepted += src.Accepted
	dst.Duplicates += src.Duplicates
	dst.DaysAffected += src.DaysAffected
	dst.Reclassified += src.Reclassified
	dst.ClassifyErrors = append(dst.ClassifyErrors, src.ClassifyErrors...)
	for reason, n := range src.SkipReasons {
		for range n {
			dst.Skip(reason)
		}
	}
}

// NewIngestService builds the ingester. fetcher may be nil when no bridge is
// configured for pulling.
func NewIngestService(
	punchRepo punch.PunchRepository,
	deviceLinkRepo punch.DeviceLinkRepository,
	reclassifier attendance.Reclassifier,
	clk clock.Clock,
	fetcher LogFetcher,
) *IngestServiceImpl {
	return &IngestServiceImpl{
		PunchRepository:      punchRepo,
		deviceLinkRepository: deviceLinkRepo,
		reclassifier:         reclassifier,
		clock:                clk,
		fetcher:              fetcher,
	}
}

var _ punch.IngestService = (*IngestServiceImpl)(nil)
