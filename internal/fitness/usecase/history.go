package usecase

import (
	"context"
	"log"
	"strconv"
	"time"

	"mindbody-backend/internal/fitness/domain"
	"mindbody-backend/internal/fitness/repository"
	"mindbody-backend/pkg/observability"
	"mindbody-backend/pkg/recordstore"
)

var historyColumns = []string{"run_id", "provider", "status", "rows", "profile_rows", "skipped", "source", "error", "message", "finished_at"}

// historyLog appends one sync_history row per run.
type historyLog struct {
	records repository.RecordRepository
}

func (h historyLog) record(ctx context.Context, user string, res domain.SyncResult) {
	row := recordstore.Record{
		"run_id":       res.RunID,
		"provider":     res.Provider,
		"status":       res.Status,
		"rows":         strconv.Itoa(res.Rows),
		"profile_rows": strconv.Itoa(res.ProfileRows),
		"skipped":      strconv.Itoa(res.Skipped),
		"source":       res.Source,
		"error":        res.Error,
		"message":      res.Message,
		"finished_at":  res.FinishedAt.UTC().Format(time.RFC3339),
	}
	if _, err := h.records.Append(ctx, user, domain.DatasetSyncHistory, []recordstore.Record{row}, res.Provider,
		recordstore.WithColumnOrder(historyColumns...)); err != nil {
		log.Printf("[Sync] Failed to record history for %s (%s): %v", user, res.Provider, err)
	}
	observability.RecordSync(res.Provider, res.Status, res.FinishedAt)
}

func (h historyLog) list(ctx context.Context, user string) ([]recordstore.Record, error) {
	return h.records.Read(ctx, user, domain.DatasetSyncHistory)
}

func (h historyLog) last(ctx context.Context, user, provider string) (*domain.SyncResult, error) {
	rows, err := h.list(ctx, user)
	if err != nil {
		return nil, err
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i]["provider"] == provider {
			return resultFromRow(rows[i]), nil
		}
	}
	return nil, nil
}

func resultFromRow(row recordstore.Record) *domain.SyncResult {
	res := &domain.SyncResult{
		RunID:    row["run_id"],
		Provider: row["provider"],
		Status:   row["status"],
		Source:   row["source"],
		Error:    row["error"],
		Message:  row["message"],
	}
	res.Rows, _ = strconv.Atoi(row["rows"])
	res.ProfileRows, _ = strconv.Atoi(row["profile_rows"])
	res.Skipped, _ = strconv.Atoi(row["skipped"])
	res.FinishedAt, _ = time.Parse(time.RFC3339, row["finished_at"])
	return res
}
