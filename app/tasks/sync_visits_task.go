package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lwestby/hilltally/app/ingest"
)

type SyncVisitsTask struct {
	Task
	CredentialID int64
	orchestrator *ingest.Orchestrator
}

// NewSyncVisitsTask wraps a daily badge-in sync. MaxRetries is zero because
// the orchestrator runs its own attempt loop and records the outcome.
func NewSyncVisitsTask(account string, credentialID int64, orchestrator *ingest.Orchestrator) *SyncVisitsTask {
	task := NewTask(TaskTypeSyncVisits, account)
	task.MaxRetries = 0

	return &SyncVisitsTask{
		Task:         task,
		CredentialID: credentialID,
		orchestrator: orchestrator,
	}
}

func (t *SyncVisitsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.orchestrator.RunDaily(ctx, t.CredentialID)
	if err != nil {
		slog.Error("Task failed", "type", "SyncVisits", "account", t.Account, "error", err)
		return fmt.Errorf("failed to sync visits: %w", err)
	}

	if result.Skipped {
		slog.Debug("Task skipped, already synced today", "type", "SyncVisits", "account", t.Account)
		return nil
	}

	slog.Info("Task completed",
		"type", "SyncVisits",
		"account", t.Account,
		"found", result.Found,
		"added", result.Added,
		"duration", t.GetDuration())

	return nil
}
