package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lwestby/hilltally/app/database"
	"github.com/lwestby/hilltally/app/scraper"
	"github.com/lwestby/hilltally/app/vault"
)

// RetryPolicy bounds the attempt loop. Tests inject a zero delay.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 10 * time.Second}
}

// Extractor is the slice of the scraper the orchestrator drives. A new one
// is built per attempt so retries start from a fresh browser session.
type Extractor interface {
	Extract(ctx context.Context, username, password string) ([]scraper.RawVisit, error)
}

// ExtractorFactory launches a fresh extractor (and underlying browser
// session) for one attempt. The returned closer tears the session down.
type ExtractorFactory func(ctx context.Context) (Extractor, func() error, error)

// Result summarizes one orchestrated ingestion run.
type Result struct {
	LogID   int64
	Found   int
	Added   int
	Skipped bool
}

// Orchestrator is the sole error boundary of the ingestion path: the
// extractor and reconciler raise, the orchestrator catches, retries up to
// the policy limit, and records the outcome on the audit log. Callers must
// not retry on top of it.
type Orchestrator struct {
	vault       *vault.Vault
	credentials database.CredentialRepository
	logs        database.LogRepository
	reconciler  *Reconciler
	newSession  ExtractorFactory
	policy      RetryPolicy
	now         func() time.Time
}

func NewOrchestrator(v *vault.Vault, credentials database.CredentialRepository,
	logs database.LogRepository, reconciler *Reconciler,
	newSession ExtractorFactory, policy RetryPolicy) *Orchestrator {
	return &Orchestrator{
		vault:       v,
		credentials: credentials,
		logs:        logs,
		reconciler:  reconciler,
		newSession:  newSession,
		policy:      policy,
		now:         time.Now,
	}
}

// Run executes one full ingestion for the credential: pending audit row,
// bounded attempt loop, terminal success or failure. A missing or inactive
// credential is a configuration error and fails immediately without a log
// row or retries.
func (o *Orchestrator) Run(ctx context.Context, credentialID int64) (*Result, error) {
	credential, err := o.credentials.GetCredential(credentialID)
	if err != nil {
		return nil, fmt.Errorf("failed to load credential %d: %w", credentialID, err)
	}
	if credential == nil {
		return nil, fmt.Errorf("credential %d not found", credentialID)
	}
	if !credential.IsActive {
		return nil, fmt.Errorf("credential %d is inactive", credentialID)
	}

	return o.runAttempts(ctx, credential)
}

// RunDaily is the auto-trigger variant: it no-ops when the credential was
// already synced today. The skip is decided before any log row is written,
// so repeated page loads leave no trace.
func (o *Orchestrator) RunDaily(ctx context.Context, credentialID int64) (*Result, error) {
	credential, err := o.credentials.GetCredential(credentialID)
	if err != nil {
		return nil, fmt.Errorf("failed to load credential %d: %w", credentialID, err)
	}
	if credential == nil {
		return nil, fmt.Errorf("credential %d not found", credentialID)
	}
	if !credential.IsActive {
		return nil, fmt.Errorf("credential %d is inactive", credentialID)
	}

	if last := credential.LastSyncedAt; last != nil {
		now := o.now().UTC()
		if last.UTC().Format("2006-01-02") == now.Format("2006-01-02") {
			slog.Debug("Skipping sync, already synced today", "credential_id", credentialID)
			return &Result{Skipped: true}, nil
		}
	}

	return o.runAttempts(ctx, credential)
}

func (o *Orchestrator) runAttempts(ctx context.Context, credential *database.Credential) (*Result, error) {
	// The pending row goes in before the slow browser work so concurrent
	// observers can see the run in flight.
	logID, err := o.logs.InsertLog(database.ScrapingLog{
		CredentialID: credential.ID,
		Status:       database.LogStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= o.policy.MaxAttempts; attempt++ {
		slog.Info("Starting ingestion attempt",
			"credential_id", credential.ID,
			"attempt", attempt,
			"max_attempts", o.policy.MaxAttempts)

		found, added, err := o.attempt(ctx, credential)
		if err == nil {
			if err := o.logs.UpdateLog(logID, database.LogPatch{
				Status:      database.LogStatusSuccess,
				VisitsFound: found,
				VisitsAdded: added,
			}); err != nil {
				slog.Error("Failed to update audit log", "log_id", logID, "error", err)
			}
			if err := o.credentials.UpdateLastSyncedAt(credential.ID, o.now()); err != nil {
				slog.Error("Failed to update credential sync time", "credential_id", credential.ID, "error", err)
			}

			slog.Info("Ingestion succeeded",
				"credential_id", credential.ID,
				"attempt", attempt,
				"found", found,
				"added", added)

			return &Result{LogID: logID, Found: found, Added: added}, nil
		}

		lastErr = err
		slog.Error("Ingestion attempt failed",
			"credential_id", credential.ID,
			"attempt", attempt,
			"error", err)

		if attempt < o.policy.MaxAttempts {
			select {
			case <-time.After(o.policy.Delay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = o.policy.MaxAttempts
			}
		}
	}

	if err := o.logs.UpdateLog(logID, database.LogPatch{
		Status:       database.LogStatusFailed,
		ErrorMessage: lastErr.Error(),
	}); err != nil {
		slog.Error("Failed to update audit log", "log_id", logID, "error", err)
	}

	return nil, fmt.Errorf("ingestion failed after %d attempts: %w", o.policy.MaxAttempts, lastErr)
}

// attempt runs one extraction+reconciliation pass on a fresh browser
// session. Decryption failures abort the attempt like any other error; the
// retry loop owns the decision to try again.
func (o *Orchestrator) attempt(ctx context.Context, credential *database.Credential) (found, added int, err error) {
	username, err := o.vault.Decrypt(credential.EncryptedUsername)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decrypt username: %w", err)
	}
	password, err := o.vault.Decrypt(credential.EncryptedPassword)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decrypt password: %w", err)
	}

	extractor, closeSession, err := o.newSession(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to launch session: %w", err)
	}
	defer func() {
		if closeErr := closeSession(); closeErr != nil {
			slog.Warn("Failed to close browser session", "error", closeErr)
		}
	}()

	raws, err := extractor.Extract(ctx, username, password)
	if err != nil {
		return 0, 0, err
	}

	return o.reconciler.Reconcile(ctx, raws)
}
