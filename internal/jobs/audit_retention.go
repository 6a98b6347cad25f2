// audit_retention.go implements the AuditRetentionSweeper background job,
// which periodically deletes audit log rows older than the configured
// retention window. Deletes run in bounded batches so a sweep over a large
// backlog never holds long row locks; the job keeps draining batches until a
// short batch signals the backlog is gone. The job is a no-op when
// audit.retention_days is zero or negative, so it is always safe to start.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/eventlane/eventlane/internal/config"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/telemetry"
)

// AuditRetentionSweeper periodically deletes expired audit log entries.
type AuditRetentionSweeper struct {
	auditRepo *repositories.AuditRepository
	cfg       *config.AuditConfig
	interval  time.Duration
	stopChan  chan struct{}
}

// NewAuditRetentionSweeper creates a new sweeper.
// audit.sweep_interval_hours controls how often the sweep runs (default 24h).
func NewAuditRetentionSweeper(auditRepo *repositories.AuditRepository, cfg *config.AuditConfig) *AuditRetentionSweeper {
	hours := cfg.SweepIntervalHours
	if hours <= 0 {
		hours = 24
	}
	return &AuditRetentionSweeper{
		auditRepo: auditRepo,
		cfg:       cfg,
		interval:  time.Duration(hours) * time.Hour,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the background sweep loop. It runs an initial sweep
// immediately, then repeats on the configured interval. The loop exits when
// ctx is cancelled or Stop() is called.
func (s *AuditRetentionSweeper) Start(ctx context.Context) {
	if s.cfg.RetentionDays <= 0 {
		slog.Info("audit retention sweeper disabled", "retention_days", s.cfg.RetentionDays)
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("audit retention sweeper started",
		"retention_days", s.cfg.RetentionDays,
		"sweep_interval", s.interval,
		"batch_size", s.batchSize())

	s.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.stopChan:
			slog.Info("audit retention sweeper stopped")
			return
		case <-ctx.Done():
			slog.Info("audit retention sweeper context cancelled")
			return
		}
	}
}

// Stop signals the background loop to exit.
func (s *AuditRetentionSweeper) Stop() {
	close(s.stopChan)
}

func (s *AuditRetentionSweeper) batchSize() int {
	if s.cfg.SweepBatchSize > 0 {
		return s.cfg.SweepBatchSize
	}
	return 1000
}

// runSweep drains expired rows in batches until a short batch indicates the
// backlog is exhausted.
func (s *AuditRetentionSweeper) runSweep(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	batchSize := s.batchSize()

	var total int64
	for {
		deleted, err := s.auditRepo.DeleteOlderThan(ctx, cutoff, batchSize)
		if err != nil {
			slog.Error("audit retention sweep failed", "error", err, "deleted_so_far", total)
			return
		}
		total += deleted
		telemetry.AuditRetentionDeletedTotal.Add(float64(deleted))

		if deleted < int64(batchSize) {
			break
		}
	}

	if total > 0 {
		slog.Info("audit retention sweep complete", "deleted", total, "cutoff", cutoff)
	}
}
