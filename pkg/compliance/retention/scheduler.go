package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a Pruner on a cron schedule until stopped or its context
// is cancelled.
type Scheduler struct {
	pruner *Pruner
	cron   *cron.Cron

	mu      sync.Mutex
	running bool
	logger  *slog.Logger
}

// NewScheduler wraps pruner with a cron-driven run loop.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: pruner.logger.With("component", "compliance.retention.scheduler"),
	}
}

// Start parses and schedules pruner.config.Schedule. An empty schedule is
// a no-op: the scheduler simply never runs. Start returns once the cron
// job is registered; pruning itself happens asynchronously on each tick.
// A background goroutine stops the scheduler when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.pruner.config.Schedule
	if schedule == "" {
		s.logger.Info("retention schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.runPruning(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule retention pruning: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("retention scheduler started", "schedule", schedule,
		"evidence_ttl", s.pruner.config.EvidenceTTL, "audit_ttl", s.pruner.config.AuditTTL)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runPruning(ctx context.Context) {
	s.logger.Debug("starting scheduled retention pruning")
	evidenceDeleted, auditDeleted, err := s.pruner.Prune(ctx)
	if err != nil {
		s.logger.Error("scheduled retention pruning failed", "error", err)
		return
	}
	s.logger.Debug("scheduled retention pruning finished",
		"evidence_deleted", evidenceDeleted, "audit_deleted", auditDeleted)
}

// Stop stops the scheduler and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		done := s.cron.Stop()
		<-done.Done()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// IsRunning reports whether the scheduler has an active cron loop.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the time of the next scheduled pruning run, or nil if
// the scheduler isn't running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
