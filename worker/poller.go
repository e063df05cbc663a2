// Package worker runs the background resolution of accepted wagers.
package worker

import (
	"context"
	"fmt"
	"time"

	"chesswager/config"
	"chesswager/models"
	"chesswager/service"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// PollSummary counts the end states of one poll pass. Retrying is the part of
// Failed that a later pass is expected to clear.
type PollSummary struct {
	Scanned  int
	Statuses map[models.ResolutionStatus]int
	Failed   int
	Retrying int
}

// Poller periodically resolves accepted wagers whose games should have finished
type Poller struct {
	audit      service.AuditService
	resolution service.ResolutionService
	cfg        config.PollerConfig
	now        func() time.Time
	scheduler  gocron.Scheduler
}

// NewPoller creates a new poller
func NewPoller(audit service.AuditService, resolution service.ResolutionService, cfg config.PollerConfig) *Poller {
	return &Poller{
		audit:      audit,
		resolution: resolution,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Start schedules the poll job. Runs never overlap; a slow pass delays the next one.
func (p *Poller) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(p.cfg.Interval),
		gocron.NewTask(func() {
			if _, err := p.RunOnce(ctx); err != nil {
				log.WithError(err).Error("Wager poll failed")
			}
		}),
		gocron.WithName("resolve-accepted-wagers"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("failed to schedule poll job: %w", err)
	}

	sched.Start()
	p.scheduler = sched

	log.WithFields(log.Fields{
		"interval":   p.cfg.Interval,
		"min_age":    p.cfg.MinAge,
		"max_age":    p.cfg.MaxAge,
		"batch_size": p.cfg.BatchSize,
	}).Info("Wager poller started")
	return nil
}

// Stop waits for a running pass and shuts the scheduler down
func (p *Poller) Stop() error {
	if p.scheduler == nil {
		return nil
	}
	if err := p.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	log.Info("Wager poller stopped")
	return nil
}

// RunOnce resolves one batch of wagers accepted between MaxAge and MinAge ago.
// Per-wager failures are logged and counted; only the listing error is returned.
func (p *Poller) RunOnce(ctx context.Context) (*PollSummary, error) {
	now := p.now()
	wagers, err := p.audit.ListResolvableWagers(ctx, now.Add(-p.cfg.MaxAge), now.Add(-p.cfg.MinAge), p.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolvable wagers: %w", err)
	}

	summary := &PollSummary{
		Scanned:  len(wagers),
		Statuses: make(map[models.ResolutionStatus]int),
	}

	for _, wager := range wagers {
		if ctx.Err() != nil {
			break
		}

		result, err := p.resolution.ResolveWager(ctx, wager.ID)
		if err != nil {
			summary.Failed++
			entry := log.WithField("wager_id", wager.ID).WithError(err)
			if service.IsRetryable(err) {
				summary.Retrying++
				entry.Warn("Wager not settled, will retry next poll")
			} else {
				entry.Error("Failed to resolve wager")
			}
			continue
		}
		summary.Statuses[result.Status]++
	}

	if summary.Scanned > 0 {
		log.WithFields(log.Fields{
			"scanned":  summary.Scanned,
			"settled":  summary.Statuses[models.ResolutionSettled],
			"pending":  summary.Statuses[models.ResolutionNotFound],
			"disputed": summary.Statuses[models.ResolutionDisputed],
			"anomaly":  summary.Statuses[models.ResolutionAnomaly],
			"failed":   summary.Failed,
			"retrying": summary.Retrying,
		}).Info("Wager poll complete")
	}
	return summary, nil
}
