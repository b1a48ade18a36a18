package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"driftapp.dev/drift/core/config"
	"driftapp.dev/drift/internal/queue"
	"driftapp.dev/drift/internal/store"
)

// Scheduler turns cron ticks into queue jobs, one per organization, so a
// slow or failing organization never delays its siblings: isolation is
// inherited from per-org messages, not managed here.
type Scheduler struct {
	cron     *cron.Cron
	orgs     store.OrganizationStore
	producer queue.Producer
	cfg      config.ScheduleConfig
	logger   *slog.Logger
}

func NewScheduler(orgs store.OrganizationStore, producer queue.Producer, cfg config.ScheduleConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(),
		orgs:     orgs,
		producer: producer,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.IngestSpec, func() {
		s.enqueueAll(ctx, queue.JobTypeIngestOrg)
		s.enqueueAll(ctx, queue.JobTypeSnapshotOrg)
	})
	if err != nil {
		return fmt.Errorf("registering ingest schedule %q: %w", s.cfg.IngestSpec, err)
	}

	_, err = s.cron.AddFunc(s.cfg.ReportSpec, func() {
		s.enqueueAll(ctx, queue.JobTypeReportOrg)
	})
	if err != nil {
		return fmt.Errorf("registering report schedule %q: %w", s.cfg.ReportSpec, err)
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "scheduler started",
		"ingest_spec", s.cfg.IngestSpec,
		"report_spec", s.cfg.ReportSpec)
	return nil
}

// Stop halts scheduling and waits for in-flight enqueue callbacks.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) enqueueAll(ctx context.Context, jobType queue.JobType) {
	orgs, err := s.orgs.ListAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "listing organizations for schedule failed",
			"job_type", jobType, "error", err)
		return
	}

	enqueued := 0
	for _, org := range orgs {
		err := s.producer.Enqueue(ctx, queue.JobMessage{
			JobType:        jobType,
			OrganizationID: org.ID,
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "enqueueing scheduled job failed",
				"job_type", jobType,
				"organization_id", org.ID,
				"error", err)
			continue
		}
		enqueued++
	}

	s.logger.InfoContext(ctx, "scheduled jobs enqueued",
		"job_type", jobType,
		"organizations", len(orgs),
		"enqueued", enqueued)
}
