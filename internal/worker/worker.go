package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"driftapp.dev/drift/common/logger"
	"driftapp.dev/drift/internal/queue"
	"driftapp.dev/drift/internal/service"
)

type Config struct {
	MaxAttempts int
}

// Worker drains the job stream and dispatches each message to the batch
// orchestrators. Per-unit failure isolation lives inside the batch
// service; the worker only decides requeue vs DLQ for whole jobs.
type Worker struct {
	consumer *queue.RedisConsumer
	batch    service.BatchService
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer *queue.RedisConsumer, batch service.BatchService, cfg Config) *Worker {
	return &Worker{
		consumer:  consumer,
		batch:     batch,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "job processing failed",
				"error", err,
				"message_id", msg.ID,
				"job_type", msg.JobType,
				"organization_id", msg.OrganizationID)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in job processing",
				"panic", r,
				"message_id", msg.ID,
				"job_type", msg.JobType)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage runs one job synchronously. Exported so interactive
// tooling can reuse the dispatch without going through the stream.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	jobType := string(msg.JobType)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		JobType:        &jobType,
		OrganizationID: &msg.OrganizationID,
		MessageID:      &msg.ID,
	})

	slog.InfoContext(ctx, "processing job",
		"message_id", msg.ID,
		"job_type", msg.JobType,
		"organization_id", msg.OrganizationID,
		"attempt", msg.Attempt)

	var err error
	switch msg.JobType {
	case queue.JobTypeIngestOrg:
		err = w.batch.IngestOrganization(ctx, msg.OrganizationID)
	case queue.JobTypeSnapshotOrg:
		err = w.batch.SnapshotOrganization(ctx, msg.OrganizationID)
	case queue.JobTypeReportOrg:
		err = w.batch.ReportOrganization(ctx, msg.OrganizationID)
	default:
		// Unknown types are acked, not retried; retrying cannot fix them.
		slog.ErrorContext(ctx, "unknown job type, dropping", "job_type", msg.JobType)
	}
	if err != nil {
		return err
	}

	if ackErr := w.consumer.Ack(ctx, msg); ackErr != nil {
		slog.WarnContext(ctx, "failed to ACK message",
			"error", ackErr,
			"message_id", msg.ID)
	}
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"job_type", msg.JobType,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed job",
		"message_id", msg.ID,
		"job_type", msg.JobType,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
