package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// JobMessage is one unit of scheduled work: a pipeline to run for one
// organization, optionally narrowed to a single project.
type JobMessage struct {
	JobType        JobType
	OrganizationID int64
	ProjectID      *int64
	TraceID        *string
	Attempt        int
}

type Producer interface {
	Enqueue(ctx context.Context, msg JobMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg JobMessage) error {
	if !msg.JobType.Valid() {
		return fmt.Errorf("invalid job type %q", msg.JobType)
	}

	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"job_type":        string(msg.JobType),
		"organization_id": msg.OrganizationID,
		"attempt":         attempt,
	}
	if msg.ProjectID != nil {
		fields["project_id"] = *msg.ProjectID
	}
	if msg.TraceID != nil && *msg.TraceID != "" {
		fields["trace_id"] = *msg.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued job",
		"job_type", msg.JobType,
		"organization_id", msg.OrganizationID,
		"attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
