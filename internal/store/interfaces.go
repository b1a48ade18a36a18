package store

import (
	"context"
	"errors"
	"time"

	"driftapp.dev/drift/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// OrganizationStore defines the contract for organization data access
type OrganizationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Organization, error)
	ListAll(ctx context.Context) ([]model.Organization, error)
}

// MemberStore defines the contract for member data access
type MemberStore interface {
	ListByOrganization(ctx context.Context, orgID int64) ([]model.Member, error)
}

// ProjectStore defines the contract for project data access
type ProjectStore interface {
	GetByID(ctx context.Context, id int64) (*model.Project, error)
	ListActiveByOrganization(ctx context.Context, orgID int64) ([]model.Project, error)
}

// MessageStore defines the contract for ingested Slack message data access
type MessageStore interface {
	// GetByChannelAndTs is the persistence-level dedup check; identity of a
	// message is (channel, ts).
	GetByChannelAndTs(ctx context.Context, channelID, messageTs string) (*model.SlackMessage, error)
	// GetLatestByChannel returns the most recently ingested message for a
	// channel, used to resolve the ingestion cursor.
	GetLatestByChannel(ctx context.Context, channelID string) (*model.SlackMessage, error)
	CreateBatch(ctx context.Context, messages []model.SlackMessage) error
	ListUnfilteredByProjectSince(ctx context.Context, projectID int64, since time.Time) ([]model.SlackMessage, error)
}

// SnapshotStore defines the contract for ticket snapshot data access
type SnapshotStore interface {
	GetLatestByProject(ctx context.Context, projectID int64) (*model.TicketSnapshot, error)
	CreateBatch(ctx context.Context, snapshots []model.TicketSnapshot) error
	ListByProjectAndWeek(ctx context.Context, projectID int64, weekStart time.Time) ([]model.TicketSnapshot, error)
}

// ReportStore defines the contract for report data access
type ReportStore interface {
	GetByID(ctx context.Context, id int64) (*model.Report, error)
	GetByProjectAndWeek(ctx context.Context, projectID int64, weekStart time.Time) (*model.Report, error)
	ListByOrganizationAndWeek(ctx context.Context, orgID int64, weekStart time.Time) ([]model.Report, error)
	Create(ctx context.Context, report *model.Report) error
	MarkDelivered(ctx context.Context, id int64, deliveryTs string, deliveredAt time.Time) error
}
