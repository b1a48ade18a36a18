package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"driftapp.dev/drift/common/id"
	"driftapp.dev/drift/internal/gateway"
	"driftapp.dev/drift/internal/model"
	"driftapp.dev/drift/internal/store"
)

// TicketSnapshotService materializes point-in-time copies of a project's
// tracker issues, bucketed into the current week.
type TicketSnapshotService interface {
	SnapshotProject(ctx context.Context, org *model.Organization, project *model.Project) (int, error)
}

type ticketSnapshotService struct {
	snapshots store.SnapshotStore
	txRunner  TxRunner
	linearFor LinearGatewayFactory
	now       func() time.Time
	logger    *slog.Logger
}

func NewTicketSnapshotService(snapshots store.SnapshotStore, txRunner TxRunner, linearFor LinearGatewayFactory, logger *slog.Logger) TicketSnapshotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ticketSnapshotService{
		snapshots: snapshots,
		txRunner:  txRunner,
		linearFor: linearFor,
		now:       time.Now,
		logger:    logger,
	}
}

// SnapshotProject fetches issues updated since the last stored snapshot
// (7-day lookback on first run) and stores one snapshot per issue.
// A project with no tracker configuration is a no-op, not an error.
func (s *ticketSnapshotService) SnapshotProject(ctx context.Context, org *model.Organization, project *model.Project) (int, error) {
	if project.LinearProjectID == nil && project.LinearTeamID == nil {
		return 0, nil
	}
	if org.LinearToken == nil || *org.LinearToken == "" {
		s.logger.WarnContext(ctx, "organization has no linear token, skipping snapshots",
			"organization_id", org.ID)
		return 0, nil
	}

	since, err := s.resolveSince(ctx, project.ID)
	if err != nil {
		return 0, err
	}

	lg := s.linearFor(*org.LinearToken)
	issues, err := s.fetchIssues(ctx, lg, project, since)
	if err != nil {
		return 0, fmt.Errorf("fetching issues: %w", err)
	}
	if len(issues) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	weekStart := WeekStart(now)
	batch := make([]model.TicketSnapshot, 0, len(issues))
	for _, issue := range issues {
		batch = append(batch, toSnapshot(org.ID, project.ID, issue, now, weekStart))
	}
	err = s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		return sp.Snapshots().CreateBatch(ctx, batch)
	})
	if err != nil {
		return 0, fmt.Errorf("storing snapshots: %w", err)
	}

	s.logger.InfoContext(ctx, "tickets snapshotted",
		"project_id", project.ID, "count", len(batch), "since", since)
	return len(batch), nil
}

func (s *ticketSnapshotService) resolveSince(ctx context.Context, projectID int64) (time.Time, error) {
	latest, err := s.snapshots.GetLatestByProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.now().Add(-cursorLookback), nil
		}
		return time.Time{}, fmt.Errorf("resolving since date: %w", err)
	}
	return latest.SnapshotDate, nil
}

// fetchIssues prefers the project id over the team id when both exist.
func (s *ticketSnapshotService) fetchIssues(ctx context.Context, lg gateway.LinearGateway, project *model.Project, since time.Time) ([]gateway.Issue, error) {
	if project.LinearProjectID != nil && *project.LinearProjectID != "" {
		return lg.ProjectIssues(ctx, *project.LinearProjectID, since)
	}
	return lg.TeamIssues(ctx, *project.LinearTeamID, since)
}

func toSnapshot(orgID, projectID int64, issue gateway.Issue, snapshotDate, weekStart time.Time) model.TicketSnapshot {
	var description *string
	if issue.Description != "" {
		d := issue.Description
		description = &d
	}
	var assignee *string
	if issue.AssigneeName != "" {
		a := issue.AssigneeName
		assignee = &a
	}
	labels := issue.Labels
	if labels == nil {
		labels = []string{}
	}
	return model.TicketSnapshot{
		ID:                id.New(),
		OrganizationID:    orgID,
		ProjectID:         projectID,
		LinearIssueID:     issue.ID,
		Identifier:        issue.Identifier,
		Title:             issue.Title,
		Description:       description,
		StateName:         issue.StateName,
		StateType:         issue.StateType,
		Priority:          issue.Priority,
		AssigneeName:      assignee,
		LabelNames:        labels,
		CommentCount:      issue.CommentCount,
		SnapshotDate:      snapshotDate,
		SnapshotWeekStart: weekStart,
	}
}
