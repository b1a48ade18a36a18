package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"driftapp.dev/drift/common/logger"
	"driftapp.dev/drift/internal/model"
	"driftapp.dev/drift/internal/store"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrReportNotFound       = errors.New("report not found")
)

// BatchService iterates an organization's projects for the scheduled
// pipelines. Failure isolation is the whole point: one bad channel,
// project or recipient degrades to fewer successes, never a batch abort.
// Every method is callable synchronously so interactive triggers and
// tests bypass the scheduler.
type BatchService interface {
	IngestOrganization(ctx context.Context, orgID int64) error
	SnapshotOrganization(ctx context.Context, orgID int64) error
	ReportOrganization(ctx context.Context, orgID int64) error

	IngestProject(ctx context.Context, projectID int64) (IngestResult, error)
	GenerateProject(ctx context.Context, projectID int64) (*model.Report, error)
}

type batchService struct {
	orgs      store.OrganizationStore
	projects  store.ProjectStore
	ingest    ChannelIngestService
	snapshot  TicketSnapshotService
	generator ReportGeneratorService
	deliverer ReportDeliverService
	portfolio PortfolioSummaryService
	now       func() time.Time
	logger    *slog.Logger
}

func NewBatchService(
	orgs store.OrganizationStore,
	projects store.ProjectStore,
	ingest ChannelIngestService,
	snapshot TicketSnapshotService,
	generator ReportGeneratorService,
	deliverer ReportDeliverService,
	portfolio PortfolioSummaryService,
	logger *slog.Logger,
) BatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &batchService{
		orgs:      orgs,
		projects:  projects,
		ingest:    ingest,
		snapshot:  snapshot,
		generator: generator,
		deliverer: deliverer,
		portfolio: portfolio,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *batchService) IngestOrganization(ctx context.Context, orgID int64) error {
	org, projects, err := s.loadOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	for i := range projects {
		project := &projects[i]
		ctx := logger.WithLogFields(ctx, logger.LogFields{ProjectID: &project.ID})
		result, err := s.ingest.IngestProject(ctx, org, project)
		if err != nil {
			s.logger.ErrorContext(ctx, "project ingestion failed",
				"project_id", project.ID, "error", err)
			continue
		}
		s.logger.InfoContext(ctx, "project ingested",
			"project_id", project.ID,
			"ingested", result.Ingested,
			"filtered", result.Filtered)
	}
	return nil
}

func (s *batchService) SnapshotOrganization(ctx context.Context, orgID int64) error {
	org, projects, err := s.loadOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	for i := range projects {
		project := &projects[i]
		ctx := logger.WithLogFields(ctx, logger.LogFields{ProjectID: &project.ID})
		count, err := s.snapshot.SnapshotProject(ctx, org, project)
		if err != nil {
			s.logger.ErrorContext(ctx, "project snapshot failed",
				"project_id", project.ID, "error", err)
			continue
		}
		s.logger.InfoContext(ctx, "project snapshotted",
			"project_id", project.ID, "snapshots", count)
	}
	return nil
}

// ReportOrganization generates and delivers a report per project, then
// sends the portfolio rollup once all projects have been attempted.
func (s *batchService) ReportOrganization(ctx context.Context, orgID int64) error {
	org, projects, err := s.loadOrganization(ctx, orgID)
	if err != nil {
		return err
	}

	for i := range projects {
		project := &projects[i]
		ctx := logger.WithLogFields(ctx, logger.LogFields{ProjectID: &project.ID})
		report, err := s.generator.Generate(ctx, org, project)
		if err != nil {
			s.logger.ErrorContext(ctx, "project report generation failed",
				"project_id", project.ID, "error", err)
			continue
		}
		if _, err := s.deliverer.Deliver(ctx, org, project, report); err != nil {
			s.logger.ErrorContext(ctx, "project report delivery failed",
				"project_id", project.ID,
				"report_id", report.ID,
				"error", err)
		}
	}

	weekStart := WeekStart(s.now().UTC())
	if err := s.portfolio.Send(ctx, org, weekStart); err != nil {
		s.logger.ErrorContext(ctx, "portfolio summary failed",
			"organization_id", orgID, "error", err)
	}
	return nil
}

func (s *batchService) IngestProject(ctx context.Context, projectID int64) (IngestResult, error) {
	org, project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return IngestResult{}, err
	}
	return s.ingest.IngestProject(ctx, org, project)
}

func (s *batchService) GenerateProject(ctx context.Context, projectID int64) (*model.Report, error) {
	org, project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	report, err := s.generator.Generate(ctx, org, project)
	if err != nil {
		return nil, err
	}
	if _, err := s.deliverer.Deliver(ctx, org, project, report); err != nil {
		s.logger.ErrorContext(ctx, "report delivery failed",
			"report_id", report.ID, "error", err)
	}
	return report, nil
}

func (s *batchService) loadOrganization(ctx context.Context, orgID int64) (*model.Organization, []model.Project, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrOrganizationNotFound
		}
		return nil, nil, fmt.Errorf("fetching organization: %w", err)
	}
	projects, err := s.projects.ListActiveByOrganization(ctx, orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing projects: %w", err)
	}
	return org, projects, nil
}

func (s *batchService) loadProject(ctx context.Context, projectID int64) (*model.Organization, *model.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrProjectNotFound
		}
		return nil, nil, fmt.Errorf("fetching project: %w", err)
	}
	org, err := s.orgs.GetByID(ctx, project.OrganizationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrOrganizationNotFound
		}
		return nil, nil, fmt.Errorf("fetching organization: %w", err)
	}
	return org, project, nil
}
