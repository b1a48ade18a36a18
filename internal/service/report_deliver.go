package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"driftapp.dev/drift/internal/model"
	"driftapp.dev/drift/internal/store"
)

// ReportDeliverService fans a report out to every org admin as a DM.
// Recipients fail independently; the first successful send marks the
// report delivered.
type ReportDeliverService interface {
	Deliver(ctx context.Context, org *model.Organization, project *model.Project, report *model.Report) (int, error)
}

type reportDeliverService struct {
	members      store.MemberStore
	reports      store.ReportStore
	slackFor     SlackGatewayFactory
	dashboardURL string
	now          func() time.Time
	logger       *slog.Logger
}

func NewReportDeliverService(members store.MemberStore, reports store.ReportStore, slackFor SlackGatewayFactory, dashboardURL string, logger *slog.Logger) ReportDeliverService {
	if logger == nil {
		logger = slog.Default()
	}
	return &reportDeliverService{
		members:      members,
		reports:      reports,
		slackFor:     slackFor,
		dashboardURL: dashboardURL,
		now:          time.Now,
		logger:       logger,
	}
}

// Deliver returns how many recipients received the report. Zero admins is
// a warning, not an error.
func (s *reportDeliverService) Deliver(ctx context.Context, org *model.Organization, project *model.Project, report *model.Report) (int, error) {
	members, err := s.members.ListByOrganization(ctx, org.ID)
	if err != nil {
		return 0, fmt.Errorf("listing members: %w", err)
	}

	var admins []model.Member
	for _, m := range members {
		if m.IsAdmin() {
			admins = append(admins, m)
		}
	}
	if len(admins) == 0 {
		s.logger.WarnContext(ctx, "no admins to deliver report to",
			"organization_id", org.ID, "report_id", report.ID)
		return 0, nil
	}

	sg := s.slackFor(org.SlackBotToken)
	fallback, blocks := FormatReportBlocks(*project, report, s.dashboardURL)

	delivered := 0
	firstTs := ""
	for _, admin := range admins {
		ts, err := sg.PostDirectMessage(ctx, admin.SlackUserID, fallback, blocks)
		if err != nil {
			s.logger.ErrorContext(ctx, "report delivery to recipient failed",
				"report_id", report.ID,
				"slack_user_id", admin.SlackUserID,
				"error", err)
			continue
		}
		delivered++
		if firstTs == "" {
			firstTs = ts
		}
	}

	if firstTs != "" {
		if err := s.reports.MarkDelivered(ctx, report.ID, firstTs, s.now().UTC()); err != nil {
			return delivered, fmt.Errorf("marking report delivered: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "report delivered",
		"report_id", report.ID,
		"recipients", len(admins),
		"delivered", delivered)
	return delivered, nil
}
