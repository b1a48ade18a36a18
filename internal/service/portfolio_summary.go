package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"driftapp.dev/drift/internal/model"
	"driftapp.dev/drift/internal/store"
)

// PortfolioSummaryService DMs org admins a one-line-per-project rollup of
// the week's reports, sent after all of an org's reports are generated.
type PortfolioSummaryService interface {
	Send(ctx context.Context, org *model.Organization, weekStart time.Time) error
}

type portfolioSummaryService struct {
	reports  store.ReportStore
	projects store.ProjectStore
	members  store.MemberStore
	slackFor SlackGatewayFactory
	logger   *slog.Logger
}

func NewPortfolioSummaryService(reports store.ReportStore, projects store.ProjectStore, members store.MemberStore, slackFor SlackGatewayFactory, logger *slog.Logger) PortfolioSummaryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &portfolioSummaryService{
		reports:  reports,
		projects: projects,
		members:  members,
		slackFor: slackFor,
		logger:   logger,
	}
}

func (s *portfolioSummaryService) Send(ctx context.Context, org *model.Organization, weekStart time.Time) error {
	reports, err := s.reports.ListByOrganizationAndWeek(ctx, org.ID, weekStart)
	if err != nil {
		return fmt.Errorf("listing reports: %w", err)
	}
	if len(reports) == 0 {
		return nil
	}

	projects, err := s.projects.ListActiveByOrganization(ctx, org.ID)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}
	names := make(map[int64]string, len(projects))
	for _, p := range projects {
		names[p.ID] = strings.TrimSpace(p.Emoji + " " + p.Name)
	}

	members, err := s.members.ListByOrganization(ctx, org.ID)
	if err != nil {
		return fmt.Errorf("listing members: %w", err)
	}

	var lines []string
	for _, r := range reports {
		name := names[r.ProjectID]
		if name == "" {
			name = fmt.Sprintf("Project %d", r.ProjectID)
		}
		lines = append(lines, fmt.Sprintf("%s *%s* · %d%% · %s",
			healthEmoji(r.Health), name, r.Progress, r.Content.HealthLabel))
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType,
			fmt.Sprintf("Portfolio · week of %s", weekStart.Format("Jan 2")), true, false)),
		markdownSection(strings.Join(lines, "\n")),
	}
	fallback := fmt.Sprintf("Portfolio summary: %d reports for week of %s", len(reports), weekStart.Format("Jan 2"))

	sg := s.slackFor(org.SlackBotToken)
	sent := 0
	for _, m := range members {
		if !m.IsAdmin() {
			continue
		}
		if _, err := sg.PostDirectMessage(ctx, m.SlackUserID, fallback, blocks); err != nil {
			s.logger.ErrorContext(ctx, "portfolio summary delivery failed",
				"organization_id", org.ID,
				"slack_user_id", m.SlackUserID,
				"error", err)
			continue
		}
		sent++
	}

	s.logger.InfoContext(ctx, "portfolio summary sent",
		"organization_id", org.ID, "reports", len(reports), "recipients", sent)
	return nil
}
