package service

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"driftapp.dev/drift/internal/model"
)

// FormatReportBlocks renders a report as Block Kit for DM delivery.
// Sections with no content (decisions, drift, blockers) are omitted
// entirely rather than rendered empty.
func FormatReportBlocks(project model.Project, report *model.Report, dashboardURL string) (string, []slack.Block) {
	c := report.Content

	header := fmt.Sprintf("%s %s · %s", project.Emoji, project.Name, report.PeriodLabel)
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, strings.TrimSpace(header), true, false)),
		markdownSection(fmt.Sprintf("%s *%s* · %d%% complete (was %d%%)",
			healthEmoji(report.Health), c.HealthLabel, report.Progress, report.PrevProgress)),
	}

	if project.ProductObjective != nil && *project.ProductObjective != "" {
		blocks = append(blocks, markdownSection(fmt.Sprintf("*Objective*\n%s", *project.ProductObjective)))
	}

	blocks = append(blocks, markdownSection(c.Narrative))

	if len(c.Decisions) > 0 {
		var lines []string
		for _, d := range c.Decisions {
			line := fmt.Sprintf("• %s", d.Text)
			if d.Who != "" {
				line += fmt.Sprintf(" _(%s)_", d.Who)
			}
			lines = append(lines, line)
		}
		blocks = append(blocks, markdownSection("*Decisions*\n"+strings.Join(lines, "\n")))
	}

	if c.Drift.Level != model.DriftLevelNone {
		blocks = append(blocks, markdownSection(fmt.Sprintf("*Drift: %s*\n%s", c.Drift.Label, c.Drift.Details)))
	}

	if len(c.Blockers) > 0 {
		var lines []string
		for _, b := range c.Blockers {
			line := fmt.Sprintf("• %s", b.Text)
			if b.Owner != "" {
				line += fmt.Sprintf(" _(%s)_", b.Owner)
			}
			lines = append(lines, line)
		}
		blocks = append(blocks, markdownSection("*Blockers*\n"+strings.Join(lines, "\n")))
	}

	blocks = append(blocks,
		slack.NewDividerBlock(),
		markdownSection(fmt.Sprintf("*Delivery*  merged %d · in review %d · blocked %d · %s",
			c.Delivery.Merged, c.Delivery.InReview, c.Delivery.Blocked, c.Delivery.VelocityLabel)),
	)

	footer := fmt.Sprintf("Sources: %d messages, %d tickets, %d docs",
		c.SourceCounts.Slack, c.SourceCounts.Linear, c.SourceCounts.Notion)
	if dashboardURL != "" {
		footer += fmt.Sprintf(" · <%s/reports/%d|Open in dashboard>", dashboardURL, report.ID)
	}
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, footer, false, false)))

	fallback := fmt.Sprintf("%s · %s: %s, %d%% complete", project.Name, report.PeriodLabel, c.HealthLabel, report.Progress)
	return fallback, blocks
}

func markdownSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}

func healthEmoji(health model.Health) string {
	switch health {
	case model.HealthOnTrack:
		return ":large_green_circle:"
	case model.HealthAtRisk:
		return ":large_yellow_circle:"
	case model.HealthOffTrack:
		return ":red_circle:"
	default:
		return ":white_circle:"
	}
}
