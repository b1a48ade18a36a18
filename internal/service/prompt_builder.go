package service

import (
	"fmt"
	"strings"

	"driftapp.dev/drift/internal/model"
)

// PromptInput is everything the builder needs. The builder is a pure
// function of this struct: no I/O, no clocks, no randomness.
type PromptInput struct {
	Project       model.Project
	WeekNumber    int
	PeriodLabel   string
	Messages      []model.SlackMessage
	Tickets       []model.TicketSnapshot
	Stats         model.DeliveryStats
	NotionContent string
	PrevReport    *model.Report
}

const reportSystemPrompt = `You are an engineering program analyst. You read a week of raw project activity (chat conversations, issue tracker tickets, planning documents) and produce a structured weekly status report.

Assess honestly. Do not inflate progress. Ground every claim in the provided activity; if the data is thin, say so in the narrative rather than inventing detail.

Respond with a single JSON object and nothing else. No markdown, no code fences, no commentary. The object must have exactly these fields:

{
  "health": "on-track" | "at-risk" | "off-track",
  "healthLabel": "<short human phrase for the health call>",
  "progress": <number 0-100, estimated completion of the stated objective>,
  "narrative": "<2-4 sentence summary of the week>",
  "decisions": [{"text": "...", "tradeoff": "...", "who": "...", "where": "...", "when": "...", "alignedWithIntent": true | false | "partial"}],
  "drift": {"level": "none" | "low" | "high", "label": "<short phrase>", "details": "<how observed work diverges from the stated objective, or why it does not>"},
  "blockers": [{"text": "...", "owner": "...", "severity": "high" | "medium" | "low", "since": "...", "impact": "..."}],
  "keyResults": [{"text": "...", "done": true | false}],
  "threads": [{"title": "...", "participants": ["..."], "messages": <count>, "outcome": "...", "channel": "..."}],
  "delivery": {"merged": 0, "inReview": 0, "blocked": 0, "created": 0, "velocity": "+0%", "velocityLabel": "..."},
  "sourceCounts": {"slack": 0, "linear": 0, "notion": 0}
}

decisions, blockers and threads may be empty arrays when nothing qualifies. Copy the delivery stats from the context verbatim. keyResults must restate the provided key results with your done/not-done judgement.`

// BuildPrompt assembles the system instruction and the user context
// document. Every section is always present; absent data renders as an
// explicit "not available" marker so the model never infers from silence.
func BuildPrompt(in PromptInput) (systemPrompt, userPrompt string) {
	var sb strings.Builder

	p := in.Project
	fmt.Fprintf(&sb, "# Project: %s\n", p.Name)
	fmt.Fprintf(&sb, "Reporting period: %s\n\n", in.PeriodLabel)

	sb.WriteString("## Objective\n")
	if p.ProductObjective != nil && *p.ProductObjective != "" {
		sb.WriteString(*p.ProductObjective + "\n")
		if p.ObjectiveOrigin != nil && *p.ObjectiveOrigin != "" {
			fmt.Fprintf(&sb, "(source: %s)\n", *p.ObjectiveOrigin)
		}
	} else {
		sb.WriteString("Not available.\n")
	}
	sb.WriteString("\n")

	writeTeamSection(&sb, p)
	writeKeyResults(&sb, p.KeyResults)
	writePrevReport(&sb, in.PrevReport)
	writeNotionDoc(&sb, in.NotionContent)
	writeConversations(&sb, in.Messages)
	writeTickets(&sb, in.Tickets)
	writeStats(&sb, in.Stats)

	return reportSystemPrompt, sb.String()
}

func writeTeamSection(sb *strings.Builder, p model.Project) {
	sb.WriteString("## Team\n")
	wrote := false
	if p.TeamName != nil && *p.TeamName != "" {
		fmt.Fprintf(sb, "Team: %s\n", *p.TeamName)
		wrote = true
	}
	if p.PMLeadName != nil && *p.PMLeadName != "" {
		fmt.Fprintf(sb, "PM lead: %s\n", *p.PMLeadName)
		wrote = true
	}
	if p.TechLeadName != nil && *p.TechLeadName != "" {
		fmt.Fprintf(sb, "Tech lead: %s\n", *p.TechLeadName)
		wrote = true
	}
	if p.TargetDate != nil {
		fmt.Fprintf(sb, "Target date: %s\n", p.TargetDate.Format("2006-01-02"))
		wrote = true
	}
	if !wrote {
		sb.WriteString("Not available.\n")
	}
	sb.WriteString("\n")
}

func writeKeyResults(sb *strings.Builder, keyResults []model.KeyResult) {
	sb.WriteString("## Key results\n")
	if len(keyResults) == 0 {
		sb.WriteString("Not available.\n\n")
		return
	}
	for _, kr := range keyResults {
		marker := "[ ]"
		if kr.Done {
			marker = "[x]"
		}
		fmt.Fprintf(sb, "%s %s\n", marker, kr.Text)
	}
	sb.WriteString("\n")
}

func writePrevReport(sb *strings.Builder, prev *model.Report) {
	sb.WriteString("## Previous report\n")
	if prev == nil {
		sb.WriteString("Not available (first report for this project).\n\n")
		return
	}
	fmt.Fprintf(sb, "Health: %s, progress: %d%%, drift: %s\n", prev.Health, prev.Progress, prev.DriftLevel)
	fmt.Fprintf(sb, "Narrative: %s\n\n", prev.Content.Narrative)
}

func writeNotionDoc(sb *strings.Builder, content string) {
	sb.WriteString("## Planning document\n")
	if content == "" {
		sb.WriteString("Not available.\n\n")
		return
	}
	sb.WriteString(content + "\n\n")
}

// writeConversations reconstructs thread structure: per channel, thread
// roots in chronological order, each immediately followed by its replies.
func writeConversations(sb *strings.Builder, messages []model.SlackMessage) {
	sb.WriteString("## Slack activity\n")
	if len(messages) == 0 {
		sb.WriteString("Not available (no messages this week).\n\n")
		return
	}

	channelOrder := make([]string, 0)
	byChannel := make(map[string][]model.SlackMessage)
	for _, m := range messages {
		if _, ok := byChannel[m.ChannelID]; !ok {
			channelOrder = append(channelOrder, m.ChannelID)
		}
		byChannel[m.ChannelID] = append(byChannel[m.ChannelID], m)
	}

	for _, channelID := range channelOrder {
		fmt.Fprintf(sb, "### Channel %s\n", channelID)
		msgs := byChannel[channelID]

		replies := make(map[string][]model.SlackMessage)
		for _, m := range msgs {
			if !m.IsThreadRoot() {
				replies[*m.ThreadTs] = append(replies[*m.ThreadTs], m)
			}
		}
		for _, m := range msgs {
			if !m.IsThreadRoot() {
				continue
			}
			writeMessageLine(sb, m, "")
			for _, reply := range replies[m.MessageTs] {
				writeMessageLine(sb, reply, "    ↳ ")
			}
		}
		sb.WriteString("\n")
	}
}

func writeMessageLine(sb *strings.Builder, m model.SlackMessage, prefix string) {
	author := m.UserName
	if author == "" {
		if m.IsBot {
			author = "(bot)"
		} else {
			author = m.UserID
		}
	}
	fmt.Fprintf(sb, "%s%s: %s\n", prefix, author, m.Text)
}

func writeTickets(sb *strings.Builder, tickets []model.TicketSnapshot) {
	sb.WriteString("## Tickets\n")
	if len(tickets) == 0 {
		sb.WriteString("Not available (no ticket activity this week).\n\n")
		return
	}
	for _, t := range tickets {
		assignee := "unassigned"
		if t.AssigneeName != nil && *t.AssigneeName != "" {
			assignee = *t.AssigneeName
		}
		fmt.Fprintf(sb, "- %s %s [%s, %s priority, %s]", t.Identifier, t.Title, t.StateName, PriorityLabel(t.Priority), assignee)
		if len(t.LabelNames) > 0 {
			fmt.Fprintf(sb, " labels: %s", strings.Join(t.LabelNames, ", "))
		}
		sb.WriteString("\n")
		if t.Description != nil && *t.Description != "" {
			fmt.Fprintf(sb, "  %s\n", *t.Description)
		}
	}
	sb.WriteString("\n")
}

func writeStats(sb *strings.Builder, stats model.DeliveryStats) {
	sb.WriteString("## Delivery stats\n")
	fmt.Fprintf(sb, "Merged: %d, in review: %d, blocked: %d, created: %d, velocity: %s\n",
		stats.Merged, stats.InReview, stats.Blocked, stats.Created, stats.Velocity)
}

// PriorityLabel maps tracker priority numbers to their display names.
func PriorityLabel(priority int) string {
	switch priority {
	case 1:
		return "Urgent"
	case 2:
		return "High"
	case 3:
		return "Medium"
	case 4:
		return "Low"
	default:
		return "None"
	}
}
