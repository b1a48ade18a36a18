package service_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"driftapp.dev/drift/internal/model"
	"driftapp.dev/drift/internal/service"
)

var _ = Describe("BuildPrompt", func() {
	var input service.PromptInput

	BeforeEach(func() {
		objective := "Ship the payments revamp"
		input = service.PromptInput{
			Project: model.Project{
				ID:               7,
				Name:             "Payments",
				ProductObjective: &objective,
			},
			WeekNumber:  3,
			PeriodLabel: "Week 3 · Mar 2–Mar 8",
			Stats:       model.DeliveryStats{Merged: 2, Velocity: "+100%"},
		}
	})

	It("opens with the project name and period", func() {
		_, user := service.BuildPrompt(input)
		Expect(user).To(HavePrefix("# Project: Payments\n"))
		Expect(user).To(ContainSubstring("Reporting period: Week 3 · Mar 2–Mar 8"))
	})

	It("marks absent sources explicitly instead of omitting sections", func() {
		_, user := service.BuildPrompt(input)
		Expect(user).To(ContainSubstring("## Previous report\nNot available (first report for this project)."))
		Expect(user).To(ContainSubstring("## Planning document\nNot available."))
		Expect(user).To(ContainSubstring("## Slack activity\nNot available (no messages this week)."))
		Expect(user).To(ContainSubstring("## Tickets\nNot available (no ticket activity this week)."))
		Expect(user).To(ContainSubstring("## Key results\nNot available."))
	})

	It("groups messages by channel and nests replies under their root", func() {
		rootTs := "1700000100.000000"
		input.Messages = []model.SlackMessage{
			{ChannelID: "C1", MessageTs: rootTs, UserName: "ana", Text: "kicked off the migration"},
			{ChannelID: "C1", MessageTs: "1700000200.000000", ThreadTs: &rootTs, UserName: "ben", Text: "schema looks good"},
			{ChannelID: "C2", MessageTs: "1700000300.000000", UserName: "cleo", Text: "deploy done"},
		}

		_, user := service.BuildPrompt(input)
		c1 := strings.Index(user, "### Channel C1")
		c2 := strings.Index(user, "### Channel C2")
		Expect(c1).To(BeNumerically(">=", 0))
		Expect(c2).To(BeNumerically(">", c1))
		Expect(user).To(ContainSubstring("ana: kicked off the migration\n    ↳ ben: schema looks good"))
	})

	It("labels authorless bot messages and falls back to the user id otherwise", func() {
		input.Messages = []model.SlackMessage{
			{ChannelID: "C1", MessageTs: "1.0", IsBot: true, Text: "build passed"},
			{ChannelID: "C1", MessageTs: "2.0", UserID: "U123", Text: "nice"},
		}

		_, user := service.BuildPrompt(input)
		Expect(user).To(ContainSubstring("(bot): build passed"))
		Expect(user).To(ContainSubstring("U123: nice"))
	})

	It("renders tickets with state, priority and labels", func() {
		desc := "Migrate the ledger tables"
		assignee := "dana"
		input.Tickets = []model.TicketSnapshot{{
			Identifier:   "ENG-42",
			Title:        "Ledger migration",
			StateName:    "In Progress",
			Priority:     2,
			AssigneeName: &assignee,
			LabelNames:   []string{"backend", "payments"},
			Description:  &desc,
		}}

		_, user := service.BuildPrompt(input)
		Expect(user).To(ContainSubstring("- ENG-42 Ledger migration [In Progress, High priority, dana] labels: backend, payments"))
		Expect(user).To(ContainSubstring("  Migrate the ledger tables"))
	})

	It("carries the previous report's assessment forward", func() {
		input.PrevReport = &model.Report{
			Health:     model.HealthAtRisk,
			Progress:   40,
			DriftLevel: model.DriftLevelLow,
			Content:    model.ReportContent{Narrative: "Slipped on auth work."},
		}

		_, user := service.BuildPrompt(input)
		Expect(user).To(ContainSubstring("Health: at-risk, progress: 40%, drift: low"))
		Expect(user).To(ContainSubstring("Narrative: Slipped on auth work."))
	})

	It("includes team metadata and the target date when present", func() {
		team := "Core Payments"
		lead := "maya"
		target := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		input.Project.TeamName = &team
		input.Project.TechLeadName = &lead
		input.Project.TargetDate = &target

		_, user := service.BuildPrompt(input)
		Expect(user).To(ContainSubstring("Team: Core Payments"))
		Expect(user).To(ContainSubstring("Tech lead: maya"))
		Expect(user).To(ContainSubstring("Target date: 2026-06-01"))
	})

	It("always appends the computed delivery stats", func() {
		_, user := service.BuildPrompt(input)
		Expect(user).To(ContainSubstring("Merged: 2, in review: 0, blocked: 0, created: 0, velocity: +100%"))
	})

	It("keeps the system prompt free of project data", func() {
		system, _ := service.BuildPrompt(input)
		Expect(system).NotTo(ContainSubstring("Payments"))
		Expect(system).To(ContainSubstring(`"health": "on-track" | "at-risk" | "off-track"`))
	})
})

var _ = Describe("PriorityLabel", func() {
	It("maps tracker priorities to display names", func() {
		Expect(service.PriorityLabel(0)).To(Equal("None"))
		Expect(service.PriorityLabel(1)).To(Equal("Urgent"))
		Expect(service.PriorityLabel(2)).To(Equal("High"))
		Expect(service.PriorityLabel(3)).To(Equal("Medium"))
		Expect(service.PriorityLabel(4)).To(Equal("Low"))
	})
})
