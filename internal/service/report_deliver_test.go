package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/slack-go/slack"

	"driftapp.dev/drift/internal/gateway"
	"driftapp.dev/drift/internal/model"
	"driftapp.dev/drift/internal/service"
)

var _ = Describe("ReportDeliverService", func() {
	var (
		ctx     context.Context
		members *mockMemberStore
		reports *mockReportStore
		sg      *mockSlackGateway
		svc     service.ReportDeliverService
		org     *model.Organization
		project *model.Project
		report  *model.Report
	)

	BeforeEach(func() {
		ctx = context.Background()
		members = &mockMemberStore{}
		reports = &mockReportStore{}
		sg = &mockSlackGateway{}
		svc = service.NewReportDeliverService(members, reports, func(token string) gateway.SlackGateway { return sg }, "https://drift.example.com", nil)

		org = &model.Organization{ID: 1, SlackBotToken: "xoxb-test"}
		project = &model.Project{ID: 10, Name: "Payments"}
		report = &model.Report{
			ID:          77,
			ProjectID:   10,
			Health:      model.HealthOnTrack,
			Progress:    60,
			PeriodLabel: "Week 4 · Mar 2–Mar 8",
			Content:     model.ReportContent{Narrative: "Good week."},
		}
	})

	It("delivers only to admins", func() {
		members.listByOrganizationFn = func(ctx context.Context, orgID int64) ([]model.Member, error) {
			return []model.Member{
				{SlackUserID: "U-admin-1", Role: model.MemberRoleAdmin},
				{SlackUserID: "U-member", Role: model.MemberRoleMember},
				{SlackUserID: "U-admin-2", Role: model.MemberRoleAdmin},
			}, nil
		}

		delivered, err := svc.Deliver(ctx, org, project, report)
		Expect(err).NotTo(HaveOccurred())
		Expect(delivered).To(Equal(2))
		Expect(sg.dmRecipients).To(Equal([]string{"U-admin-1", "U-admin-2"}))
	})

	It("warns and succeeds with zero admins", func() {
		members.listByOrganizationFn = func(ctx context.Context, orgID int64) ([]model.Member, error) {
			return []model.Member{{SlackUserID: "U-member", Role: model.MemberRoleMember}}, nil
		}

		delivered, err := svc.Deliver(ctx, org, project, report)
		Expect(err).NotTo(HaveOccurred())
		Expect(delivered).To(BeZero())
		Expect(reports.deliveredTs).To(BeEmpty())
	})

	It("isolates recipient failures and marks delivery off the first success", func() {
		members.listByOrganizationFn = func(ctx context.Context, orgID int64) ([]model.Member, error) {
			return []model.Member{
				{SlackUserID: "U-broken", Role: model.MemberRoleAdmin},
				{SlackUserID: "U-ok", Role: model.MemberRoleAdmin},
			}, nil
		}
		sg.postDirectMessageFn = func(ctx context.Context, userID, text string, blocks []slack.Block) (string, error) {
			if userID == "U-broken" {
				return "", errors.New("cannot_dm_bot")
			}
			return "1700000042.000200", nil
		}

		var markedID int64
		reports.markDeliveredFn = func(ctx context.Context, id int64, ts string, at time.Time) error {
			markedID = id
			return nil
		}

		delivered, err := svc.Deliver(ctx, org, project, report)
		Expect(err).NotTo(HaveOccurred())
		Expect(delivered).To(Equal(1))
		Expect(markedID).To(Equal(report.ID))
		Expect(reports.deliveredTs).To(Equal("1700000042.000200"))
	})

	It("does not mark delivery when every recipient fails", func() {
		members.listByOrganizationFn = func(ctx context.Context, orgID int64) ([]model.Member, error) {
			return []model.Member{{SlackUserID: "U-broken", Role: model.MemberRoleAdmin}}, nil
		}
		sg.postDirectMessageFn = func(ctx context.Context, userID, text string, blocks []slack.Block) (string, error) {
			return "", errors.New("account_inactive")
		}

		delivered, err := svc.Deliver(ctx, org, project, report)
		Expect(err).NotTo(HaveOccurred())
		Expect(delivered).To(BeZero())
		Expect(reports.deliveredTs).To(BeEmpty())
	})

	It("propagates a member listing failure", func() {
		members.listByOrganizationFn = func(ctx context.Context, orgID int64) ([]model.Member, error) {
			return nil, errors.New("db down")
		}

		_, err := svc.Deliver(ctx, org, project, report)
		Expect(err).To(MatchError(ContainSubstring("listing members")))
	})
})

var _ = Describe("PortfolioSummaryService", func() {
	var (
		ctx      context.Context
		reports  *mockReportStore
		projects *mockProjectStore
		members  *mockMemberStore
		sg       *mockSlackGateway
		svc      service.PortfolioSummaryService
		org      *model.Organization
		week     time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		reports = &mockReportStore{}
		projects = &mockProjectStore{}
		members = &mockMemberStore{}
		sg = &mockSlackGateway{}
		svc = service.NewPortfolioSummaryService(reports, projects, members, func(token string) gateway.SlackGateway { return sg }, nil)

		org = &model.Organization{ID: 1, SlackBotToken: "xoxb-test"}
		week = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	})

	It("sends nothing for a week with no reports", func() {
		Expect(svc.Send(ctx, org, week)).To(Succeed())
		Expect(sg.dmRecipients).To(BeEmpty())
	})

	It("rolls every report into one DM per admin", func() {
		reports.listByOrganizationAndWeekFn = func(ctx context.Context, orgID int64, ws time.Time) ([]model.Report, error) {
			return []model.Report{
				{ProjectID: 10, Health: model.HealthOnTrack, Progress: 60},
				{ProjectID: 11, Health: model.HealthOffTrack, Progress: 20},
			}, nil
		}
		projects.listActiveByOrganizationFn = func(ctx context.Context, orgID int64) ([]model.Project, error) {
			return []model.Project{{ID: 10, Name: "Payments"}, {ID: 11, Name: "Search"}}, nil
		}
		members.listByOrganizationFn = func(ctx context.Context, orgID int64) ([]model.Member, error) {
			return []model.Member{
				{SlackUserID: "U-admin", Role: model.MemberRoleAdmin},
				{SlackUserID: "U-member", Role: model.MemberRoleMember},
			}, nil
		}

		var fallback string
		sg.postDirectMessageFn = func(ctx context.Context, userID, text string, blocks []slack.Block) (string, error) {
			fallback = text
			return "1.0", nil
		}

		Expect(svc.Send(ctx, org, week)).To(Succeed())
		Expect(sg.dmRecipients).To(Equal([]string{"U-admin"}))
		Expect(fallback).To(Equal("Portfolio summary: 2 reports for week of Mar 2"))
	})

	It("tolerates a failing recipient", func() {
		reports.listByOrganizationAndWeekFn = func(ctx context.Context, orgID int64, ws time.Time) ([]model.Report, error) {
			return []model.Report{{ProjectID: 10}}, nil
		}
		members.listByOrganizationFn = func(ctx context.Context, orgID int64) ([]model.Member, error) {
			return []model.Member{
				{SlackUserID: "U-broken", Role: model.MemberRoleAdmin},
				{SlackUserID: "U-ok", Role: model.MemberRoleAdmin},
			}, nil
		}
		sg.postDirectMessageFn = func(ctx context.Context, userID, text string, blocks []slack.Block) (string, error) {
			if userID == "U-broken" {
				return "", errors.New("cannot_dm_bot")
			}
			return "1.0", nil
		}

		Expect(svc.Send(ctx, org, week)).To(Succeed())
		Expect(sg.dmRecipients).To(HaveLen(2))
	})
})
