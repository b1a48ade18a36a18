package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"driftapp.dev/drift/internal/model"
	"driftapp.dev/drift/internal/service"
)

var _ = Describe("BatchService", func() {
	var (
		ctx       context.Context
		orgs      *mockOrganizationStore
		projects  *mockProjectStore
		ingest    *mockIngestService
		snapshot  *mockSnapshotService
		generator *mockGeneratorService
		deliverer *mockDeliverService
		portfolio *mockPortfolioService
		svc       service.BatchService
	)

	BeforeEach(func() {
		ctx = context.Background()
		orgs = &mockOrganizationStore{
			getByIDFn: func(ctx context.Context, id int64) (*model.Organization, error) {
				return &model.Organization{ID: id, Name: "Acme"}, nil
			},
		}
		projects = &mockProjectStore{
			listActiveByOrganizationFn: func(ctx context.Context, orgID int64) ([]model.Project, error) {
				return []model.Project{
					{ID: 10, OrganizationID: orgID, Name: "Payments"},
					{ID: 11, OrganizationID: orgID, Name: "Search"},
				}, nil
			},
		}
		ingest = &mockIngestService{}
		snapshot = &mockSnapshotService{}
		generator = &mockGeneratorService{}
		deliverer = &mockDeliverService{}
		portfolio = &mockPortfolioService{}
		svc = service.NewBatchService(orgs, projects, ingest, snapshot, generator, deliverer, portfolio, nil)
	})

	Describe("IngestOrganization", func() {
		It("runs every active project", func() {
			Expect(svc.IngestOrganization(ctx, 1)).To(Succeed())
			Expect(ingest.calls).To(Equal([]int64{10, 11}))
		})

		It("continues past a failing project", func() {
			ingest.ingestProjectFn = func(ctx context.Context, org *model.Organization, project *model.Project) (service.IngestResult, error) {
				if project.ID == 10 {
					return service.IngestResult{}, errors.New("slack down")
				}
				return service.IngestResult{Ingested: 3}, nil
			}

			Expect(svc.IngestOrganization(ctx, 1)).To(Succeed())
			Expect(ingest.calls).To(Equal([]int64{10, 11}))
		})

		It("rejects an unknown organization", func() {
			orgs.getByIDFn = nil
			err := svc.IngestOrganization(ctx, 99)
			Expect(err).To(MatchError(service.ErrOrganizationNotFound))
		})
	})

	Describe("SnapshotOrganization", func() {
		It("continues past a failing project", func() {
			snapshot.snapshotProjectFn = func(ctx context.Context, org *model.Organization, project *model.Project) (int, error) {
				if project.ID == 10 {
					return 0, errors.New("linear down")
				}
				return 2, nil
			}

			Expect(svc.SnapshotOrganization(ctx, 1)).To(Succeed())
			Expect(snapshot.calls).To(Equal([]int64{10, 11}))
		})
	})

	Describe("ReportOrganization", func() {
		It("generates and delivers per project, then sends the portfolio rollup", func() {
			Expect(svc.ReportOrganization(ctx, 1)).To(Succeed())
			Expect(generator.calls).To(Equal([]int64{10, 11}))
			Expect(deliverer.calls).To(Equal([]int64{10, 11}))
			Expect(portfolio.calls).To(Equal(1))
		})

		It("skips delivery for a project whose generation failed", func() {
			generator.generateFn = func(ctx context.Context, org *model.Organization, project *model.Project) (*model.Report, error) {
				if project.ID == 10 {
					return nil, errors.New("model unavailable")
				}
				return &model.Report{ID: 2, ProjectID: project.ID}, nil
			}

			Expect(svc.ReportOrganization(ctx, 1)).To(Succeed())
			Expect(deliverer.calls).To(Equal([]int64{11}))
			Expect(portfolio.calls).To(Equal(1))
		})

		It("still sends the rollup when a delivery fails", func() {
			deliverer.deliverFn = func(ctx context.Context, org *model.Organization, project *model.Project, report *model.Report) (int, error) {
				return 0, errors.New("dm failed")
			}

			Expect(svc.ReportOrganization(ctx, 1)).To(Succeed())
			Expect(portfolio.calls).To(Equal(1))
		})

		It("hands the portfolio the current week", func() {
			var sentWeek time.Time
			portfolio.sendFn = func(ctx context.Context, org *model.Organization, weekStart time.Time) error {
				sentWeek = weekStart
				return nil
			}

			Expect(svc.ReportOrganization(ctx, 1)).To(Succeed())
			Expect(sentWeek).To(Equal(service.WeekStart(time.Now().UTC())))
		})
	})

	Describe("IngestProject", func() {
		It("resolves the project's organization before ingesting", func() {
			projects.getByIDFn = func(ctx context.Context, id int64) (*model.Project, error) {
				return &model.Project{ID: id, OrganizationID: 1}, nil
			}

			result, err := svc.IngestProject(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(service.IngestResult{}))
			Expect(ingest.calls).To(Equal([]int64{10}))
		})

		It("rejects an unknown project", func() {
			_, err := svc.IngestProject(ctx, 99)
			Expect(err).To(MatchError(service.ErrProjectNotFound))
		})
	})

	Describe("GenerateProject", func() {
		BeforeEach(func() {
			projects.getByIDFn = func(ctx context.Context, id int64) (*model.Project, error) {
				return &model.Project{ID: id, OrganizationID: 1}, nil
			}
		})

		It("generates and delivers synchronously", func() {
			report, err := svc.GenerateProject(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.ProjectID).To(Equal(int64(10)))
			Expect(deliverer.calls).To(Equal([]int64{10}))
		})

		It("returns the report even when delivery fails", func() {
			deliverer.deliverFn = func(ctx context.Context, org *model.Organization, project *model.Project, report *model.Report) (int, error) {
				return 0, errors.New("dm failed")
			}

			report, err := svc.GenerateProject(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(report).NotTo(BeNil())
		})

		It("propagates generation failures", func() {
			generator.generateFn = func(ctx context.Context, org *model.Organization, project *model.Project) (*model.Report, error) {
				return nil, service.ErrGenerationInProgress
			}

			_, err := svc.GenerateProject(ctx, 10)
			Expect(err).To(MatchError(service.ErrGenerationInProgress))
		})
	})
})
