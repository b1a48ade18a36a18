package service_test

import (
	"context"
	"time"

	"github.com/slack-go/slack"

	"driftapp.dev/drift/common/llm"
	"driftapp.dev/drift/internal/gateway"
	"driftapp.dev/drift/internal/model"
	"driftapp.dev/drift/internal/service"
	"driftapp.dev/drift/internal/store"
)

// Mock OrganizationStore
type mockOrganizationStore struct {
	getByIDFn func(ctx context.Context, id int64) (*model.Organization, error)
	listAllFn func(ctx context.Context) ([]model.Organization, error)
}

func (m *mockOrganizationStore) GetByID(ctx context.Context, id int64) (*model.Organization, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockOrganizationStore) ListAll(ctx context.Context) ([]model.Organization, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

// Mock MemberStore
type mockMemberStore struct {
	listByOrganizationFn func(ctx context.Context, orgID int64) ([]model.Member, error)
}

func (m *mockMemberStore) ListByOrganization(ctx context.Context, orgID int64) ([]model.Member, error) {
	if m.listByOrganizationFn != nil {
		return m.listByOrganizationFn(ctx, orgID)
	}
	return nil, nil
}

// Mock ProjectStore
type mockProjectStore struct {
	getByIDFn                  func(ctx context.Context, id int64) (*model.Project, error)
	listActiveByOrganizationFn func(ctx context.Context, orgID int64) ([]model.Project, error)
}

func (m *mockProjectStore) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockProjectStore) ListActiveByOrganization(ctx context.Context, orgID int64) ([]model.Project, error) {
	if m.listActiveByOrganizationFn != nil {
		return m.listActiveByOrganizationFn(ctx, orgID)
	}
	return nil, nil
}

// Mock MessageStore
type mockMessageStore struct {
	getByChannelAndTsFn            func(ctx context.Context, channelID, messageTs string) (*model.SlackMessage, error)
	getLatestByChannelFn           func(ctx context.Context, channelID string) (*model.SlackMessage, error)
	createBatchFn                  func(ctx context.Context, messages []model.SlackMessage) error
	listUnfilteredByProjectSinceFn func(ctx context.Context, projectID int64, since time.Time) ([]model.SlackMessage, error)
	createdBatches                 [][]model.SlackMessage
}

func (m *mockMessageStore) GetByChannelAndTs(ctx context.Context, channelID, messageTs string) (*model.SlackMessage, error) {
	if m.getByChannelAndTsFn != nil {
		return m.getByChannelAndTsFn(ctx, channelID, messageTs)
	}
	return nil, store.ErrNotFound
}

func (m *mockMessageStore) GetLatestByChannel(ctx context.Context, channelID string) (*model.SlackMessage, error) {
	if m.getLatestByChannelFn != nil {
		return m.getLatestByChannelFn(ctx, channelID)
	}
	return nil, store.ErrNotFound
}

func (m *mockMessageStore) CreateBatch(ctx context.Context, messages []model.SlackMessage) error {
	m.createdBatches = append(m.createdBatches, messages)
	if m.createBatchFn != nil {
		return m.createBatchFn(ctx, messages)
	}
	return nil
}

func (m *mockMessageStore) ListUnfilteredByProjectSince(ctx context.Context, projectID int64, since time.Time) ([]model.SlackMessage, error) {
	if m.listUnfilteredByProjectSinceFn != nil {
		return m.listUnfilteredByProjectSinceFn(ctx, projectID, since)
	}
	return nil, nil
}

// Mock SnapshotStore
type mockSnapshotStore struct {
	getLatestByProjectFn   func(ctx context.Context, projectID int64) (*model.TicketSnapshot, error)
	createBatchFn          func(ctx context.Context, snapshots []model.TicketSnapshot) error
	listByProjectAndWeekFn func(ctx context.Context, projectID int64, weekStart time.Time) ([]model.TicketSnapshot, error)
	createdBatches         [][]model.TicketSnapshot
}

func (m *mockSnapshotStore) GetLatestByProject(ctx context.Context, projectID int64) (*model.TicketSnapshot, error) {
	if m.getLatestByProjectFn != nil {
		return m.getLatestByProjectFn(ctx, projectID)
	}
	return nil, store.ErrNotFound
}

func (m *mockSnapshotStore) CreateBatch(ctx context.Context, snapshots []model.TicketSnapshot) error {
	m.createdBatches = append(m.createdBatches, snapshots)
	if m.createBatchFn != nil {
		return m.createBatchFn(ctx, snapshots)
	}
	return nil
}

func (m *mockSnapshotStore) ListByProjectAndWeek(ctx context.Context, projectID int64, weekStart time.Time) ([]model.TicketSnapshot, error) {
	if m.listByProjectAndWeekFn != nil {
		return m.listByProjectAndWeekFn(ctx, projectID, weekStart)
	}
	return nil, nil
}

// Mock ReportStore
type mockReportStore struct {
	getByIDFn                   func(ctx context.Context, id int64) (*model.Report, error)
	getByProjectAndWeekFn       func(ctx context.Context, projectID int64, weekStart time.Time) (*model.Report, error)
	listByOrganizationAndWeekFn func(ctx context.Context, orgID int64, weekStart time.Time) ([]model.Report, error)
	createFn                    func(ctx context.Context, report *model.Report) error
	markDeliveredFn             func(ctx context.Context, id int64, deliveryTs string, deliveredAt time.Time) error
	createdReport               *model.Report
	deliveredTs                 string
}

func (m *mockReportStore) GetByID(ctx context.Context, id int64) (*model.Report, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockReportStore) GetByProjectAndWeek(ctx context.Context, projectID int64, weekStart time.Time) (*model.Report, error) {
	if m.getByProjectAndWeekFn != nil {
		return m.getByProjectAndWeekFn(ctx, projectID, weekStart)
	}
	return nil, store.ErrNotFound
}

func (m *mockReportStore) ListByOrganizationAndWeek(ctx context.Context, orgID int64, weekStart time.Time) ([]model.Report, error) {
	if m.listByOrganizationAndWeekFn != nil {
		return m.listByOrganizationAndWeekFn(ctx, orgID, weekStart)
	}
	return nil, nil
}

func (m *mockReportStore) Create(ctx context.Context, report *model.Report) error {
	m.createdReport = report
	if m.createFn != nil {
		return m.createFn(ctx, report)
	}
	return nil
}

func (m *mockReportStore) MarkDelivered(ctx context.Context, id int64, deliveryTs string, deliveredAt time.Time) error {
	m.deliveredTs = deliveryTs
	if m.markDeliveredFn != nil {
		return m.markDeliveredFn(ctx, id, deliveryTs, deliveredAt)
	}
	return nil
}

// Mock TxRunner backed by the mock stores
type mockStoreProvider struct {
	messages  *mockMessageStore
	snapshots *mockSnapshotStore
	reports   *mockReportStore
}

func (m *mockStoreProvider) Messages() store.MessageStore   { return m.messages }
func (m *mockStoreProvider) Snapshots() store.SnapshotStore { return m.snapshots }
func (m *mockStoreProvider) Reports() store.ReportStore     { return m.reports }

type mockTxRunner struct {
	provider *mockStoreProvider
}

func (m *mockTxRunner) WithTx(ctx context.Context, fn func(stores service.StoreProvider) error) error {
	return fn(m.provider)
}

// Mock SlackGateway
type mockSlackGateway struct {
	channelHistoryFn    func(ctx context.Context, channelID, oldest string) ([]gateway.ChannelMessage, error)
	threadRepliesFn     func(ctx context.Context, channelID, threadTs string) ([]gateway.ChannelMessage, error)
	userNameFn          func(ctx context.Context, userID string) (string, error)
	postDirectMessageFn func(ctx context.Context, userID string, text string, blocks []slack.Block) (string, error)
	userNameCalls       []string
	dmRecipients        []string
}

func (m *mockSlackGateway) ChannelHistory(ctx context.Context, channelID, oldest string) ([]gateway.ChannelMessage, error) {
	if m.channelHistoryFn != nil {
		return m.channelHistoryFn(ctx, channelID, oldest)
	}
	return nil, nil
}

func (m *mockSlackGateway) ThreadReplies(ctx context.Context, channelID, threadTs string) ([]gateway.ChannelMessage, error) {
	if m.threadRepliesFn != nil {
		return m.threadRepliesFn(ctx, channelID, threadTs)
	}
	return nil, nil
}

func (m *mockSlackGateway) UserName(ctx context.Context, userID string) (string, error) {
	m.userNameCalls = append(m.userNameCalls, userID)
	if m.userNameFn != nil {
		return m.userNameFn(ctx, userID)
	}
	return "user-" + userID, nil
}

func (m *mockSlackGateway) PostDirectMessage(ctx context.Context, userID string, text string, blocks []slack.Block) (string, error) {
	m.dmRecipients = append(m.dmRecipients, userID)
	if m.postDirectMessageFn != nil {
		return m.postDirectMessageFn(ctx, userID, text, blocks)
	}
	return "1700000000.000100", nil
}

// Mock LinearGateway
type mockLinearGateway struct {
	projectIssuesFn func(ctx context.Context, projectID string, since time.Time) ([]gateway.Issue, error)
	teamIssuesFn    func(ctx context.Context, teamID string, since time.Time) ([]gateway.Issue, error)
}

func (m *mockLinearGateway) ProjectIssues(ctx context.Context, projectID string, since time.Time) ([]gateway.Issue, error) {
	if m.projectIssuesFn != nil {
		return m.projectIssuesFn(ctx, projectID, since)
	}
	return nil, nil
}

func (m *mockLinearGateway) TeamIssues(ctx context.Context, teamID string, since time.Time) ([]gateway.Issue, error) {
	if m.teamIssuesFn != nil {
		return m.teamIssuesFn(ctx, teamID, since)
	}
	return nil, nil
}

// Mock NotionGateway
type mockNotionGateway struct {
	getPageFn        func(ctx context.Context, pageID string) (*gateway.Page, error)
	getPageContentFn func(ctx context.Context, pageID string) (*gateway.Page, error)
}

func (m *mockNotionGateway) GetPage(ctx context.Context, pageID string) (*gateway.Page, error) {
	if m.getPageFn != nil {
		return m.getPageFn(ctx, pageID)
	}
	return nil, nil
}

func (m *mockNotionGateway) GetPageContent(ctx context.Context, pageID string) (*gateway.Page, error) {
	if m.getPageContentFn != nil {
		return m.getPageContentFn(ctx, pageID)
	}
	return nil, nil
}

// Mock LLM client
type mockLLMClient struct {
	generateFn    func(ctx context.Context, systemPrompt, userPrompt string) (*llm.GenerationResult, error)
	generateCalls int
}

func (m *mockLLMClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (*llm.GenerationResult, error) {
	m.generateCalls++
	if m.generateFn != nil {
		return m.generateFn(ctx, systemPrompt, userPrompt)
	}
	return &llm.GenerationResult{Content: "{}"}, nil
}

func (m *mockLLMClient) Model() string {
	return "test-model"
}

// Mock Locker
type mockLocker struct {
	acquireFn func(ctx context.Context, key string, ttl time.Duration) (bool, error)
	released  []string
}

func (m *mockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.acquireFn != nil {
		return m.acquireFn(ctx, key, ttl)
	}
	return true, nil
}

func (m *mockLocker) Release(ctx context.Context, key string) error {
	m.released = append(m.released, key)
	return nil
}

// Mock FilterPolicy that records what it was asked to evaluate
type mockFilter struct {
	shouldFilterFn func(msg gateway.ChannelMessage, threadReplyCount int) bool
	evaluated      map[string]int // ts -> thread reply count it was evaluated with
}

func (m *mockFilter) ShouldFilter(msg gateway.ChannelMessage, threadReplyCount int) bool {
	if m.evaluated == nil {
		m.evaluated = map[string]int{}
	}
	m.evaluated[msg.Ts] = threadReplyCount
	if m.shouldFilterFn != nil {
		return m.shouldFilterFn(msg, threadReplyCount)
	}
	return false
}

// Mocks of the pipeline services for batch orchestration tests

type mockIngestService struct {
	ingestProjectFn func(ctx context.Context, org *model.Organization, project *model.Project) (service.IngestResult, error)
	calls           []int64
}

func (m *mockIngestService) IngestProject(ctx context.Context, org *model.Organization, project *model.Project) (service.IngestResult, error) {
	m.calls = append(m.calls, project.ID)
	if m.ingestProjectFn != nil {
		return m.ingestProjectFn(ctx, org, project)
	}
	return service.IngestResult{}, nil
}

type mockSnapshotService struct {
	snapshotProjectFn func(ctx context.Context, org *model.Organization, project *model.Project) (int, error)
	calls             []int64
}

func (m *mockSnapshotService) SnapshotProject(ctx context.Context, org *model.Organization, project *model.Project) (int, error) {
	m.calls = append(m.calls, project.ID)
	if m.snapshotProjectFn != nil {
		return m.snapshotProjectFn(ctx, org, project)
	}
	return 0, nil
}

type mockGeneratorService struct {
	generateFn func(ctx context.Context, org *model.Organization, project *model.Project) (*model.Report, error)
	calls      []int64
}

func (m *mockGeneratorService) Generate(ctx context.Context, org *model.Organization, project *model.Project) (*model.Report, error) {
	m.calls = append(m.calls, project.ID)
	if m.generateFn != nil {
		return m.generateFn(ctx, org, project)
	}
	return &model.Report{ID: 1, ProjectID: project.ID}, nil
}

type mockDeliverService struct {
	deliverFn func(ctx context.Context, org *model.Organization, project *model.Project, report *model.Report) (int, error)
	calls     []int64
}

func (m *mockDeliverService) Deliver(ctx context.Context, org *model.Organization, project *model.Project, report *model.Report) (int, error) {
	m.calls = append(m.calls, report.ProjectID)
	if m.deliverFn != nil {
		return m.deliverFn(ctx, org, project, report)
	}
	return 1, nil
}

type mockPortfolioService struct {
	sendFn func(ctx context.Context, org *model.Organization, weekStart time.Time) error
	calls  int
}

func (m *mockPortfolioService) Send(ctx context.Context, org *model.Organization, weekStart time.Time) error {
	m.calls++
	if m.sendFn != nil {
		return m.sendFn(ctx, org, weekStart)
	}
	return nil
}
