package service

import (
	"log/slog"

	"driftapp.dev/drift/common/llm"
	"driftapp.dev/drift/internal/gateway"
	"driftapp.dev/drift/internal/store"
)

// SlackGatewayFactory builds a gateway bound to one workspace's bot token.
// Tokens are per-organization, so gateways cannot be constructed up front.
type SlackGatewayFactory func(botToken string) gateway.SlackGateway

// LinearGatewayFactory builds a gateway bound to one workspace's API token.
type LinearGatewayFactory func(token string) gateway.LinearGateway

type Services struct {
	stores       *store.Stores
	txRunner     TxRunner
	llm          llm.Client
	notion       gateway.NotionGateway
	slackFor     SlackGatewayFactory
	linearFor    LinearGatewayFactory
	locker       Locker
	filter       FilterPolicy
	dashboardURL string
	logger       *slog.Logger
}

func NewServices(
	stores *store.Stores,
	txRunner TxRunner,
	llmClient llm.Client,
	notion gateway.NotionGateway,
	slackFor SlackGatewayFactory,
	linearFor LinearGatewayFactory,
	locker Locker,
	dashboardURL string,
	logger *slog.Logger,
) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	return &Services{
		stores:       stores,
		txRunner:     txRunner,
		llm:          llmClient,
		notion:       notion,
		slackFor:     slackFor,
		linearFor:    linearFor,
		locker:       locker,
		filter:       NewPassthroughFilter(),
		dashboardURL: dashboardURL,
		logger:       logger,
	}
}

func (s *Services) Ingest() ChannelIngestService {
	return NewChannelIngestService(s.stores.Messages(), s.txRunner, s.slackFor, s.filter, s.logger)
}

func (s *Services) Snapshots() TicketSnapshotService {
	return NewTicketSnapshotService(s.stores.Snapshots(), s.txRunner, s.linearFor, s.logger)
}

func (s *Services) DeliveryStats() DeliveryStatsService {
	return NewDeliveryStatsService(s.stores.Snapshots())
}

func (s *Services) Parser() ReportParser {
	return NewReportParser(s.llm, s.logger)
}

func (s *Services) Generator() ReportGeneratorService {
	return NewReportGeneratorService(
		s.stores.Messages(),
		s.stores.Snapshots(),
		s.stores.Reports(),
		s.DeliveryStats(),
		s.Parser(),
		s.llm,
		s.notion,
		s.locker,
		s.logger,
	)
}

func (s *Services) Deliverer() ReportDeliverService {
	return NewReportDeliverService(s.stores.Members(), s.stores.Reports(), s.slackFor, s.dashboardURL, s.logger)
}

func (s *Services) Portfolio() PortfolioSummaryService {
	return NewPortfolioSummaryService(s.stores.Reports(), s.stores.Projects(), s.stores.Members(), s.slackFor, s.logger)
}

func (s *Services) Batch() BatchService {
	return NewBatchService(
		s.stores.Organizations(),
		s.stores.Projects(),
		s.Ingest(),
		s.Snapshots(),
		s.Generator(),
		s.Deliverer(),
		s.Portfolio(),
		s.logger,
	)
}
