package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"driftapp.dev/drift/common/id"
	"driftapp.dev/drift/common/llm"
	"driftapp.dev/drift/internal/gateway"
	"driftapp.dev/drift/internal/model"
	"driftapp.dev/drift/internal/store"
)

var (
	// ErrGenerationInProgress means another run holds the per-project lock
	// for this week.
	ErrGenerationInProgress = errors.New("report generation already in progress")
)

// ReportGeneratorService runs one synthesis pass for a project:
// gather sources, build the prompt, call the LLM, parse, persist.
type ReportGeneratorService interface {
	Generate(ctx context.Context, org *model.Organization, project *model.Project) (*model.Report, error)
}

type reportGeneratorService struct {
	messages  store.MessageStore
	snapshots store.SnapshotStore
	reports   store.ReportStore
	stats     DeliveryStatsService
	parser    ReportParser
	llm       llm.Client
	notion    gateway.NotionGateway // nil when no integration is configured
	locker    Locker
	now       func() time.Time
	logger    *slog.Logger
}

func NewReportGeneratorService(
	messages store.MessageStore,
	snapshots store.SnapshotStore,
	reports store.ReportStore,
	stats DeliveryStatsService,
	parser ReportParser,
	llmClient llm.Client,
	notion gateway.NotionGateway,
	locker Locker,
	logger *slog.Logger,
) ReportGeneratorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &reportGeneratorService{
		messages:  messages,
		snapshots: snapshots,
		reports:   reports,
		stats:     stats,
		parser:    parser,
		llm:       llmClient,
		notion:    notion,
		locker:    locker,
		now:       time.Now,
		logger:    logger,
	}
}

const generationLockTTL = 10 * time.Minute

func (s *reportGeneratorService) Generate(ctx context.Context, org *model.Organization, project *model.Project) (*model.Report, error) {
	now := s.now().UTC()
	weekStart := WeekStart(now)
	weekEnd := WeekEnd(weekStart)
	weekNumber := project.WeekNumber(now)

	lockKey := fmt.Sprintf("drift:lock:report:%d:%s", project.ID, weekStart.Format("2006-01-02"))
	acquired, err := s.locker.Acquire(ctx, lockKey, generationLockTTL)
	if err != nil {
		return nil, fmt.Errorf("project %d: acquiring generation lock: %w", project.ID, err)
	}
	if !acquired {
		return nil, fmt.Errorf("project %d: %w", project.ID, ErrGenerationInProgress)
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logger.WarnContext(ctx, "releasing generation lock failed", "key", lockKey, "error", err)
		}
	}()

	gathered, err := s.gather(ctx, project, weekStart)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", project.ID, err)
	}

	tickets := dedupeLatest(gathered.snapshots)
	periodLabel := PeriodLabel(weekNumber, weekStart, weekEnd)
	systemPrompt, userPrompt := BuildPrompt(PromptInput{
		Project:       *project,
		WeekNumber:    weekNumber,
		PeriodLabel:   periodLabel,
		Messages:      gathered.messages,
		Tickets:       tickets,
		Stats:         gathered.stats,
		NotionContent: gathered.notionContent,
		PrevReport:    gathered.prevReport,
	})

	genStart := s.now()
	result, err := s.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("project %d: generating report: %w", project.ID, err)
	}

	content, err := s.parser.Parse(ctx, result.Content)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", project.ID, err)
	}
	generationTime := s.now().Sub(genStart)

	// Computed facts always win over whatever the model echoed back.
	content.Delivery = gathered.stats
	content.SourceCounts = model.SourceCounts{
		Slack:  len(gathered.messages),
		Linear: len(tickets),
		Notion: gathered.notionPagesRead,
	}

	prevProgress := 0
	if gathered.prevReport != nil {
		prevProgress = gathered.prevReport.Progress
	}

	report := &model.Report{
		ID:                id.New(),
		ProjectID:         project.ID,
		WeekStart:         weekStart,
		WeekEnd:           weekEnd,
		WeekNumber:        weekNumber,
		PeriodLabel:       periodLabel,
		Content:           *content,
		Health:            content.Health,
		DriftLevel:        content.Drift.Level,
		Progress:          int(math.Round(content.Progress)),
		PrevProgress:      prevProgress,
		SlackMessageCount: len(gathered.messages),
		LinearTicketCount: len(tickets),
		NotionPagesRead:   gathered.notionPagesRead,
		ModelUsed:         s.llm.Model(),
		PromptTokens:      result.PromptTokens,
		CompletionTokens:  result.CompletionTokens,
		GenerationTimeMs:  generationTime.Milliseconds(),
		CreatedAt:         now,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("project %d: persisting report: %w", project.ID, err)
	}

	s.logger.InfoContext(ctx, "report generated",
		"project_id", project.ID,
		"report_id", report.ID,
		"health", report.Health,
		"progress", report.Progress,
		"generation_time_ms", report.GenerationTimeMs)
	return report, nil
}

type gatherResult struct {
	messages        []model.SlackMessage
	snapshots       []model.TicketSnapshot
	stats           model.DeliveryStats
	prevReport      *model.Report
	notionContent   string
	notionPagesRead int
}

// gather fetches the independent sources concurrently. A Notion failure
// degrades to an empty document; everything else is fatal for the run.
func (s *reportGeneratorService) gather(ctx context.Context, project *model.Project, weekStart time.Time) (*gatherResult, error) {
	var (
		wg                                 sync.WaitGroup
		out                                gatherResult
		msgErr, snapErr, statsErr, prevErr error
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		out.messages, msgErr = s.messages.ListUnfilteredByProjectSince(ctx, project.ID, weekStart)
	}()
	go func() {
		defer wg.Done()
		out.snapshots, snapErr = s.snapshots.ListByProjectAndWeek(ctx, project.ID, weekStart)
	}()
	go func() {
		defer wg.Done()
		out.stats, statsErr = s.stats.WeekStats(ctx, project.ID, weekStart)
	}()
	go func() {
		defer wg.Done()
		prev, err := s.reports.GetByProjectAndWeek(ctx, project.ID, PrevWeekStart(weekStart))
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				prevErr = err
			}
			return
		}
		out.prevReport = prev
	}()
	go func() {
		defer wg.Done()
		out.notionContent, out.notionPagesRead = s.fetchNotionContent(ctx, project, weekStart)
	}()
	wg.Wait()

	switch {
	case msgErr != nil:
		return nil, fmt.Errorf("gathering messages: %w", msgErr)
	case snapErr != nil:
		return nil, fmt.Errorf("gathering snapshots: %w", snapErr)
	case statsErr != nil:
		return nil, fmt.Errorf("gathering delivery stats: %w", statsErr)
	case prevErr != nil:
		return nil, fmt.Errorf("fetching previous report: %w", prevErr)
	}
	return &out, nil
}

// fetchNotionContent reads the project's planning doc only when it was
// edited after the week started.
func (s *reportGeneratorService) fetchNotionContent(ctx context.Context, project *model.Project, weekStart time.Time) (string, int) {
	if s.notion == nil || project.NotionPageID == nil || *project.NotionPageID == "" {
		return "", 0
	}

	page, err := s.notion.GetPage(ctx, *project.NotionPageID)
	if err != nil {
		s.logger.WarnContext(ctx, "notion page lookup failed, continuing without doc",
			"page_id", *project.NotionPageID, "error", err)
		return "", 0
	}
	if !page.LastEditedTime.After(weekStart) {
		return "", 0
	}

	full, err := s.notion.GetPageContent(ctx, *project.NotionPageID)
	if err != nil {
		s.logger.WarnContext(ctx, "notion content fetch failed, continuing without doc",
			"page_id", *project.NotionPageID, "error", err)
		return "", 0
	}
	return full.Content, 1
}
