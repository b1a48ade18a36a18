package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"driftapp.dev/drift/internal/model"
)

type reportStore struct {
	db DBTX
}

func newReportStore(db DBTX) ReportStore {
	return &reportStore{db: db}
}

const reportColumns = `id, project_id, week_start, week_end, week_number, period_label, content,
	health, drift_level, progress, prev_progress, slack_message_count, linear_ticket_count,
	notion_pages_read, model_used, prompt_tokens, completion_tokens, generation_time_ms,
	delivered_at, delivery_ts, created_at`

func (s *reportStore) GetByID(ctx context.Context, id int64) (*model.Report, error) {
	row := s.db.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	return s.scanOne(row)
}

func (s *reportStore) GetByProjectAndWeek(ctx context.Context, projectID int64, weekStart time.Time) (*model.Report, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE project_id = $1 AND week_start = $2`,
		projectID, weekStart)
	return s.scanOne(row)
}

func (s *reportStore) ListByOrganizationAndWeek(ctx context.Context, orgID int64, weekStart time.Time) ([]model.Report, error) {
	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.project_id, r.week_start, r.week_end, r.week_number, r.period_label,
			r.content, r.health, r.drift_level, r.progress, r.prev_progress,
			r.slack_message_count, r.linear_ticket_count, r.notion_pages_read, r.model_used,
			r.prompt_tokens, r.completion_tokens, r.generation_time_ms,
			r.delivered_at, r.delivery_ts, r.created_at
		 FROM reports r
		 JOIN projects p ON p.id = r.project_id
		 WHERE p.organization_id = $1 AND r.week_start = $2
		 ORDER BY r.project_id`, orgID, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

func (s *reportStore) Create(ctx context.Context, report *model.Report) error {
	content, err := json.Marshal(report.Content)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO reports (id, project_id, week_start, week_end, week_number, period_label,
			content, health, drift_level, progress, prev_progress, slack_message_count,
			linear_ticket_count, notion_pages_read, model_used, prompt_tokens,
			completion_tokens, generation_time_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		report.ID, report.ProjectID, report.WeekStart, report.WeekEnd, report.WeekNumber,
		report.PeriodLabel, content, report.Health, report.DriftLevel, report.Progress,
		report.PrevProgress, report.SlackMessageCount, report.LinearTicketCount,
		report.NotionPagesRead, report.ModelUsed, report.PromptTokens,
		report.CompletionTokens, report.GenerationTimeMs, report.CreatedAt)
	return err
}

func (s *reportStore) MarkDelivered(ctx context.Context, id int64, deliveryTs string, deliveredAt time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE reports SET delivered_at = $2, delivery_ts = $3 WHERE id = $1`,
		id, deliveredAt, deliveryTs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *reportStore) scanOne(row pgx.Row) (*model.Report, error) {
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func scanReport(row pgx.Row) (*model.Report, error) {
	var r model.Report
	var content []byte
	if err := row.Scan(
		&r.ID,
		&r.ProjectID,
		&r.WeekStart,
		&r.WeekEnd,
		&r.WeekNumber,
		&r.PeriodLabel,
		&content,
		&r.Health,
		&r.DriftLevel,
		&r.Progress,
		&r.PrevProgress,
		&r.SlackMessageCount,
		&r.LinearTicketCount,
		&r.NotionPagesRead,
		&r.ModelUsed,
		&r.PromptTokens,
		&r.CompletionTokens,
		&r.GenerationTimeMs,
		&r.DeliveredAt,
		&r.DeliveryTs,
		&r.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, &r.Content); err != nil {
		return nil, err
	}
	return &r, nil
}
