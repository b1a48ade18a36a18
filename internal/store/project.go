package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"driftapp.dev/drift/internal/model"
)

type projectStore struct {
	db DBTX
}

func newProjectStore(db DBTX) ProjectStore {
	return &projectStore{db: db}
}

const projectColumns = `id, organization_id, name, emoji, is_active, slack_channel_ids,
	linear_project_id, linear_team_id, notion_page_id, product_objective, objective_origin,
	key_results, team_name, pm_lead_name, tech_lead_name, target_date, started_at,
	created_at, updated_at`

func (s *projectStore) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	row := s.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *projectStore) ListActiveByOrganization(ctx context.Context, orgID int64) ([]model.Project, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE organization_id = $1 AND is_active ORDER BY id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	var keyResults []byte
	if err := row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.Name,
		&p.Emoji,
		&p.IsActive,
		&p.SlackChannelIDs,
		&p.LinearProjectID,
		&p.LinearTeamID,
		&p.NotionPageID,
		&p.ProductObjective,
		&p.ObjectiveOrigin,
		&keyResults,
		&p.TeamName,
		&p.PMLeadName,
		&p.TechLeadName,
		&p.TargetDate,
		&p.StartedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(keyResults) > 0 {
		if err := json.Unmarshal(keyResults, &p.KeyResults); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
