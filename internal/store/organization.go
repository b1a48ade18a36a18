package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"driftapp.dev/drift/internal/model"
)

type organizationStore struct {
	db DBTX
}

func newOrganizationStore(db DBTX) OrganizationStore {
	return &organizationStore{db: db}
}

const organizationColumns = `id, name, slack_team_id, slack_bot_token, linear_token, created_at, updated_at`

func (s *organizationStore) GetByID(ctx context.Context, id int64) (*model.Organization, error) {
	row := s.db.QueryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
	org, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return org, nil
}

func (s *organizationStore) ListAll(ctx context.Context) ([]model.Organization, error) {
	rows, err := s.db.Query(ctx, `SELECT `+organizationColumns+` FROM organizations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []model.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

func scanOrganization(row pgx.Row) (*model.Organization, error) {
	var org model.Organization
	if err := row.Scan(
		&org.ID,
		&org.Name,
		&org.SlackTeamID,
		&org.SlackBotToken,
		&org.LinearToken,
		&org.CreatedAt,
		&org.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &org, nil
}
