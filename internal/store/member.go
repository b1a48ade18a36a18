package store

import (
	"context"

	"driftapp.dev/drift/internal/model"
)

type memberStore struct {
	db DBTX
}

func newMemberStore(db DBTX) MemberStore {
	return &memberStore{db: db}
}

func (s *memberStore) ListByOrganization(ctx context.Context, orgID int64) ([]model.Member, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, organization_id, slack_user_id, name, role, created_at
		 FROM members WHERE organization_id = $1 ORDER BY id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.SlackUserID, &m.Name, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
