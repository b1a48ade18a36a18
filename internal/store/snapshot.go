package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"driftapp.dev/drift/internal/model"
)

type snapshotStore struct {
	db DBTX
}

func newSnapshotStore(db DBTX) SnapshotStore {
	return &snapshotStore{db: db}
}

const snapshotColumns = `id, organization_id, project_id, linear_issue_id, identifier, title,
	description, state_name, state_type, priority, assignee_name, label_names,
	comment_count, snapshot_date, snapshot_week_start`

func (s *snapshotStore) GetLatestByProject(ctx context.Context, projectID int64) (*model.TicketSnapshot, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM ticket_snapshots WHERE project_id = $1
		 ORDER BY snapshot_date DESC LIMIT 1`, projectID)
	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return snap, nil
}

func (s *snapshotStore) CreateBatch(ctx context.Context, snapshots []model.TicketSnapshot) error {
	for _, snap := range snapshots {
		_, err := s.db.Exec(ctx,
			`INSERT INTO ticket_snapshots (id, organization_id, project_id, linear_issue_id,
				identifier, title, description, state_name, state_type, priority,
				assignee_name, label_names, comment_count, snapshot_date, snapshot_week_start)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			snap.ID, snap.OrganizationID, snap.ProjectID, snap.LinearIssueID,
			snap.Identifier, snap.Title, snap.Description, snap.StateName, snap.StateType,
			snap.Priority, snap.AssigneeName, snap.LabelNames, snap.CommentCount,
			snap.SnapshotDate, snap.SnapshotWeekStart)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *snapshotStore) ListByProjectAndWeek(ctx context.Context, projectID int64, weekStart time.Time) ([]model.TicketSnapshot, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+snapshotColumns+` FROM ticket_snapshots
		 WHERE project_id = $1 AND snapshot_week_start = $2
		 ORDER BY snapshot_date`, projectID, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []model.TicketSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots, rows.Err()
}

func scanSnapshot(row pgx.Row) (*model.TicketSnapshot, error) {
	var snap model.TicketSnapshot
	if err := row.Scan(
		&snap.ID,
		&snap.OrganizationID,
		&snap.ProjectID,
		&snap.LinearIssueID,
		&snap.Identifier,
		&snap.Title,
		&snap.Description,
		&snap.StateName,
		&snap.StateType,
		&snap.Priority,
		&snap.AssigneeName,
		&snap.LabelNames,
		&snap.CommentCount,
		&snap.SnapshotDate,
		&snap.SnapshotWeekStart,
	); err != nil {
		return nil, err
	}
	return &snap, nil
}
