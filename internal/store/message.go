package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"driftapp.dev/drift/internal/model"
)

type messageStore struct {
	db DBTX
}

func newMessageStore(db DBTX) MessageStore {
	return &messageStore{db: db}
}

const messageColumns = `id, organization_id, project_id, channel_id, message_ts, thread_ts,
	user_id, user_name, text, is_bot, has_files, reaction_count, reply_count, is_filtered, ingested_at`

func (s *messageStore) GetByChannelAndTs(ctx context.Context, channelID, messageTs string) (*model.SlackMessage, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM slack_messages WHERE channel_id = $1 AND message_ts = $2`,
		channelID, messageTs)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return msg, nil
}

func (s *messageStore) GetLatestByChannel(ctx context.Context, channelID string) (*model.SlackMessage, error) {
	// message_ts is a decimal seconds string; for messages from the same
	// channel a lexicographic DESC sort would misorder across second-count
	// digit boundaries, so order by the numeric value.
	row := s.db.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM slack_messages WHERE channel_id = $1
		 ORDER BY message_ts::NUMERIC DESC LIMIT 1`, channelID)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return msg, nil
}

func (s *messageStore) CreateBatch(ctx context.Context, messages []model.SlackMessage) error {
	for _, m := range messages {
		_, err := s.db.Exec(ctx,
			`INSERT INTO slack_messages (id, organization_id, project_id, channel_id, message_ts,
				thread_ts, user_id, user_name, text, is_bot, has_files, reaction_count,
				reply_count, is_filtered, ingested_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			 ON CONFLICT (channel_id, message_ts) DO NOTHING`,
			m.ID, m.OrganizationID, m.ProjectID, m.ChannelID, m.MessageTs,
			m.ThreadTs, m.UserID, m.UserName, m.Text, m.IsBot, m.HasFiles,
			m.ReactionCount, m.ReplyCount, m.IsFiltered, m.IngestedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *messageStore) ListUnfilteredByProjectSince(ctx context.Context, projectID int64, since time.Time) ([]model.SlackMessage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+messageColumns+` FROM slack_messages
		 WHERE project_id = $1 AND NOT is_filtered AND message_ts::NUMERIC >= $2
		 ORDER BY message_ts::NUMERIC`,
		projectID, float64(since.UnixMilli())/1000.0)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.SlackMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

func scanMessage(row pgx.Row) (*model.SlackMessage, error) {
	var m model.SlackMessage
	if err := row.Scan(
		&m.ID,
		&m.OrganizationID,
		&m.ProjectID,
		&m.ChannelID,
		&m.MessageTs,
		&m.ThreadTs,
		&m.UserID,
		&m.UserName,
		&m.Text,
		&m.IsBot,
		&m.HasFiles,
		&m.ReactionCount,
		&m.ReplyCount,
		&m.IsFiltered,
		&m.IngestedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
