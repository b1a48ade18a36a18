package model

import "time"

// SlackMessage is one ingested channel message or thread reply.
// Identity is (ChannelID, MessageTs); rows are immutable once stored except
// for IsFiltered, which is decided at ingestion time.
type SlackMessage struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	ProjectID      *int64    `json:"project_id,omitempty"`
	ChannelID      string    `json:"channel_id"`
	MessageTs      string    `json:"message_ts"`
	ThreadTs       *string   `json:"thread_ts,omitempty"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	Text           string    `json:"text"`
	IsBot          bool      `json:"is_bot"`
	HasFiles       bool      `json:"has_files"`
	ReactionCount  int       `json:"reaction_count"`
	ReplyCount     int       `json:"reply_count"`
	IsFiltered     bool      `json:"is_filtered"`
	IngestedAt     time.Time `json:"ingested_at"`
}

// IsThreadRoot reports whether the message starts a conversation:
// either it has no thread, or the thread points at itself.
func (m SlackMessage) IsThreadRoot() bool {
	return m.ThreadTs == nil || *m.ThreadTs == m.MessageTs
}
