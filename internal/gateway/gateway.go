// Package gateway wraps the external data sources the pipeline reads from
// and delivers to. Each gateway is a thin, typed client; retries and
// business rules live in the services.
package gateway

import (
	"context"
	"time"

	"github.com/slack-go/slack"
)

// ChannelMessage is one raw Slack message as returned by the history or
// replies API, before any persistence decisions are made.
type ChannelMessage struct {
	Ts            string
	ThreadTs      string
	UserID        string
	BotID         string
	Text          string
	SubType       string
	ReplyCount    int
	ReactionCount int
	HasFiles      bool
}

// IsBot reports whether the message was authored by a bot integration.
func (m ChannelMessage) IsBot() bool {
	return m.BotID != "" || m.SubType == "bot_message"
}

// SlackGateway reads conversation history and delivers direct messages.
type SlackGateway interface {
	// ChannelHistory returns messages in a channel strictly newer than
	// oldest (a Slack ts string), oldest first, following pagination.
	ChannelHistory(ctx context.Context, channelID, oldest string) ([]ChannelMessage, error)
	// ThreadReplies returns the replies under a thread root, excluding the
	// root itself.
	ThreadReplies(ctx context.Context, channelID, threadTs string) ([]ChannelMessage, error)
	// UserName resolves a user ID to a display name.
	UserName(ctx context.Context, userID string) (string, error)
	// PostDirectMessage opens a DM with the user and posts the given blocks,
	// returning the ts of the posted message. text is the notification
	// fallback shown where blocks cannot render.
	PostDirectMessage(ctx context.Context, userID string, text string, blocks []slack.Block) (string, error)
}

// Issue is one Linear issue in its current state.
type Issue struct {
	ID           string
	Identifier   string
	Title        string
	Description  string
	StateName    string
	StateType    string
	Priority     int
	AssigneeName string
	Labels       []string
	CommentCount int
	UpdatedAt    time.Time
}

// LinearGateway reads issues from Linear.
type LinearGateway interface {
	// ProjectIssues returns issues in a Linear project updated at or after
	// since.
	ProjectIssues(ctx context.Context, projectID string, since time.Time) ([]Issue, error)
	// TeamIssues returns issues in a Linear team updated at or after since.
	TeamIssues(ctx context.Context, teamID string, since time.Time) ([]Issue, error)
}

// Page is a Notion page with its content flattened to plain text.
type Page struct {
	ID             string
	Title          string
	LastEditedTime time.Time
	Content        string
}

// NotionGateway reads pages from Notion.
type NotionGateway interface {
	// GetPage returns page metadata without content.
	GetPage(ctx context.Context, pageID string) (*Page, error)
	// GetPageContent returns the page with its block content rendered to
	// plain text.
	GetPageContent(ctx context.Context, pageID string) (*Page, error)
}
