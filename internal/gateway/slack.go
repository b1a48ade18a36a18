package gateway

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

type slackGateway struct {
	client *slack.Client
}

// NewSlackGateway builds a SlackGateway over a workspace bot token.
func NewSlackGateway(botToken string) SlackGateway {
	return &slackGateway{client: slack.New(botToken)}
}

const slackPageSize = 200

func (g *slackGateway) ChannelHistory(ctx context.Context, channelID, oldest string) ([]ChannelMessage, error) {
	var out []ChannelMessage
	cursor := ""
	for {
		resp, err := g.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Oldest:    oldest,
			Limit:     slackPageSize,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch history for channel %s: %w", channelID, err)
		}
		for _, m := range resp.Messages {
			out = append(out, fromSlackMessage(m))
		}
		if !resp.HasMore || resp.ResponseMetaData.NextCursor == "" {
			break
		}
		cursor = resp.ResponseMetaData.NextCursor
	}
	// Slack returns history newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (g *slackGateway) ThreadReplies(ctx context.Context, channelID, threadTs string) ([]ChannelMessage, error) {
	var out []ChannelMessage
	cursor := ""
	for {
		msgs, hasMore, nextCursor, err := g.client.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channelID,
			Timestamp: threadTs,
			Limit:     slackPageSize,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch replies for thread %s: %w", threadTs, err)
		}
		for _, m := range msgs {
			if m.Timestamp == threadTs {
				continue
			}
			out = append(out, fromSlackMessage(m))
		}
		if !hasMore || nextCursor == "" {
			break
		}
		cursor = nextCursor
	}
	return out, nil
}

func (g *slackGateway) UserName(ctx context.Context, userID string) (string, error) {
	user, err := g.client.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("fetch user %s: %w", userID, err)
	}
	if user.Profile.DisplayName != "" {
		return user.Profile.DisplayName, nil
	}
	if user.RealName != "" {
		return user.RealName, nil
	}
	return user.Name, nil
}

func (g *slackGateway) PostDirectMessage(ctx context.Context, userID string, text string, blocks []slack.Block) (string, error) {
	channel, _, _, err := g.client.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil {
		return "", fmt.Errorf("open dm with %s: %w", userID, err)
	}
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if len(blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(blocks...))
	}
	_, ts, err := g.client.PostMessageContext(ctx, channel.ID, opts...)
	if err != nil {
		return "", fmt.Errorf("post dm to %s: %w", userID, err)
	}
	return ts, nil
}

func fromSlackMessage(m slack.Message) ChannelMessage {
	reactions := 0
	for _, r := range m.Reactions {
		reactions += r.Count
	}
	return ChannelMessage{
		Ts:            m.Timestamp,
		ThreadTs:      m.ThreadTimestamp,
		UserID:        m.User,
		BotID:         m.BotID,
		Text:          m.Text,
		SubType:       m.SubType,
		ReplyCount:    m.ReplyCount,
		ReactionCount: reactions,
		HasFiles:      len(m.Files) > 0,
	}
}
