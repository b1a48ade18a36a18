package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"driftapp.dev/drift/common/id"
	"driftapp.dev/drift/common/logger"
	"driftapp.dev/drift/internal/gateway"
	"driftapp.dev/drift/internal/model"
	"driftapp.dev/drift/internal/store"
)

// IngestResult is the per-run outcome, summed across a project's channels.
type IngestResult struct {
	Ingested int
	Filtered int
}

// ChannelIngestService pulls new messages from a project's channels:
// incremental fetch from a per-channel cursor, thread expansion,
// author resolution, filtering, and dedup against the store.
type ChannelIngestService interface {
	IngestProject(ctx context.Context, org *model.Organization, project *model.Project) (IngestResult, error)
}

type channelIngestService struct {
	messages store.MessageStore
	txRunner TxRunner
	slackFor SlackGatewayFactory
	filter   FilterPolicy
	now      func() time.Time
	logger   *slog.Logger
}

func NewChannelIngestService(messages store.MessageStore, txRunner TxRunner, slackFor SlackGatewayFactory, filter FilterPolicy, logger *slog.Logger) ChannelIngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &channelIngestService{
		messages: messages,
		txRunner: txRunner,
		slackFor: slackFor,
		filter:   filter,
		now:      time.Now,
		logger:   logger,
	}
}

const cursorLookback = 7 * 24 * time.Hour

// IngestProject runs every channel independently: a failing channel is
// logged and skipped, never aborts its siblings.
func (s *channelIngestService) IngestProject(ctx context.Context, org *model.Organization, project *model.Project) (IngestResult, error) {
	if org.SlackBotToken == "" {
		s.logger.WarnContext(ctx, "organization has no slack token, skipping ingestion",
			"organization_id", org.ID)
		return IngestResult{}, nil
	}

	sg := s.slackFor(org.SlackBotToken)
	var total IngestResult
	for _, channelID := range project.SlackChannelIDs {
		ctx := logger.WithLogFields(ctx, logger.LogFields{ChannelID: &channelID})
		result, err := s.ingestChannel(ctx, sg, org, project, channelID)
		if err != nil {
			s.logger.ErrorContext(ctx, "channel ingestion failed",
				"channel_id", channelID, "error", err)
			continue
		}
		total.Ingested += result.Ingested
		total.Filtered += result.Filtered
	}
	return total, nil
}

// candidate carries a fetched message together with the reply count of its
// thread root, which is what the filter policy evaluates.
type candidate struct {
	msg              gateway.ChannelMessage
	threadReplyCount int
}

func (s *channelIngestService) ingestChannel(ctx context.Context, sg gateway.SlackGateway, org *model.Organization, project *model.Project, channelID string) (IngestResult, error) {
	cursor, err := s.resolveCursor(ctx, channelID)
	if err != nil {
		return IngestResult{}, err
	}

	history, err := sg.ChannelHistory(ctx, channelID, cursor)
	if err != nil {
		return IngestResult{}, fmt.Errorf("fetching history: %w", err)
	}

	seen := make(map[string]struct{}, len(history))
	var candidates []candidate
	for _, msg := range history {
		if _, ok := seen[msg.Ts]; ok {
			continue
		}
		seen[msg.Ts] = struct{}{}
		candidates = append(candidates, candidate{msg: msg, threadReplyCount: msg.ReplyCount})

		if msg.ReplyCount == 0 {
			continue
		}
		replies, err := sg.ThreadReplies(ctx, channelID, msg.Ts)
		if err != nil {
			s.logger.WarnContext(ctx, "thread expansion failed, keeping root only",
				"thread_ts", msg.Ts, "error", err)
			continue
		}
		for _, reply := range replies {
			if _, ok := seen[reply.Ts]; ok {
				continue
			}
			seen[reply.Ts] = struct{}{}
			candidates = append(candidates, candidate{msg: reply, threadReplyCount: msg.ReplyCount})
		}
	}

	names := make(map[string]string)
	batch := make([]model.SlackMessage, 0, len(candidates))
	var result IngestResult
	for _, c := range candidates {
		_, err := s.messages.GetByChannelAndTs(ctx, channelID, c.msg.Ts)
		if err == nil {
			continue // already stored
		}
		if !errors.Is(err, store.ErrNotFound) {
			return IngestResult{}, fmt.Errorf("dedup lookup: %w", err)
		}

		row := s.toMessage(ctx, sg, org, project, channelID, c, names)
		if row.IsFiltered {
			result.Filtered++
		}
		result.Ingested++
		batch = append(batch, row)
	}

	if len(batch) > 0 {
		err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
			return sp.Messages().CreateBatch(ctx, batch)
		})
		if err != nil {
			return IngestResult{}, fmt.Errorf("storing messages: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "channel ingested",
		"channel_id", channelID,
		"fetched", len(candidates),
		"ingested", result.Ingested,
		"filtered", result.Filtered)
	return result, nil
}

// resolveCursor returns the ts of the most recently stored message for the
// channel, or a 7-day lookback when the channel has never been ingested.
func (s *channelIngestService) resolveCursor(ctx context.Context, channelID string) (string, error) {
	latest, err := s.messages.GetLatestByChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return strconv.FormatInt(s.now().Add(-cursorLookback).Unix(), 10), nil
		}
		return "", fmt.Errorf("resolving cursor: %w", err)
	}
	return latest.MessageTs, nil
}

func (s *channelIngestService) toMessage(ctx context.Context, sg gateway.SlackGateway, org *model.Organization, project *model.Project, channelID string, c candidate, names map[string]string) model.SlackMessage {
	msg := c.msg

	// Bot authors never trigger a lookup; thread replies from bots must not
	// be blocked on identity resolution.
	userName := ""
	if !msg.IsBot() && msg.UserID != "" {
		userName = s.resolveName(ctx, sg, msg.UserID, names)
	}

	var threadTs *string
	if msg.ThreadTs != "" {
		ts := msg.ThreadTs
		threadTs = &ts
	}
	projectID := project.ID

	return model.SlackMessage{
		ID:             id.New(),
		OrganizationID: org.ID,
		ProjectID:      &projectID,
		ChannelID:      channelID,
		MessageTs:      msg.Ts,
		ThreadTs:       threadTs,
		UserID:         msg.UserID,
		UserName:       userName,
		Text:           msg.Text,
		IsBot:          msg.IsBot(),
		HasFiles:       msg.HasFiles,
		ReactionCount:  msg.ReactionCount,
		ReplyCount:     msg.ReplyCount,
		IsFiltered:     s.filter.ShouldFilter(msg, c.threadReplyCount),
		IngestedAt:     s.now().UTC(),
	}
}

// resolveName memoizes one lookup per distinct author per run. Lookup
// failure falls back to the raw user ID.
func (s *channelIngestService) resolveName(ctx context.Context, sg gateway.SlackGateway, userID string, names map[string]string) string {
	if name, ok := names[userID]; ok {
		return name
	}
	name, err := sg.UserName(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "user lookup failed, using id",
			"user_id", userID, "error", err)
		name = userID
	}
	names[userID] = name
	return name
}
