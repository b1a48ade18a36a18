package service

import "driftapp.dev/drift/internal/gateway"

// FilterPolicy decides whether a message should be excluded from prompt
// assembly. Filtered messages are still stored, just marked.
//
// threadReplyCount is the reply count of the message's thread root, not the
// message's own: relevance is a property of the conversation.
type FilterPolicy interface {
	ShouldFilter(msg gateway.ChannelMessage, threadReplyCount int) bool
}

type passthroughFilter struct{}

// NewPassthroughFilter keeps every message. The policy seam exists so
// noise filtering can be added without touching the ingestion engine.
func NewPassthroughFilter() FilterPolicy {
	return passthroughFilter{}
}

func (passthroughFilter) ShouldFilter(gateway.ChannelMessage, int) bool {
	return false
}
