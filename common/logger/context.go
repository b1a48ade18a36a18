package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so pipeline code never has to repeat
// org/project identifiers on every log statement.
type LogFields struct {
	OrganizationID *int64  // Owning organization
	ProjectID      *int64  // Project being ingested or reported on
	ChannelID      *string // Slack channel during ingestion
	ReportID       *int64  // Generated report ID
	JobType        *string // Queue job type (e.g., "ingest_org", "report_org")
	MessageID      *string // Redis stream message ID
	Component      string  // Component name (e.g., "drift.service.generator")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, incoming LogFields) LogFields {
	result := existing

	if incoming.OrganizationID != nil {
		result.OrganizationID = incoming.OrganizationID
	}
	if incoming.ProjectID != nil {
		result.ProjectID = incoming.ProjectID
	}
	if incoming.ChannelID != nil {
		result.ChannelID = incoming.ChannelID
	}
	if incoming.ReportID != nil {
		result.ReportID = incoming.ReportID
	}
	if incoming.JobType != nil {
		result.JobType = incoming.JobType
	}
	if incoming.MessageID != nil {
		result.MessageID = incoming.MessageID
	}
	if incoming.Component != "" {
		result.Component = incoming.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{ProjectID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like prompts or error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
