package model

import "time"

type Health string

const (
	HealthOnTrack  Health = "on-track"
	HealthAtRisk   Health = "at-risk"
	HealthOffTrack Health = "off-track"
)

type DriftLevel string

const (
	DriftLevelNone DriftLevel = "none"
	DriftLevelLow  DriftLevel = "low"
	DriftLevelHigh DriftLevel = "high"
)

// ReportContent is the validated LLM output. The schema is closed: a report
// is only created when every required top-level field is present.
type ReportContent struct {
	Health       Health          `json:"health"`
	HealthLabel  string          `json:"healthLabel"`
	Progress     float64         `json:"progress"` // 0-100
	Narrative    string          `json:"narrative"`
	Decisions    []Decision      `json:"decisions"`
	Drift        DriftAssessment `json:"drift"`
	Blockers     []Blocker       `json:"blockers"`
	KeyResults   []KeyResult     `json:"keyResults"`
	Threads      []ThreadSummary `json:"threads"`
	Delivery     DeliveryStats   `json:"delivery"`
	SourceCounts SourceCounts    `json:"sourceCounts"`
}

type Decision struct {
	Text     string `json:"text"`
	Tradeoff string `json:"tradeoff"`
	Who      string `json:"who"`
	Where    string `json:"where"`
	When     string `json:"when"`

	// true, false, or the string "partial" — kept loose to match LLM output.
	AlignedWithIntent any `json:"alignedWithIntent"`
}

type DriftAssessment struct {
	Level   DriftLevel `json:"level"`
	Label   string     `json:"label"`
	Details string     `json:"details"`
}

type Blocker struct {
	Text     string `json:"text"`
	Owner    string `json:"owner"`
	Severity string `json:"severity"` // high, medium, low
	Since    string `json:"since"`
	Impact   string `json:"impact"`
}

type KeyResult struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type ThreadSummary struct {
	Title        string   `json:"title"`
	Participants []string `json:"participants"`
	Messages     int      `json:"messages"`
	Outcome      string   `json:"outcome"`
	Channel      string   `json:"channel"`
}

// DeliveryStats is a derived weekly aggregate over deduplicated ticket
// snapshots. It is computed on demand and only persisted as part of a
// report's content.
type DeliveryStats struct {
	Merged        int    `json:"merged"`
	InReview      int    `json:"inReview"`
	Blocked       int    `json:"blocked"`
	Created       int    `json:"created"`
	Velocity      string `json:"velocity"` // sign-prefixed, e.g. "+25%"
	VelocityLabel string `json:"velocityLabel"`
}

type SourceCounts struct {
	Slack  int `json:"slack"`
	Linear int `json:"linear"`
	Notion int `json:"notion"`
}

// Report ties a week's ReportContent to its generation metadata.
type Report struct {
	ID                int64         `json:"id"`
	ProjectID         int64         `json:"project_id"`
	WeekStart         time.Time     `json:"week_start"`
	WeekEnd           time.Time     `json:"week_end"`
	WeekNumber        int           `json:"week_number"`
	PeriodLabel       string        `json:"period_label"`
	Content           ReportContent `json:"content"`
	Health            Health        `json:"health"`
	DriftLevel        DriftLevel    `json:"drift_level"`
	Progress          int           `json:"progress"`
	PrevProgress      int           `json:"prev_progress"`
	SlackMessageCount int           `json:"slack_message_count"`
	LinearTicketCount int           `json:"linear_ticket_count"`
	NotionPagesRead   int           `json:"notion_pages_read"`
	ModelUsed         string        `json:"model_used"`
	PromptTokens      int           `json:"prompt_tokens"`
	CompletionTokens  int           `json:"completion_tokens"`
	GenerationTimeMs  int64         `json:"generation_time_ms"`
	DeliveredAt       *time.Time    `json:"delivered_at,omitempty"`
	DeliveryTs        *string       `json:"delivery_ts,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}
