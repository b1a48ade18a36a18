package model

import "time"

// TicketSnapshot is an append-only, point-in-time copy of a Linear issue.
// Snapshots are never mutated or deleted; the current state of an issue
// within a week is the snapshot with the latest SnapshotDate.
type TicketSnapshot struct {
	ID                int64     `json:"id"`
	OrganizationID    int64     `json:"organization_id"`
	ProjectID         int64     `json:"project_id"`
	LinearIssueID     string    `json:"linear_issue_id"`
	Identifier        string    `json:"identifier"`
	Title             string    `json:"title"`
	Description       *string   `json:"description,omitempty"`
	StateName         string    `json:"state_name"`
	StateType         string    `json:"state_type"`
	Priority          int       `json:"priority"`
	AssigneeName      *string   `json:"assignee_name,omitempty"`
	LabelNames        []string  `json:"label_names"`
	CommentCount      int       `json:"comment_count"`
	SnapshotDate      time.Time `json:"snapshot_date"`
	SnapshotWeekStart time.Time `json:"snapshot_week_start"`
}
