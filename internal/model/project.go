package model

import "time"

type Project struct {
	ID               int64       `json:"id"`
	OrganizationID   int64       `json:"organization_id"`
	Name             string      `json:"name"`
	Emoji            string      `json:"emoji"`
	IsActive         bool        `json:"is_active"`
	SlackChannelIDs  []string    `json:"slack_channel_ids"`
	LinearProjectID  *string     `json:"linear_project_id,omitempty"`
	LinearTeamID     *string     `json:"linear_team_id,omitempty"`
	NotionPageID     *string     `json:"notion_page_id,omitempty"`
	ProductObjective *string     `json:"product_objective,omitempty"`
	ObjectiveOrigin  *string     `json:"objective_origin,omitempty"`
	KeyResults       []KeyResult `json:"key_results"`
	TeamName         *string     `json:"team_name,omitempty"`
	PMLeadName       *string     `json:"pm_lead_name,omitempty"`
	TechLeadName     *string     `json:"tech_lead_name,omitempty"`
	TargetDate       *time.Time  `json:"target_date,omitempty"`
	StartedAt        time.Time   `json:"started_at"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// WeekNumber is the 1-based number of weeks since the project started,
// relative to the given instant.
func (p Project) WeekNumber(now time.Time) int {
	weeks := int(now.Sub(p.StartedAt).Hours()/(24*7)) + 1
	if weeks < 1 {
		return 1
	}
	return weeks
}
