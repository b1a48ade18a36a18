package model

import "time"

type Organization struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	SlackTeamID   *string   `json:"slack_team_id,omitempty"`
	SlackBotToken string    `json:"-"`
	LinearToken   *string   `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

type Member struct {
	ID             int64      `json:"id"`
	OrganizationID int64      `json:"organization_id"`
	SlackUserID    string     `json:"slack_user_id"`
	Name           string     `json:"name"`
	Role           MemberRole `json:"role"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (m Member) IsAdmin() bool {
	return m.Role == MemberRoleAdmin
}
