package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	linearEndpoint = "https://api.linear.app/graphql"

	// Descriptions feed an LLM prompt; anything past this adds tokens
	// without adding signal.
	maxDescriptionLen = 200
)

type linearGateway struct {
	httpClient *http.Client
	token      string
}

// NewLinearGateway builds a LinearGateway over a workspace API token.
func NewLinearGateway(token string) LinearGateway {
	return &linearGateway{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
	}
}

const issueFields = `
	id
	identifier
	title
	description
	priority
	updatedAt
	state { name type }
	assignee { name }
	labels { nodes { name } }
	comments(first: 50) { nodes { id } }`

const projectIssuesQuery = `query ProjectIssues($projectId: String!, $since: DateTimeOrDuration!, $after: String) {
	project(id: $projectId) {
		issues(first: 100, after: $after, filter: { updatedAt: { gte: $since } }) {
			pageInfo { hasNextPage endCursor }
			nodes {` + issueFields + `}
		}
	}
}`

const teamIssuesQuery = `query TeamIssues($teamId: String!, $since: DateTimeOrDuration!, $after: String) {
	team(id: $teamId) {
		issues(first: 100, after: $after, filter: { updatedAt: { gte: $since } }) {
			pageInfo { hasNextPage endCursor }
			nodes {` + issueFields + `}
		}
	}
}`

type linearIssueNode struct {
	ID          string    `json:"id"`
	Identifier  string    `json:"identifier"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Priority    float64   `json:"priority"`
	UpdatedAt   time.Time `json:"updatedAt"`
	State       struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"state"`
	Assignee *struct {
		Name string `json:"name"`
	} `json:"assignee"`
	Labels struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
	Comments struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	} `json:"comments"`
}

type linearIssueConnection struct {
	PageInfo struct {
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
	} `json:"pageInfo"`
	Nodes []linearIssueNode `json:"nodes"`
}

func (g *linearGateway) ProjectIssues(ctx context.Context, projectID string, since time.Time) ([]Issue, error) {
	return g.paginateIssues(ctx, projectIssuesQuery, "projectId", projectID, since, func(data json.RawMessage) (*linearIssueConnection, error) {
		var payload struct {
			Project *struct {
				Issues linearIssueConnection `json:"issues"`
			} `json:"project"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.Project == nil {
			return nil, fmt.Errorf("linear project %s not found", projectID)
		}
		return &payload.Project.Issues, nil
	})
}

func (g *linearGateway) TeamIssues(ctx context.Context, teamID string, since time.Time) ([]Issue, error) {
	return g.paginateIssues(ctx, teamIssuesQuery, "teamId", teamID, since, func(data json.RawMessage) (*linearIssueConnection, error) {
		var payload struct {
			Team *struct {
				Issues linearIssueConnection `json:"issues"`
			} `json:"team"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.Team == nil {
			return nil, fmt.Errorf("linear team %s not found", teamID)
		}
		return &payload.Team.Issues, nil
	})
}

func (g *linearGateway) paginateIssues(
	ctx context.Context,
	query, idKey, idValue string,
	since time.Time,
	extract func(json.RawMessage) (*linearIssueConnection, error),
) ([]Issue, error) {
	var out []Issue
	var after *string
	for {
		vars := map[string]any{
			idKey:   idValue,
			"since": since.UTC().Format(time.RFC3339),
			"after": after,
		}
		data, err := g.execute(ctx, query, vars)
		if err != nil {
			return nil, err
		}
		conn, err := extract(data)
		if err != nil {
			return nil, err
		}
		for _, node := range conn.Nodes {
			out = append(out, fromLinearNode(node))
		}
		if !conn.PageInfo.HasNextPage {
			break
		}
		cursor := conn.PageInfo.EndCursor
		after = &cursor
	}
	return out, nil
}

func (g *linearGateway) execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, linearEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", g.token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("linear request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("linear request: status %d: %s", resp.StatusCode, truncateBody(raw))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("linear response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("linear query: %s", envelope.Errors[0].Message)
	}
	return envelope.Data, nil
}

func fromLinearNode(node linearIssueNode) Issue {
	issue := Issue{
		ID:           node.ID,
		Identifier:   node.Identifier,
		Title:        node.Title,
		StateName:    node.State.Name,
		StateType:    node.State.Type,
		Priority:     int(node.Priority),
		CommentCount: len(node.Comments.Nodes),
		UpdatedAt:    node.UpdatedAt,
	}
	if node.Description != nil {
		desc := *node.Description
		if len(desc) > maxDescriptionLen {
			desc = desc[:maxDescriptionLen] + "..."
		}
		issue.Description = desc
	}
	if node.Assignee != nil {
		issue.AssigneeName = node.Assignee.Name
	}
	for _, l := range node.Labels.Nodes {
		issue.Labels = append(issue.Labels, l.Name)
	}
	return issue
}

func truncateBody(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
