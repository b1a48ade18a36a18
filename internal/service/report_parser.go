package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"driftapp.dev/drift/common/llm"
	"driftapp.dev/drift/internal/model"
)

// ReportParser turns raw LLM output into schema-valid ReportContent.
// Invalid output gets exactly one LLM repair round-trip; a second failure
// is terminal.
type ReportParser interface {
	Parse(ctx context.Context, raw string) (*model.ReportContent, error)
}

type reportParser struct {
	llm    llm.Client
	logger *slog.Logger
}

func NewReportParser(llmClient llm.Client, logger *slog.Logger) ReportParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &reportParser{llm: llmClient, logger: logger}
}

const repairSystemPrompt = `You are a JSON repair assistant. The user sends you text that was supposed to be a single valid JSON object but is malformed or incomplete. Respond with the corrected JSON object only. No markdown, no code fences, no explanation. Preserve all salvageable field values; fill fields you cannot recover with sensible empty values of the right type.`

func (p *reportParser) Parse(ctx context.Context, raw string) (*model.ReportContent, error) {
	content, err := parseReportContent(raw)
	if err == nil {
		return content, nil
	}

	p.logger.WarnContext(ctx, "report output invalid, requesting repair", "error", err)

	repaired, repairErr := p.llm.Generate(ctx, repairSystemPrompt, raw)
	if repairErr != nil {
		return nil, fmt.Errorf("repair call failed after invalid output (%v): %w", err, repairErr)
	}

	content, err = parseReportContent(repaired.Content)
	if err != nil {
		return nil, fmt.Errorf("report output still invalid after repair: %w", err)
	}
	return content, nil
}

// parseReportContent strips code fences, parses JSON and checks the
// required top-level fields. It never calls the LLM.
func parseReportContent(raw string) (*model.ReportContent, error) {
	text := stripCodeFences(raw)

	// Pointer fields distinguish "absent" from the zero value; RawMessage
	// fields let us check JSON types before committing to the full schema.
	var probe struct {
		Health    *string         `json:"health"`
		Progress  *float64        `json:"progress"`
		Narrative *string         `json:"narrative"`
		Drift     json.RawMessage `json:"drift"`
		Delivery  json.RawMessage `json:"delivery"`
		Decisions json.RawMessage `json:"decisions"`
		Blockers  json.RawMessage `json:"blockers"`
	}
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, fmt.Errorf("parsing report JSON: %w", err)
	}

	switch {
	case probe.Health == nil || *probe.Health == "":
		return nil, fmt.Errorf("missing required field: health")
	case probe.Progress == nil:
		return nil, fmt.Errorf("missing required numeric field: progress")
	case probe.Narrative == nil || *probe.Narrative == "":
		return nil, fmt.Errorf("missing required field: narrative")
	case !isJSONObject(probe.Drift):
		return nil, fmt.Errorf("missing required object field: drift")
	case !isJSONObject(probe.Delivery):
		return nil, fmt.Errorf("missing required object field: delivery")
	case !isJSONArray(probe.Decisions):
		return nil, fmt.Errorf("field decisions must be an array")
	case !isJSONArray(probe.Blockers):
		return nil, fmt.Errorf("field blockers must be an array")
	}

	var content model.ReportContent
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		return nil, fmt.Errorf("decoding report content: %w", err)
	}
	return &content, nil
}

// stripCodeFences removes a surrounding markdown code fence, with or
// without a language tag, which models emit despite instructions.
func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}
