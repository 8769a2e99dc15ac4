// internal/oracle/adapter.go
package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/gridpilot-cli/api/schemas"
)

// Models drift on the reply envelope even when constrained to JSON: the
// action list shows up as "requestedActions" or "actions", sometimes wrapped
// in a markdown fence or conversational text. This adapter normalizes all of
// it into a TurnReply so the rest of the system sees exactly one shape.

var (
	// Regex definitions use \x60 (hex representation) for backticks because Go raw strings cannot contain backticks.
	jsonObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")
)

// replyEnvelope accepts every observed spelling of the action list, including
// one level of nesting under a "response" key.
type replyEnvelope struct {
	RequestedActions []schemas.ActionRequest `json:"requestedActions"`
	Actions          []schemas.ActionRequest `json:"actions"`
	Text             string                  `json:"text"`
	Response         *replyEnvelope          `json:"response,omitempty"`
}

// actionList resolves the action spellings, descending into a nested
// envelope when the top level carries none.
func (e *replyEnvelope) actionList() []schemas.ActionRequest {
	if e.RequestedActions != nil {
		return e.RequestedActions
	}
	if e.Actions != nil {
		return e.Actions
	}
	if e.Response != nil {
		return e.Response.actionList()
	}
	return nil
}

// text prefers the outer text, falling back to the nested envelope's.
func (e *replyEnvelope) text() string {
	if e.Text != "" {
		return e.Text
	}
	if e.Response != nil {
		return e.Response.text()
	}
	return ""
}

// ParseTurnReply parses a raw model response into a normalized TurnReply.
func ParseTurnReply(raw string) (*schemas.TurnReply, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return nil, fmt.Errorf("oracle reply contains no JSON object: %s", truncate(raw, 200))
	}

	var env replyEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal oracle reply: %w. Extracted JSON (truncated): %s", err, truncate(payload, 500))
	}

	actions := env.actionList()
	if actions == nil {
		actions = []schemas.ActionRequest{}
	}

	for i, a := range actions {
		if a.Name == "" {
			return nil, fmt.Errorf("oracle reply action %d has no name", i)
		}
	}

	return &schemas.TurnReply{Actions: actions, Text: env.text()}, nil
}

// extractJSONObject pulls the outermost JSON object out of a possibly
// fenced or conversational response.
func extractJSONObject(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") {
		return raw
	}

	if strings.HasPrefix(raw, "```") {
		if matches := jsonObjectRegex.FindStringSubmatch(raw); len(matches) > 1 {
			return matches[1]
		}
	}

	// Last resort: outermost brace boundaries within conversational text.
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first != -1 && last > first {
		return raw[first : last+1]
	}
	return ""
}

// truncate shortens a string for error messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
