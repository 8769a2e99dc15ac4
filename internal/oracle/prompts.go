// internal/oracle/prompts.go
package oracle

import (
	"strings"

	"github.com/xkilldash9x/gridpilot-cli/api/schemas"
)

// turnSystemPrompt constrains the model to the command surface and the reply
// envelope. Coordinates are always on the abstract 0-999 grid, never pixels.
const turnSystemPrompt = `You are a browser automation operator. You observe a web page through
screenshots and drive it by requesting actions, one batch per turn.

All coordinates are integers on a 1000x1000 grid: x and y each range from 0
to 999 inclusive, where (0, 0) is the top-left corner of the viewport and
(999, 999) is the bottom-right corner. Never use pixel coordinates.

Available actions and their arguments:
  open_web_browser   {}
  navigate           {"url": string}
  search             {}
  go_back            {}
  go_forward         {}
  wait_5_seconds     {}
  click_at           {"x": int, "y": int}
  hover_at           {"x": int, "y": int}
  type_text_at       {"x": int, "y": int, "text": string,
                      "press_enter": bool, "clear_before_typing": bool}
  key_combination    {"keys": string, e.g. "ctrl+a" or "enter"}
  scroll_document    {"direction": "up"|"down"|"left"|"right"}
  scroll_at          {"x": int, "y": int, "direction": string, "magnitude": int}
  drag_and_drop      {"x": int, "y": int, "destination_x": int, "destination_y": int}

Reply with a single JSON object:
  {"requestedActions": [{"name": "...", "args": {...}}, ...], "text": "..."}

Request an empty requestedActions array when the goal is complete or cannot
be advanced further, and explain the outcome in "text".`

// askSystemPrompt covers the direct question passthrough.
const askSystemPrompt = `You are assisting a browser automation session. Answer the question
directly and concisely in plain text.`

// buildTurnPrompt renders the observation: the standing goal plus the
// transcript of every action executed so far, in execution order.
func buildTurnPrompt(req schemas.TurnRequest) string {
	var sb strings.Builder

	sb.WriteString("GOAL: ")
	sb.WriteString(req.Goal)
	sb.WriteString("\n")

	if len(req.PriorResults) == 0 {
		sb.WriteString("\nNo actions have been executed yet.\n")
	} else {
		sb.WriteString("\nActions executed so far, in order:\n")
		for _, res := range req.PriorResults {
			sb.WriteString("  - ")
			sb.WriteString(res.Outcome())
			sb.WriteString("\n")
		}
	}

	if len(req.Screenshot) > 0 {
		sb.WriteString("\nThe attached screenshot shows the current page state.\n")
	} else {
		sb.WriteString("\nNo screenshot is available for this turn.\n")
	}

	sb.WriteString("\nDecide the next batch of actions toward the goal.")
	return sb.String()
}
