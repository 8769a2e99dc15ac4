// api/schemas/actions.go
package schemas

import (
	"encoding/json"
	"fmt"
)

// GridCoordinate is a resolution-independent position on the abstract
// 1000x1000 plane. Both axes must stay within [0, GridMax]; the router rejects
// anything else before a single event is dispatched.
type GridCoordinate struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// GridMax is the inclusive upper bound of the grid on each axis.
const GridMax = 999

// InRange reports whether both axes are within the grid.
func (c GridCoordinate) InRange() bool {
	return c.X >= 0 && c.X <= GridMax && c.Y >= 0 && c.Y <= GridMax
}

// Direction is the scroll direction enumeration.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// ParseDirection validates a raw direction string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unrecognized direction %q (want up, down, left or right)", s)
	}
}

// ActionKind is the closed enumeration of the command surface. Dispatch is by
// tagged variant, not by raw string lookup: an unknown name is a single
// well-defined validation failure.
type ActionKind string

const (
	// Browser lifecycle actions, handled by the host without page installation.
	ActionOpenWebBrowser ActionKind = "open_web_browser"
	ActionNavigate       ActionKind = "navigate"
	ActionSearch         ActionKind = "search"
	ActionGoBack         ActionKind = "go_back"
	ActionGoForward      ActionKind = "go_forward"
	ActionWait5Seconds   ActionKind = "wait_5_seconds"

	// Page actions, executed inside the target page by the installed kit.
	ActionClickAt        ActionKind = "click_at"
	ActionHoverAt        ActionKind = "hover_at"
	ActionTypeTextAt     ActionKind = "type_text_at"
	ActionKeyCombination ActionKind = "key_combination"
	ActionScrollDocument ActionKind = "scroll_document"
	ActionScrollAt       ActionKind = "scroll_at"
	ActionDragAndDrop    ActionKind = "drag_and_drop"

	// Direct oracle passthrough.
	ActionAskTurnOracle ActionKind = "ask_turn_oracle"
)

// ParseActionKind maps a raw action name onto the closed enumeration.
func ParseActionKind(name string) (ActionKind, bool) {
	switch ActionKind(name) {
	case ActionOpenWebBrowser, ActionNavigate, ActionSearch, ActionGoBack,
		ActionGoForward, ActionWait5Seconds, ActionClickAt, ActionHoverAt,
		ActionTypeTextAt, ActionKeyCombination, ActionScrollDocument,
		ActionScrollAt, ActionDragAndDrop, ActionAskTurnOracle:
		return ActionKind(name), true
	default:
		return "", false
	}
}

// IsPageAction reports whether the action runs inside the page context and
// therefore requires kit installation on the active tab.
func (k ActionKind) IsPageAction() bool {
	switch k {
	case ActionClickAt, ActionHoverAt, ActionTypeTextAt, ActionKeyCombination,
		ActionScrollDocument, ActionScrollAt, ActionDragAndDrop:
		return true
	}
	return false
}

// ActionRequest is one inbound action as requested by the turn-oracle.
// Immutable once constructed; Args stays raw until validation decodes it.
type ActionRequest struct {
	Name ActionKind      `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ActionResult is the outcome of exactly one executed ActionRequest. Failures
// are captured as data rather than propagated, because the orchestration loop
// must keep running after a single bad action.
type ActionResult struct {
	Name  ActionKind  `json:"name"`
	Value interface{} `json:"result,omitempty"`
	Error string      `json:"error,omitempty"`
}

// OK reports whether the action completed without a captured error.
func (r ActionResult) OK() bool { return r.Error == "" }

// Outcome renders the result as a short name+result pair for the oracle
// transcript. The oracle correlates results to calls by name and position.
func (r ActionResult) Outcome() string {
	if r.Error != "" {
		return fmt.Sprintf("%s: ERROR: %s", r.Name, r.Error)
	}
	v, err := json.Marshal(r.Value)
	if err != nil {
		return fmt.Sprintf("%s: ok", r.Name)
	}
	return fmt.Sprintf("%s: %s", r.Name, v)
}

// TurnRecord captures one loop iteration. Requested and Results are
// index-aligned and the ordering must survive the round-trip back to the
// oracle.
type TurnRecord struct {
	Requested       []ActionRequest `json:"requested_actions"`
	Results         []ActionResult  `json:"results"`
	ScreenshotAfter []byte          `json:"-"`
}

// WindowHandle identifies a freshly opened browser window and its tab.
type WindowHandle struct {
	WindowID int64 `json:"windowId"`
	TabID    int64 `json:"tabId"`
}
