// api/schemas/args.go
package schemas

import "encoding/json"

// Argument payloads for the command surface. Coordinates are declared as
// json.Number so the router can tell an integer literal apart from a float:
// a non-integer coordinate must be rejected, never rounded.

// PointArgs addresses a single grid coordinate (click_at, hover_at).
type PointArgs struct {
	X json.Number `json:"x"`
	Y json.Number `json:"y"`
}

// TypeTextArgs drives type_text_at. PressEnter and ClearBeforeTyping default
// to true when absent, so they are pointers to distinguish "absent" from
// "false".
type TypeTextArgs struct {
	X                 json.Number `json:"x"`
	Y                 json.Number `json:"y"`
	Text              *string     `json:"text"`
	PressEnter        *bool       `json:"press_enter,omitempty"`
	ClearBeforeTyping *bool       `json:"clear_before_typing,omitempty"`
}

// KeyCombinationArgs carries the `+`-joined modifier/key string.
type KeyCombinationArgs struct {
	Keys *string `json:"keys"`
}

// ScrollDocumentArgs scrolls the whole window by the fixed magnitude.
type ScrollDocumentArgs struct {
	Direction string `json:"direction"`
}

// ScrollAtArgs scrolls the nearest scrollable ancestor under the point.
type ScrollAtArgs struct {
	X         json.Number  `json:"x"`
	Y         json.Number  `json:"y"`
	Direction string       `json:"direction"`
	Magnitude *json.Number `json:"magnitude,omitempty"`
}

// DragAndDropArgs moves from the source point to the destination point.
type DragAndDropArgs struct {
	X            json.Number `json:"x"`
	Y            json.Number `json:"y"`
	DestinationX json.Number `json:"destination_x"`
	DestinationY json.Number `json:"destination_y"`
}

// NavigateArgs targets the active tab at a (possibly bare) address.
type NavigateArgs struct {
	URL *string `json:"url"`
}

// AskOracleArgs forwards a free-text prompt straight to the turn-oracle.
type AskOracleArgs struct {
	Prompt *string `json:"prompt"`
}

// DefaultScrollMagnitude is the fixed scroll distance used when the caller
// does not supply one.
const DefaultScrollMagnitude = 800
