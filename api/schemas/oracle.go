// api/schemas/oracle.go
package schemas

import "context"

// -- Turn-oracle contract --

// TurnRequest is one observation handed to the turn-oracle: the standing
// goal, the accumulated action results formatted as name+result pairs, and an
// optional screenshot of the current page state.
type TurnRequest struct {
	Goal         string
	PriorResults []ActionResult
	// Screenshot holds encoded image bytes of the active tab, or nil when no
	// observation image accompanies this turn.
	Screenshot []byte
}

// TurnReply is the normalized oracle answer: zero or more requested actions
// plus optional free text. Zero actions means the oracle considers the goal
// reached (or unreachable) and the loop should finalize.
type TurnReply struct {
	Actions []ActionRequest `json:"requestedActions"`
	Text    string          `json:"text,omitempty"`
}

// TurnOracle is the external reasoning/vision collaborator. Implementations
// wrap a concrete model API; the adapter boundary in internal/oracle keeps
// envelope drift out of the rest of the system.
type TurnOracle interface {
	// NextTurn proposes the next batch of actions for the given state.
	NextTurn(ctx context.Context, req TurnRequest) (*TurnReply, error)

	// Ask sends a bare free-text prompt and returns the text answer. Used by
	// the ask_turn_oracle command.
	Ask(ctx context.Context, prompt string) (string, error)
}

// KeyModifier is a bitmask of keyboard modifiers. The values correspond
// directly to the CDP Input.dispatchKeyEvent modifiers bitfield.
type KeyModifier int

const (
	ModNone  KeyModifier = 0
	ModAlt   KeyModifier = 1
	ModCtrl  KeyModifier = 2
	ModMeta  KeyModifier = 4
	ModShift KeyModifier = 8
)

// KeyChord is a parsed key combination: one primary key plus modifiers.
type KeyChord struct {
	Key       string      `json:"key"`
	Modifiers KeyModifier `json:"modifiers"`
}

// Has reports whether the chord carries the given modifier.
func (k KeyChord) Has(m KeyModifier) bool { return k.Modifiers&m != 0 }
