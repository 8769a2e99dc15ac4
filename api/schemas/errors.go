// api/schemas/errors.go
package schemas

import "fmt"

// The failure taxonomy shared across the router, page kit, host and loop.
// Using distinct types (rather than string matching) lets the orchestrator
// decide with errors.As which failures are folded into an ActionResult and
// which ones terminate the loop.

// ValidationError reports malformed or out-of-range request arguments,
// rejected before any dispatch occurs.
type ValidationError struct {
	Action ActionKind
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Action, e.Reason)
}

// NewValidationError builds a ValidationError for the given action.
func NewValidationError(action ActionKind, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Action: action, Reason: fmt.Sprintf(format, args...)}
}

// TargetUnavailableError reports that no active tab exists or the page
// rejected script injection (restricted or not-yet-loaded page).
type TargetUnavailableError struct {
	Reason string
	Cause  error
}

func (e *TargetUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("target unavailable: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("target unavailable: %s", e.Reason)
}

func (e *TargetUnavailableError) Unwrap() error { return e.Cause }

// PageActionError reports that the page-side action threw, or that the
// requested page action name is not part of the installed kit.
type PageActionError struct {
	Action ActionKind
	Reason string
}

func (e *PageActionError) Error() string {
	return fmt.Sprintf("page action %s failed: %s", e.Action, e.Reason)
}

// CaptureError reports a failed screenshot capture. Fatal mid-turn,
// tolerated during final wrap-up.
type CaptureError struct {
	Cause error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("screenshot capture failed: %v", e.Cause)
}

func (e *CaptureError) Unwrap() error { return e.Cause }

// OracleError reports a failed call to the external reasoning service. Never
// swallowed: the loop cannot continue without direction.
type OracleError struct {
	Cause error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("turn-oracle call failed: %v", e.Cause)
}

func (e *OracleError) Unwrap() error { return e.Cause }
