// internal/pagekit/kit.go

// Package pagekit owns the synthetic input layer: an embedded JavaScript kit
// installed into the target page exactly once per page load, plus the Go-side
// plumbing that marshals actions into it and mirrors the pointer position at
// the CDP level.
package pagekit

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpilot-cli/api/schemas"
	"github.com/xkilldash9x/gridpilot-cli/internal/grid"
)

//go:embed kit.js
var kitScript string

// InstalledMarker is the page-global flag guarding reinstallation. It lives
// in the page's execution context, so it disappears on navigation exactly
// when the kit itself does.
const InstalledMarker = "__gridpilotInstalled"

// Executor runs browser actions against one tab. Satisfied by the session
// type in internal/browser; faked in tests.
type Executor interface {
	RunActions(ctx context.Context, actions ...chromedp.Action) error
}

// invokeEnvelope is the fixed reply shape of the page-side invoke entry
// point. A thrown page-side error or an unknown action name both surface as
// ok=false with a description, never as a JS exception.
type invokeEnvelope struct {
	OK    bool            `json:"ok"`
	Value json.RawMessage `json:"value,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Kit marshals page actions into the installed page-side kit.
type Kit struct {
	logger *zap.Logger
}

// NewKit creates the Go-side handle for the page kit.
func NewKit(logger *zap.Logger) *Kit {
	return &Kit{logger: logger.Named("pagekit")}
}

// Install evaluates the guarded kit source in the page. Because the guard and
// the install run inside a single Evaluate on the page's only JS thread, the
// check-and-install is atomic: two near-simultaneous first actions cannot
// double-install. Returns whether the marker is set afterwards.
func (k *Kit) Install(ctx context.Context, exec Executor) error {
	script := kitScript + "\n;window." + InstalledMarker + " === true;"

	var installed bool
	err := exec.RunActions(ctx, chromedp.Evaluate(script, &installed, evalOpts))
	if err != nil {
		return &schemas.TargetUnavailableError{Reason: "page rejected kit installation", Cause: err}
	}
	if !installed {
		return &schemas.TargetUnavailableError{Reason: "kit installation marker not set"}
	}
	return nil
}

// invoke runs one installed page action. The install guard is inlined into
// the same Evaluate, so a navigation between two actions transparently
// reinstalls the kit instead of failing on a missing global.
func (k *Kit) invoke(ctx context.Context, exec Executor, action schemas.ActionKind, args interface{}) (json.RawMessage, error) {
	argJSON, err := json.Marshal(args)
	if err != nil {
		return nil, &schemas.PageActionError{Action: action, Reason: fmt.Sprintf("failed to encode arguments: %v", err)}
	}

	var sb strings.Builder
	sb.WriteString(kitScript)
	sb.WriteString("\n;window.__gridpilot.invoke(")
	sb.WriteString(jsonEncode(string(action)))
	sb.WriteString(", ")
	sb.Write(argJSON)
	sb.WriteString(");")

	var env invokeEnvelope
	err = exec.RunActions(ctx, chromedp.Evaluate(sb.String(), &env, evalOpts))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &schemas.TargetUnavailableError{Reason: "page rejected action dispatch", Cause: err}
	}
	if !env.OK {
		return nil, &schemas.PageActionError{Action: action, Reason: env.Error}
	}

	k.logger.Debug("Page action dispatched.",
		zap.String("action", string(action)),
		zap.ByteString("value", env.Value),
	)
	return env.Value, nil
}

// invokeBool runs an action whose page-side value is the "was something
// dispatched" boolean.
func (k *Kit) invokeBool(ctx context.Context, exec Executor, action schemas.ActionKind, args interface{}) (bool, error) {
	raw, err := k.invoke(ctx, exec, action, args)
	if err != nil {
		return false, err
	}
	var dispatched bool
	if err := json.Unmarshal(raw, &dispatched); err != nil {
		return false, &schemas.PageActionError{Action: action, Reason: fmt.Sprintf("unexpected page value %s", raw)}
	}
	return dispatched, nil
}

// -- Cursor mirroring --

// moveCursor dispatches a CDP-level mouse movement to the mapped pixel
// before the in-page synthetic sequence runs, so the browser's native hover
// state agrees with the events the page sees. Best effort: a failure here
// never fails the action.
func (k *Kit) moveCursor(ctx context.Context, exec Executor, c schemas.GridCoordinate) {
	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := exec.RunActions(opCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		// Layout metrics are queried per event; the pure mapping re-derives
		// the pixel from whatever the viewport is right now.
		_, _, _, _, cssVisual, _, err := page.GetLayoutMetrics().Do(ctx)
		if err != nil {
			return err
		}
		w := int64(cssVisual.ClientWidth)
		h := int64(cssVisual.ClientHeight)
		px := grid.ToViewportPixel(c, w, h)
		return input.DispatchMouseEvent(input.MouseMoved, float64(px.X), float64(px.Y)).Do(ctx)
	}))
	if err != nil {
		k.logger.Debug("Cursor mirror move failed (non-critical).",
			zap.Int64("x", c.X), zap.Int64("y", c.Y), zap.Error(err))
	}
}

// -- Typed action surface --

// ClickAt runs the movement, press-down, press-up, click sequence at the
// coordinate, each event re-resolving its target.
func (k *Kit) ClickAt(ctx context.Context, exec Executor, c schemas.GridCoordinate) (bool, error) {
	k.moveCursor(ctx, exec, c)
	return k.invokeBool(ctx, exec, schemas.ActionClickAt, map[string]int64{"x": c.X, "y": c.Y})
}

// HoverAt runs the movement and enter sequence with no press events.
func (k *Kit) HoverAt(ctx context.Context, exec Executor, c schemas.GridCoordinate) (bool, error) {
	k.moveCursor(ctx, exec, c)
	return k.invokeBool(ctx, exec, schemas.ActionHoverAt, map[string]int64{"x": c.X, "y": c.Y})
}

// TypeTextAt focuses the nearest focusable ancestor at the point, optionally
// clears the existing value, inserts the text and optionally submits via the
// Enter key sequence.
func (k *Kit) TypeTextAt(ctx context.Context, exec Executor, c schemas.GridCoordinate, text string, pressEnter, clearFirst bool) (bool, error) {
	k.moveCursor(ctx, exec, c)
	return k.invokeBool(ctx, exec, schemas.ActionTypeTextAt, map[string]interface{}{
		"x":          c.X,
		"y":          c.Y,
		"text":       text,
		"pressEnter": pressEnter,
		"clear":      clearFirst,
	})
}

// KeyCombination dispatches a parsed chord against the focused element.
func (k *Kit) KeyCombination(ctx context.Context, exec Executor, chord schemas.KeyChord) (bool, error) {
	return k.invokeBool(ctx, exec, schemas.ActionKeyCombination, map[string]interface{}{
		"key":       chord.Key,
		"alt":       chord.Has(schemas.ModAlt),
		"ctrl":      chord.Has(schemas.ModCtrl),
		"meta":      chord.Has(schemas.ModMeta),
		"shift":     chord.Has(schemas.ModShift),
		"selectAll": IsSelectAll(chord),
		"enter":     IsBareEnter(chord),
	})
}

// ScrollDocument smooth-scrolls the whole window by the fixed magnitude.
func (k *Kit) ScrollDocument(ctx context.Context, exec Executor, dir schemas.Direction) (bool, error) {
	return k.invokeBool(ctx, exec, schemas.ActionScrollDocument, map[string]interface{}{
		"direction": string(dir),
		"magnitude": schemas.DefaultScrollMagnitude,
	})
}

// ScrollAt scrolls the nearest scrollable ancestor of the element under the
// point, falling back to the document root.
func (k *Kit) ScrollAt(ctx context.Context, exec Executor, c schemas.GridCoordinate, dir schemas.Direction, magnitude int64) (bool, error) {
	k.moveCursor(ctx, exec, c)
	return k.invokeBool(ctx, exec, schemas.ActionScrollAt, map[string]interface{}{
		"x":         c.X,
		"y":         c.Y,
		"direction": string(dir),
		"magnitude": magnitude,
	})
}

// DragAndDrop runs the full pointer+drag sequence from source to destination.
func (k *Kit) DragAndDrop(ctx context.Context, exec Executor, src, dst schemas.GridCoordinate) (bool, error) {
	k.moveCursor(ctx, exec, src)
	return k.invokeBool(ctx, exec, schemas.ActionDragAndDrop, map[string]int64{
		"x":     src.X,
		"y":     src.Y,
		"destX": dst.X,
		"destY": dst.Y,
	})
}

// evalOpts configures Evaluate the way every kit call needs it: resolved
// promises, the actual value back, page-side exceptions kept quiet.
func evalOpts(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
}

// jsonEncode safely embeds a Go value (usually a string) into a JS snippet.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}
