// internal/router/router.go

// Package router validates inbound action requests and dispatches them to
// either the browser host (lifecycle actions) or the installed page kit
// (page actions). Dispatch is over a closed enumeration of action kinds; an
// unrecognized name is a validation failure, never a lookup miss.
package router

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpilot-cli/api/schemas"
	"github.com/xkilldash9x/gridpilot-cli/internal/pagekit"
)

// Host is the window/tab lifecycle collaborator consumed by the router.
// Satisfied by *browser.Host.
type Host interface {
	OpenWindow(ctx context.Context) (schemas.WindowHandle, error)
	Navigate(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error
	Search(ctx context.Context) error
	Wait(ctx context.Context, d time.Duration) error
	ActiveTab() (pagekit.Executor, error)
}

// PageActions is the installed page action surface. Satisfied by
// *pagekit.Kit.
type PageActions interface {
	Install(ctx context.Context, exec pagekit.Executor) error
	ClickAt(ctx context.Context, exec pagekit.Executor, c schemas.GridCoordinate) (bool, error)
	HoverAt(ctx context.Context, exec pagekit.Executor, c schemas.GridCoordinate) (bool, error)
	TypeTextAt(ctx context.Context, exec pagekit.Executor, c schemas.GridCoordinate, text string, pressEnter, clearFirst bool) (bool, error)
	KeyCombination(ctx context.Context, exec pagekit.Executor, chord schemas.KeyChord) (bool, error)
	ScrollDocument(ctx context.Context, exec pagekit.Executor, dir schemas.Direction) (bool, error)
	ScrollAt(ctx context.Context, exec pagekit.Executor, c schemas.GridCoordinate, dir schemas.Direction, magnitude int64) (bool, error)
	DragAndDrop(ctx context.Context, exec pagekit.Executor, src, dst schemas.GridCoordinate) (bool, error)
}

// Router is the single entry point for the command surface.
type Router struct {
	logger *zap.Logger
	host   Host
	kit    PageActions
	oracle schemas.TurnOracle
}

// New wires a router. The oracle may be nil for callers that never route
// ask_turn_oracle (it then fails with a validation error).
func New(logger *zap.Logger, host Host, kit PageActions, oracle schemas.TurnOracle) *Router {
	return &Router{
		logger: logger.Named("router"),
		host:   host,
		kit:    kit,
		oracle: oracle,
	}
}

// Route validates the request and executes it. The returned value is the
// action's success value (a WindowHandle, a bool, or a string); any error is
// one of the schemas error taxonomy types.
func (r *Router) Route(ctx context.Context, req schemas.ActionRequest) (interface{}, error) {
	if _, ok := schemas.ParseActionKind(string(req.Name)); !ok {
		return nil, schemas.NewValidationError(req.Name, "unrecognized action name")
	}

	r.logger.Debug("Routing action.", zap.String("action", string(req.Name)))

	switch req.Name {
	case schemas.ActionOpenWebBrowser:
		return r.host.OpenWindow(ctx)

	case schemas.ActionNavigate:
		url, err := parseNavigateArgs(req)
		if err != nil {
			return nil, err
		}
		if err := r.host.Navigate(ctx, url); err != nil {
			return nil, err
		}
		return true, nil

	case schemas.ActionSearch:
		if err := r.host.Search(ctx); err != nil {
			return nil, err
		}
		return true, nil

	case schemas.ActionGoBack:
		if err := r.host.GoBack(ctx); err != nil {
			return nil, err
		}
		return true, nil

	case schemas.ActionGoForward:
		if err := r.host.GoForward(ctx); err != nil {
			return nil, err
		}
		return true, nil

	case schemas.ActionWait5Seconds:
		if err := r.host.Wait(ctx, 5*time.Second); err != nil {
			return nil, err
		}
		return true, nil

	case schemas.ActionAskTurnOracle:
		prompt, err := parseAskArgs(req)
		if err != nil {
			return nil, err
		}
		if r.oracle == nil {
			return nil, schemas.NewValidationError(req.Name, "no turn-oracle configured")
		}
		text, err := r.oracle.Ask(ctx, prompt)
		if err != nil {
			return nil, &schemas.OracleError{Cause: err}
		}
		return text, nil
	}

	// Everything else targets the page context of the active tab.
	return r.routePageAction(ctx, req)
}

// routePageAction resolves the active tab, guarantees the kit is installed
// and dispatches the validated action into the page.
func (r *Router) routePageAction(ctx context.Context, req schemas.ActionRequest) (interface{}, error) {
	// Validate before touching the browser: a malformed request must be
	// rejected without invoking any dispatcher.
	parsed, err := parsePageArgs(req)
	if err != nil {
		return nil, err
	}

	exec, err := r.host.ActiveTab()
	if err != nil {
		return nil, err
	}

	if err := r.kit.Install(ctx, exec); err != nil {
		return nil, err
	}

	switch req.Name {
	case schemas.ActionClickAt:
		return r.kit.ClickAt(ctx, exec, parsed.point)
	case schemas.ActionHoverAt:
		return r.kit.HoverAt(ctx, exec, parsed.point)
	case schemas.ActionTypeTextAt:
		return r.kit.TypeTextAt(ctx, exec, parsed.point, parsed.text, parsed.pressEnter, parsed.clearFirst)
	case schemas.ActionKeyCombination:
		return r.kit.KeyCombination(ctx, exec, parsed.chord)
	case schemas.ActionScrollDocument:
		return r.kit.ScrollDocument(ctx, exec, parsed.direction)
	case schemas.ActionScrollAt:
		return r.kit.ScrollAt(ctx, exec, parsed.point, parsed.direction, parsed.magnitude)
	case schemas.ActionDragAndDrop:
		return r.kit.DragAndDrop(ctx, exec, parsed.point, parsed.dest)
	}

	// Unreachable: parsePageArgs already rejected anything else.
	return nil, schemas.NewValidationError(req.Name, "not a page action")
}
