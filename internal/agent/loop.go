// internal/agent/loop.go

// Package agent runs the multi-turn orchestration loop: observe the page,
// ask the turn-oracle for the next action batch, execute it sequentially,
// re-observe, repeat until the oracle stops requesting actions or the turn
// budget runs out.
package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpilot-cli/api/schemas"
	"github.com/xkilldash9x/gridpilot-cli/internal/config"
)

// ActionRouter executes one validated action request. Satisfied by
// *router.Router.
type ActionRouter interface {
	Route(ctx context.Context, req schemas.ActionRequest) (interface{}, error)
}

// Capturer produces an encoded screenshot of the active tab. Satisfied by
// *browser.Host.
type Capturer interface {
	CaptureScreenshot(ctx context.Context) ([]byte, error)
}

// Outcome is the final state of one loop run.
type Outcome struct {
	// Done is true once the run has been finalized through a closing oracle
	// turn, whether the oracle stopped requesting actions on its own or the
	// turn budget forced the stop.
	Done bool
	// Exhausted is true when the turn budget ran out before the oracle
	// stopped requesting actions.
	Exhausted bool
	// Turns counts the action-bearing turns that were executed.
	Turns int
	// FinalText is the oracle's closing statement, empty on budget exhaustion.
	FinalText string
	// History holds every executed turn in order.
	History []schemas.TurnRecord
	// FinalScreenshot is the last page state, nil when the wrap-up capture
	// failed (tolerated) or never ran.
	FinalScreenshot []byte
}

// Loop drives one goal to completion.
type Loop struct {
	logger  *zap.Logger
	router  ActionRouter
	oracle  schemas.TurnOracle
	capture Capturer
	cfg     config.LoopConfig
}

// NewLoop wires the orchestrator.
func NewLoop(cfg config.LoopConfig, router ActionRouter, oracle schemas.TurnOracle, capture Capturer, logger *zap.Logger) *Loop {
	return &Loop{
		logger:  logger.Named("agent"),
		router:  router,
		oracle:  oracle,
		capture: capture,
		cfg:     cfg,
	}
}

// Run executes the loop for the given goal. Action-level failures are folded
// into the transcript and the loop keeps going; an oracle failure or a failed
// mid-loop screenshot terminates the run, because the next turn would be
// flying blind.
func (l *Loop) Run(ctx context.Context, goal string) (Outcome, error) {
	runID := uuid.New().String()[:8]
	logger := l.logger.With(zap.String("run_id", runID))
	logger.Info("Starting orchestration run.", zap.String("goal", goal), zap.Int("max_turns", l.cfg.MaxTurns))

	var out Outcome
	var results []schemas.ActionResult
	var screenshot []byte

	if l.cfg.IncludeInitialScreenshot {
		shot, err := l.capture.CaptureScreenshot(ctx)
		if err != nil {
			return out, err
		}
		screenshot = shot
	}

	for out.Turns < l.cfg.MaxTurns {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		reply, err := l.oracle.NextTurn(ctx, schemas.TurnRequest{
			Goal:         goal,
			PriorResults: results,
			Screenshot:   screenshot,
		})
		if err != nil {
			return out, err
		}

		if len(reply.Actions) == 0 {
			out.Done = true
			out.FinalText = reply.Text
			logger.Info("Oracle finalized the run.", zap.Int("turns", out.Turns), zap.String("text", reply.Text))
			// Wrap-up capture is best effort: the run already succeeded.
			if shot, err := l.capture.CaptureScreenshot(ctx); err == nil {
				out.FinalScreenshot = shot
			} else {
				logger.Warn("Final screenshot capture failed (tolerated).", zap.Error(err))
			}
			return out, nil
		}

		record := schemas.TurnRecord{Requested: reply.Actions}
		for _, req := range reply.Actions {
			res, err := l.execute(ctx, req)
			if err != nil {
				return out, err
			}
			record.Results = append(record.Results, res)
			results = append(results, res)
		}
		out.Turns++

		// Re-observe before the next decision. A failure here is fatal: the
		// oracle must never act on a stale image.
		shot, err := l.capture.CaptureScreenshot(ctx)
		if err != nil {
			return out, err
		}
		screenshot = shot
		record.ScreenshotAfter = shot
		out.History = append(out.History, record)

		logger.Debug("Turn complete.", zap.Int("turn", out.Turns), zap.Int("actions", len(record.Results)))
	}

	// Budget exhausted: the run still finalizes through one last oracle turn
	// so the closing explanation reflects everything that was executed. The
	// screenshot captured after the final batch is already the final page
	// state; any actions the oracle requests now are ignored.
	logger.Warn("Turn budget exhausted, requesting closing summary.", zap.Int("turns", out.Turns))
	out.Exhausted = true
	out.FinalScreenshot = screenshot

	reply, err := l.oracle.NextTurn(ctx, schemas.TurnRequest{
		Goal:         goal,
		PriorResults: results,
		Screenshot:   screenshot,
	})
	if err != nil {
		return out, err
	}

	out.Done = true
	out.FinalText = reply.Text
	logger.Info("Run finalized after budget exhaustion.", zap.Int("turns", out.Turns), zap.String("text", reply.Text))
	return out, nil
}

// execute routes one action and folds recoverable failures into the result.
func (l *Loop) execute(ctx context.Context, req schemas.ActionRequest) (schemas.ActionResult, error) {
	res := schemas.ActionResult{Name: req.Name}

	value, err := l.router.Route(ctx, req)
	if err != nil {
		if !recoverable(err) {
			return res, err
		}
		res.Error = err.Error()
		l.logger.Warn("Action failed, continuing.", zap.String("action", string(req.Name)), zap.Error(err))
		return res, nil
	}

	res.Value = value
	return res, nil
}

// recoverable reports whether an action failure becomes transcript data
// instead of ending the run. Bad arguments, a missing target and page-side
// failures are all things the oracle can see and route around.
func recoverable(err error) bool {
	var verr *schemas.ValidationError
	var terr *schemas.TargetUnavailableError
	var perr *schemas.PageActionError
	return errors.As(err, &verr) || errors.As(err, &terr) || errors.As(err, &perr)
}
