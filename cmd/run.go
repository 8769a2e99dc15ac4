// -- cmd/run.go --
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpilot-cli/internal/agent"
	"github.com/xkilldash9x/gridpilot-cli/internal/browser"
	"github.com/xkilldash9x/gridpilot-cli/internal/observability"
	"github.com/xkilldash9x/gridpilot-cli/internal/oracle"
	"github.com/xkilldash9x/gridpilot-cli/internal/pagekit"
	"github.com/xkilldash9x/gridpilot-cli/internal/router"
)

var (
	flagMaxTurns          int
	flagHeadless          bool
	flagInitialScreenshot bool
)

var runCmd = &cobra.Command{
	Use:   "run [goal]",
	Short: "Run the orchestration loop against a goal.",
	Long: `Run starts a browser, hands the goal to the turn-oracle and executes the
actions it requests, one observe-act turn at a time, until the oracle
declares the goal finished or the turn budget runs out.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal := strings.TrimSpace(strings.Join(args, " "))
		if goal == "" {
			return fmt.Errorf("goal must not be empty")
		}

		logger := observability.GetLogger()

		// Flags override the loaded configuration.
		if cmd.Flags().Changed("max-turns") {
			appCfg.Loop.MaxTurns = flagMaxTurns
		}
		if cmd.Flags().Changed("headless") {
			appCfg.Browser.Headless = flagHeadless
		}
		if cmd.Flags().Changed("initial-screenshot") {
			appCfg.Loop.IncludeInitialScreenshot = flagInitialScreenshot
		}
		if err := appCfg.Validate(); err != nil {
			return err
		}

		turnOracle, err := oracle.NewGemini(appCfg.Oracle, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize turn-oracle: %w", err)
		}

		host := browser.NewHost(appCfg.Browser, logger)
		defer host.Close()

		kit := pagekit.NewKit(logger)
		rt := router.New(logger, host, kit, turnOracle)
		loop := agent.NewLoop(appCfg.Loop, rt, turnOracle, host, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		outcome, err := loop.Run(ctx, goal)
		if err != nil {
			return fmt.Errorf("run failed after %d turn(s): %w", outcome.Turns, err)
		}

		logger.Info("Run complete.",
			zap.Bool("done", outcome.Done),
			zap.Bool("exhausted", outcome.Exhausted),
			zap.Int("turns", outcome.Turns),
		)

		if outcome.Exhausted {
			fmt.Fprintf(cmd.OutOrStdout(), "Turn budget (%d) exhausted before the goal finished.\n", appCfg.Loop.MaxTurns)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Goal finished after %d turn(s).\n", outcome.Turns)
		}
		if outcome.FinalText != "" {
			fmt.Fprintln(cmd.OutOrStdout(), outcome.FinalText)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&flagMaxTurns, "max-turns", 8, "maximum number of action-bearing turns")
	runCmd.Flags().BoolVar(&flagHeadless, "headless", true, "run the browser headless")
	runCmd.Flags().BoolVar(&flagInitialScreenshot, "initial-screenshot", false, "capture a screenshot before the first turn")
	rootCmd.AddCommand(runCmd)
}
