package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
	"github.com/ducminhle1904/strategy-guard/internal/health"
	"github.com/ducminhle1904/strategy-guard/internal/integration"
	"github.com/ducminhle1904/strategy-guard/pkg/reporting"
)

var (
	feedFile   string
	saveState  bool
	strictExit bool

	outputDir string
	writeXLSX bool
	writeCSV  bool
	writeJSON bool
	printJSON bool

	forceTo     string
	forceReason string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a trade feed and print the trading recommendation",
	RunE:  runCheck,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Evaluate a trade feed and render the full health report",
	RunE:  runReport,
}

var resetDDCmd = &cobra.Command{
	Use:   "reset-dd",
	Short: "Restart max drawdown tracking after a manual review",
	Long: `Zero the max drawdown and clear paper-only mode. The high-water mark
and the health state are kept; the next check re-classifies the state.`,
	RunE: runResetDD,
}

var forceCmd = &cobra.Command{
	Use:   "force",
	Short: "Force the health state, bypassing the invalidation rules",
	Long: `Force the health state. The transition is logged with code MANUAL.
This is the only way out of DISABLED.

Examples:
  health-monitor force --to ACTIVE --reason "strategy re-validated"
  health-monitor force --to DISABLED --reason "exchange outage"`,
	RunE: runForce,
}

func init() {
	rootCmd.AddCommand(checkCmd, reportCmd, resetDDCmd, forceCmd)

	checkCmd.Flags().StringVar(&feedFile, "feed", "", "Trade feed JSON file (required)")
	checkCmd.Flags().BoolVar(&saveState, "save", false, "Persist the resulting state")
	checkCmd.Flags().BoolVar(&strictExit, "strict", false, "Exit with status 2 when trading is blocked")
	checkCmd.MarkFlagRequired("feed")

	reportCmd.Flags().StringVar(&feedFile, "feed", "", "Trade feed JSON file (required)")
	reportCmd.Flags().StringVar(&outputDir, "output", "", "Output directory (default results/<strategy>)")
	reportCmd.Flags().BoolVar(&writeXLSX, "xlsx", false, "Write health.xlsx")
	reportCmd.Flags().BoolVar(&writeCSV, "csv", false, "Write transitions.csv")
	reportCmd.Flags().BoolVar(&writeJSON, "json", false, "Write health.json")
	reportCmd.Flags().BoolVar(&printJSON, "print-json", false, "Print the report as JSON instead of tables")
	reportCmd.MarkFlagRequired("feed")

	forceCmd.Flags().StringVar(&forceTo, "to", "", "Target state (ACTIVE, DEGRADED, PAUSED, PAPER_ONLY, DISABLED)")
	forceCmd.Flags().StringVar(&forceReason, "reason", "", "Reason recorded in the transition log")
	forceCmd.MarkFlagRequired("to")
	forceCmd.MarkFlagRequired("reason")
}

// evaluateFeed loads the feed and runs the full adapter check
func evaluateFeed(a *app) (integration.Recommendation, error) {
	feed, err := integration.LoadFeed(feedFile)
	if err != nil {
		return integration.Recommendation{}, err
	}
	_, _, rec := a.adapter.CheckStrategyHealth(feed)
	return rec, nil
}

func buildReport(a *app, rec *integration.Recommendation) reporting.HealthReport {
	var report reporting.HealthReport
	a.adapter.WithHealth(func(h *health.StrategyHealth) {
		report = reporting.BuildHealthReport(a.cfg.StrategyID, h, rec)
	})
	return report
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := evaluateFeed(a)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), reporting.ShortStatus(buildReport(a, &rec)))
	fmt.Fprintln(cmd.OutOrStdout(), rec.Message)

	if saveState {
		if err := a.persist(cmd.Context()); err != nil {
			return err
		}
	}
	if strictExit && !rec.CanTrade {
		a.Close()
		os.Exit(2)
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := evaluateFeed(a)
	if err != nil {
		return err
	}
	report := buildReport(a, &rec)

	if printJSON {
		return reporting.NewDefaultJSONFormatter().Print(cmd.OutOrStdout(), report)
	}

	manager := reporting.NewReportingManager(reporting.ReportingConfig{
		EnableConsole:   true,
		EnableFiles:     writeXLSX || writeCSV || writeJSON,
		OutputDirectory: outputDir,
		ExcelEnabled:    writeXLSX,
		CSVEnabled:      writeCSV,
		JSONEnabled:     writeJSON,
	})
	written, err := manager.Report(cmd.OutOrStdout(), report)
	for _, path := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "📄 %s\n", path)
	}
	return err
}

func runResetDD(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	state, reason := resetDrawdown(a)
	fmt.Fprintf(cmd.OutOrStdout(), "🔄 Max drawdown tracking reset, state %s kept (%s)\n", state, reason)
	return a.persist(cmd.Context())
}

// resetDrawdown restarts max drawdown tracking and clears paper-only mode.
// The health state is left as is until the next check with a feed.
func resetDrawdown(a *app) (health.HealthState, string) {
	var (
		state  health.HealthState
		reason string
	)
	a.adapter.WithHealth(func(h *health.StrategyHealth) {
		h.ResetMaxDDTracking()
		state, reason = h.GetState()
	})
	return state, reason
}

func runForce(cmd *cobra.Command, args []string) error {
	to, err := health.ParseHealthState(forceTo)
	if err != nil {
		return guarderrors.WrapError(err, guarderrors.ErrorCategoryValidation, "cli", "force")
	}

	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	a.adapter.WithHealth(func(h *health.StrategyHealth) {
		h.ForceState(to, forceReason)
	})
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Forced %s: %s\n", to, forceReason)
	return a.persist(cmd.Context())
}
