package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/strategy-guard/internal/health"
)

// DefaultConsoleReporter renders reports as terminal tables
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// Render writes the full report to w
func (r *DefaultConsoleReporter) Render(w io.Writer, report HealthReport) {
	r.renderSummary(w, report)
	r.renderWindows(w, report.Windows)
	if len(report.Regimes) > 0 {
		r.renderRegimes(w, report.Regimes)
	}
	if len(report.Transitions) > 0 {
		r.renderTransitions(w, report.Transitions)
	}
}

func (r *DefaultConsoleReporter) renderSummary(w io.Writer, report HealthReport) {
	s := report.Summary

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("STRATEGY HEALTH: " + report.StrategyID)
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"State", stateIcon(s.State) + " " + string(s.State)},
		{"Reason", s.StateReason},
		{"Can Trade", yesNo(s.CanTrade)},
		{"Can Live Trade", yesNo(s.CanLiveTrade)},
		{"Paper Only", yesNo(s.PaperOnlyMode)},
		{"Reduce Size", yesNo(s.ShouldReduceSize)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Total Trades", s.TotalTrades},
		{"Consecutive Losses", s.ConsecutiveLosses},
		{"High-Conf Trades", fmt.Sprintf("%d (%.1f%% win)", s.HighConfidence.Count, s.HighConfidence.WinRate)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", s.MaxDrawdown*100)},
		{"Equity HWM", fmt.Sprintf("%.2f", s.EquityHighWaterMark)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Confidence Threshold", fmt.Sprintf("%.2f", s.ConfidenceThreshold)},
		{"Recommended Threshold", fmt.Sprintf("%.2f", report.RecommendedThreshold)},
	})
	if rec := report.Recommendation; rec != nil {
		t.AppendRows([]table.Row{
			{"Position Multiplier", fmt.Sprintf("%.2f", rec.PositionSizeMultiplier)},
			{"Portfolio Guard", fmt.Sprintf("%s (%.2f%%)", rec.GuardAction, rec.GuardDrawdown*100)},
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 22, WidthMax: 22, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, WidthMax: 60, Align: text.AlignLeft},
	})
	t.Render()
	fmt.Fprintln(w)
}

func (r *DefaultConsoleReporter) renderWindows(w io.Writer, windows []health.WindowMetrics) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("ROLLING WINDOWS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Window", "Trades", "Win %", "Expectancy", "Sharpe", "Profit Factor", "Avg Win", "Avg Loss", "Total PnL"})

	for _, m := range windows {
		t.AppendRow(table.Row{
			m.Window,
			m.Trades,
			fmt.Sprintf("%.1f", m.WinRate),
			fmt.Sprintf("%.2f", m.Expectancy),
			fmt.Sprintf("%.2f", m.RollingSharpe),
			FormatProfitFactor(m),
			fmt.Sprintf("%.2f", m.AvgWin),
			fmt.Sprintf("%.2f", m.AvgLoss),
			fmt.Sprintf("%.2f", m.TotalPnL),
		})
	}
	t.Render()
	fmt.Fprintln(w)
}

func (r *DefaultConsoleReporter) renderRegimes(w io.Writer, regimes []health.RegimeStats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("REGIMES")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Regime", "Trades", "Win %", "Total PnL", "Avg Return %", "Edge"})

	for _, s := range regimes {
		t.AppendRow(table.Row{
			s.Regime,
			s.Trades,
			fmt.Sprintf("%.1f", s.WinRate),
			fmt.Sprintf("%.2f", s.TotalPnL),
			fmt.Sprintf("%.2f", s.AvgReturnPct),
			s.Edge,
		})
	}
	t.Render()
	fmt.Fprintln(w)
}

func (r *DefaultConsoleReporter) renderTransitions(w io.Writer, transitions []health.StateTransition) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("STATE TRANSITIONS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time", "From", "To", "Code", "Reason"})

	for _, tr := range transitions {
		t.AppendRow(table.Row{
			tr.Timestamp.Format("2006-01-02 15:04:05"),
			tr.From,
			tr.To,
			tr.Code,
			tr.Reason,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMax: 60},
	})
	t.Render()
	fmt.Fprintln(w)
}

// FormatProfitFactor renders a window's profit factor, "∞" when there
// were no losses
func FormatProfitFactor(m health.WindowMetrics) string {
	if m.HasInfiniteProfitFactor() {
		return "∞"
	}
	return fmt.Sprintf("%.2f", m.ProfitFactor)
}

func stateIcon(s health.HealthState) string {
	switch s {
	case health.StateActive:
		return "✅"
	case health.StateDegraded, health.StatePaperOnly:
		return "⚠️"
	default:
		return "⛔"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// OutputConsole prints the report to stdout
func OutputConsole(report HealthReport) {
	NewDefaultConsoleReporter().Render(os.Stdout, report)
}

// ShortStatus is the one-line form used by the check command
func ShortStatus(report HealthReport) string {
	s := report.Summary
	parts := []string{
		fmt.Sprintf("%s %s", stateIcon(s.State), s.State),
		fmt.Sprintf("threshold=%.2f", s.ConfidenceThreshold),
		fmt.Sprintf("max_dd=%.2f%%", s.MaxDrawdown*100),
	}
	if rec := report.Recommendation; rec != nil {
		parts = append(parts, fmt.Sprintf("size=%.2f", rec.PositionSizeMultiplier), rec.Message)
	} else if s.StateReason != "" {
		parts = append(parts, s.StateReason)
	}
	return strings.Join(parts, " | ")
}
