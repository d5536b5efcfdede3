package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/strategy-guard/internal/health"
)

// Sheet names of the health workbook
const (
	SummarySheet     = "Summary"
	WindowsSheet     = "Rolling Windows"
	TransitionsSheet = "Transitions"
	RegimesSheet     = "Regimes"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteHealthXLSX writes the report as a workbook with one sheet per section
func (r *DefaultExcelReporter) WriteHealthXLSX(report HealthReport, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), SummarySheet); err != nil {
		return err
	}
	for _, name := range []string{WindowsSheet, TransitionsSheet, RegimesSheet} {
		if _, err := fx.NewSheet(name); err != nil {
			return err
		}
	}

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, report, styles); err != nil {
		return err
	}
	if err := r.writeWindowsSheet(fx, report.Windows, styles); err != nil {
		return err
	}
	if err := r.writeTransitionsSheet(fx, report.Transitions, styles); err != nil {
		return err
	}
	if err := r.writeRegimesSheet(fx, report.Regimes, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	thinBorder := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}

	// Header style - Dark slate background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    4, // #,##0.00
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10, // 0.00%
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.RedPercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Font:      &excelize.Font{Color: "FF0000"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.GreenPercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Font:      &excelize.Font{Color: "008000"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.BadStateStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C0392B"}, Pattern: 1},
		Border: thinBorder,
	})
	if err != nil {
		return styles, err
	}

	return styles, nil
}

// writeRow writes values starting at column A of row and applies one style per cell
func writeRow(fx *excelize.File, sheet string, row int, values []interface{}, cellStyles []int) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		if i < len(cellStyles) && cellStyles[i] != 0 {
			if err := fx.SetCellStyle(sheet, cell, cell, cellStyles[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeHeader(fx *excelize.File, sheet string, headers []string, styles ExcelStyles) error {
	values := make([]interface{}, len(headers))
	cellStyles := make([]int, len(headers))
	for i, h := range headers {
		values[i] = h
		cellStyles[i] = styles.HeaderStyle
	}
	if err := writeRow(fx, sheet, 1, values, cellStyles); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return fx.SetColWidth(sheet, "A", last, 18)
}

type summaryRow struct {
	label string
	value interface{}
	style int
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, report HealthReport, styles ExcelStyles) error {
	s := report.Summary
	if err := writeHeader(fx, SummarySheet, []string{"Metric", "Value"}, styles); err != nil {
		return err
	}

	stateStyle := styles.BaseStyle
	if !s.CanTrade {
		stateStyle = styles.BadStateStyle
	}

	rows := []summaryRow{
		{"Strategy", report.StrategyID, styles.BaseStyle},
		{"Generated At", report.GeneratedAt.Format("2006-01-02 15:04:05"), styles.BaseStyle},
		{"State", string(s.State), stateStyle},
		{"Reason", s.StateReason, styles.BaseStyle},
		{"Reason Code", string(s.ReasonCode), styles.BaseStyle},
		{"Can Trade", s.CanTrade, styles.BaseStyle},
		{"Can Live Trade", s.CanLiveTrade, styles.BaseStyle},
		{"Paper Only", s.PaperOnlyMode, styles.BaseStyle},
		{"Total Trades", s.TotalTrades, styles.NumberStyle},
		{"Consecutive Losses", s.ConsecutiveLosses, styles.NumberStyle},
		{"High-Conf Trades", s.HighConfidence.Count, styles.NumberStyle},
		{"High-Conf Win Rate", s.HighConfidence.WinRate / 100, styles.PercentStyle},
		{"Max Drawdown", s.MaxDrawdown, styles.RedPercentStyle},
		{"Equity High-Water Mark", s.EquityHighWaterMark, styles.NumberStyle},
		{"Confidence Threshold", s.ConfidenceThreshold, styles.NumberStyle},
		{"Recommended Threshold", report.RecommendedThreshold, styles.NumberStyle},
	}
	if rec := report.Recommendation; rec != nil {
		rows = append(rows,
			summaryRow{"Position Multiplier", rec.PositionSizeMultiplier, styles.NumberStyle},
			summaryRow{"Portfolio Guard", string(rec.GuardAction), styles.BaseStyle},
		)
	}

	for i, row := range rows {
		if err := writeRow(fx, SummarySheet, i+2, []interface{}{row.label, row.value}, []int{styles.BaseStyle, row.style}); err != nil {
			return err
		}
	}
	return fx.SetColWidth(SummarySheet, "B", "B", 50)
}

func (r *DefaultExcelReporter) writeWindowsSheet(fx *excelize.File, windows []health.WindowMetrics, styles ExcelStyles) error {
	headers := []string{"Window", "Trades", "Win Rate", "Expectancy", "Sharpe", "Profit Factor", "Avg Win", "Avg Loss", "Total PnL"}
	if err := writeHeader(fx, WindowsSheet, headers, styles); err != nil {
		return err
	}

	for i, m := range windows {
		var pf interface{} = m.ProfitFactor
		if m.HasInfiniteProfitFactor() {
			pf = "∞"
		}
		expectancyStyle := styles.NumberStyle
		if m.Expectancy <= 0 && m.Trades > 0 {
			expectancyStyle = styles.BadStateStyle
		}

		values := []interface{}{m.Window, m.Trades, m.WinRate / 100, m.Expectancy, m.RollingSharpe, pf, m.AvgWin, m.AvgLoss, m.TotalPnL}
		cellStyles := []int{
			styles.BaseStyle, styles.NumberStyle, winRateStyle(m.WinRate, styles), expectancyStyle,
			styles.NumberStyle, styles.NumberStyle, styles.NumberStyle, styles.NumberStyle, styles.NumberStyle,
		}
		if err := writeRow(fx, WindowsSheet, i+2, values, cellStyles); err != nil {
			return err
		}
	}
	return nil
}

func (r *DefaultExcelReporter) writeTransitionsSheet(fx *excelize.File, transitions []health.StateTransition, styles ExcelStyles) error {
	if err := writeHeader(fx, TransitionsSheet, []string{"Timestamp", "From", "To", "Code", "Reason"}, styles); err != nil {
		return err
	}

	for i, t := range transitions {
		toStyle := styles.BaseStyle
		if !t.To.CanTrade() {
			toStyle = styles.BadStateStyle
		}
		values := []interface{}{t.Timestamp.Format("2006-01-02 15:04:05"), string(t.From), string(t.To), string(t.Code), t.Reason}
		cellStyles := []int{styles.BaseStyle, styles.BaseStyle, toStyle, styles.BaseStyle, styles.BaseStyle}
		if err := writeRow(fx, TransitionsSheet, i+2, values, cellStyles); err != nil {
			return err
		}
	}
	return fx.SetColWidth(TransitionsSheet, "E", "E", 60)
}

func (r *DefaultExcelReporter) writeRegimesSheet(fx *excelize.File, regimes []health.RegimeStats, styles ExcelStyles) error {
	if err := writeHeader(fx, RegimesSheet, []string{"Regime", "Trades", "Win Rate", "Total PnL", "Avg Return", "Edge"}, styles); err != nil {
		return err
	}

	for i, s := range regimes {
		values := []interface{}{s.Regime, s.Trades, s.WinRate / 100, s.TotalPnL, s.AvgReturnPct / 100, string(s.Edge)}
		cellStyles := []int{
			styles.BaseStyle, styles.NumberStyle, winRateStyle(s.WinRate, styles),
			styles.NumberStyle, styles.PercentStyle, styles.BaseStyle,
		}
		if err := writeRow(fx, RegimesSheet, i+2, values, cellStyles); err != nil {
			return err
		}
	}
	return nil
}

func winRateStyle(winRatePct float64, styles ExcelStyles) int {
	if winRatePct >= 50 {
		return styles.GreenPercentStyle
	}
	return styles.RedPercentStyle
}

// WriteHealthXLSX is a convenience function using the default Excel reporter
func WriteHealthXLSX(report HealthReport, path string) error {
	return NewDefaultExcelReporter().WriteHealthXLSX(report, path)
}
