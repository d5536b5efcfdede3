package reporting

import (
	"io"
	"path/filepath"
)

// DefaultReporter implements both ConsoleReporter and FileReporter
type DefaultReporter struct {
	console *DefaultConsoleReporter
	csv     *DefaultCSVReporter
	excel   *DefaultExcelReporter
	json    *DefaultJSONFormatter
	paths   *DefaultPathManager
}

var (
	_ ConsoleReporter = (*DefaultReporter)(nil)
	_ FileReporter    = (*DefaultReporter)(nil)
)

// NewDefaultReporter creates a new default reporter with all functionality
func NewDefaultReporter() *DefaultReporter {
	return &DefaultReporter{
		console: NewDefaultConsoleReporter(),
		csv:     NewDefaultCSVReporter(),
		excel:   NewDefaultExcelReporter(),
		json:    NewDefaultJSONFormatter(),
		paths:   NewDefaultPathManager(),
	}
}

func (r *DefaultReporter) Render(w io.Writer, report HealthReport) {
	r.console.Render(w, report)
}

func (r *DefaultReporter) WriteHealthXLSX(report HealthReport, path string) error {
	return r.excel.WriteHealthXLSX(report, path)
}

func (r *DefaultReporter) WriteTransitionsCSV(report HealthReport, path string) error {
	return r.csv.WriteTransitionsCSV(report, path)
}

func (r *DefaultReporter) WriteHealthJSON(report HealthReport, path string) error {
	return r.json.WriteHealthJSON(report, path)
}

// ReportingManager provides a high-level interface for all reporting needs
type ReportingManager struct {
	reporter *DefaultReporter
	config   ReportingConfig
}

// NewReportingManager creates a new reporting manager with configuration
func NewReportingManager(config ReportingConfig) *ReportingManager {
	return &ReportingManager{
		reporter: NewDefaultReporter(),
		config:   config,
	}
}

// Report outputs the report according to configuration and returns the
// files it wrote
func (m *ReportingManager) Report(w io.Writer, report HealthReport) ([]string, error) {
	if m.config.EnableConsole {
		m.reporter.Render(w, report)
	}
	if !m.config.EnableFiles {
		return nil, nil
	}

	outputDir := m.config.OutputDirectory
	if outputDir == "" {
		outputDir = m.reporter.paths.GetDefaultOutputDir(report.StrategyID)
	}

	var written []string
	if m.config.ExcelEnabled {
		path := filepath.Join(outputDir, "health.xlsx")
		if err := m.reporter.WriteHealthXLSX(report, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if m.config.CSVEnabled {
		path := filepath.Join(outputDir, "transitions.csv")
		if err := m.reporter.WriteTransitionsCSV(report, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if m.config.JSONEnabled {
		path := filepath.Join(outputDir, "health.json")
		if err := m.reporter.WriteHealthJSON(report, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
