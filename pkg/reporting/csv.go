package reporting

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteTransitionsCSV writes the transition log, one row per state change
func (r *DefaultCSVReporter) WriteTransitionsCSV(report HealthReport, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	// If the user requests an Excel file, delegate to Excel writer
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return WriteHealthXLSX(report, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Strategy", "Timestamp", "From", "To", "Code", "Reason"}); err != nil {
		return err
	}
	for _, t := range report.Transitions {
		if err := w.Write([]string{
			report.StrategyID,
			t.Timestamp.Format(time.RFC3339),
			string(t.From),
			string(t.To),
			string(t.Code),
			t.Reason,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
