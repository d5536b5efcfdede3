package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultJSONFormatter implements JSON output functionality
type DefaultJSONFormatter struct{}

// NewDefaultJSONFormatter creates a new JSON formatter
func NewDefaultJSONFormatter() *DefaultJSONFormatter {
	return &DefaultJSONFormatter{}
}

// Format encodes the report as indented JSON
func (f *DefaultJSONFormatter) Format(report HealthReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// Print writes the report as JSON to w
func (f *DefaultJSONFormatter) Print(w io.Writer, report HealthReport) error {
	data, err := f.Format(report)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteHealthJSON writes the report to a JSON file
func (f *DefaultJSONFormatter) WriteHealthJSON(report HealthReport, path string) error {
	data, err := f.Format(report)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
