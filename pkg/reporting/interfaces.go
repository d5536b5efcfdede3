package reporting

import "io"

// Package reporting renders strategy health reports for operators

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	Render(w io.Writer, report HealthReport)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteHealthXLSX(report HealthReport, path string) error
	WriteTransitionsCSV(report HealthReport, path string) error
	WriteHealthJSON(report HealthReport, path string) error
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle       int
	BaseStyle         int
	NumberStyle       int
	PercentStyle      int
	RedPercentStyle   int
	GreenPercentStyle int
	BadStateStyle     int
}

// ReportingConfig holds configuration for reporting
type ReportingConfig struct {
	EnableConsole   bool
	EnableFiles     bool
	OutputDirectory string
	ExcelEnabled    bool
	CSVEnabled      bool
	JSONEnabled     bool
}
