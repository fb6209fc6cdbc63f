package logging

import (
	"sync"
	"time"
)

// ErrorCategory represents the stage of a capture session that failed
type ErrorCategory string

const (
	ErrorCategoryCapture  ErrorCategory = "capture"
	ErrorCategoryMatching ErrorCategory = "matching"
	ErrorCategoryInput    ErrorCategory = "input"
	ErrorCategoryOutput   ErrorCategory = "output"
	ErrorCategoryDatabase ErrorCategory = "database"
	ErrorCategoryConfig   ErrorCategory = "config"
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"
	ErrorSeverityMedium   ErrorSeverity = "medium"
	ErrorSeverityHigh     ErrorSeverity = "high"
	ErrorSeverityCritical ErrorSeverity = "critical"
)

// ErrorReport represents a detailed error report
type ErrorReport struct {
	Timestamp   time.Time              `json:"timestamp"`
	Category    ErrorCategory          `json:"category"`
	Severity    ErrorSeverity          `json:"severity"`
	Component   string                 `json:"component"`
	Message     string                 `json:"message"`
	Error       error                  `json:"error"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Recoverable bool                   `json:"recoverable"`
}

// ErrorReporter collects errors from a run; the CLI prints the recent ones
// when a session does not complete cleanly
type ErrorReporter struct {
	logger         *Logger
	errorHistory   []*ErrorReport
	errorHistoryMu sync.RWMutex
	maxHistory     int
}

// NewErrorReporter creates a new error reporter
func NewErrorReporter() *ErrorReporter {
	return &ErrorReporter{
		logger:       NewLogger("ErrorReporter"),
		errorHistory: make([]*ErrorReport, 0),
		maxHistory:   100,
	}
}

// SetLogger sets the logger for the error reporter
func (er *ErrorReporter) SetLogger(logger *Logger) {
	er.logger = logger
}

// Report reports an error with full details
func (er *ErrorReporter) Report(report *ErrorReport) {
	report.Timestamp = time.Now()

	er.logError(report)
	er.addToHistory(report)
}

// ReportError reports a recoverable error with context
func (er *ErrorReporter) ReportError(category ErrorCategory, severity ErrorSeverity, component, message string, err error, context map[string]interface{}) {
	er.Report(&ErrorReport{
		Category:    category,
		Severity:    severity,
		Component:   component,
		Message:     message,
		Error:       err,
		Context:     context,
		Recoverable: severity != ErrorSeverityCritical,
	})
}

// logError logs an error report
func (er *ErrorReporter) logError(report *ErrorReport) {
	context := map[string]interface{}{
		"category":    string(report.Category),
		"severity":    string(report.Severity),
		"component":   report.Component,
		"recoverable": report.Recoverable,
	}
	for k, v := range report.Context {
		context[k] = v
	}

	switch report.Severity {
	case ErrorSeverityCritical:
		er.logger.FatalWithContext(report.Message, report.Error, context)
	case ErrorSeverityHigh:
		er.logger.ErrorWithContext(report.Message, report.Error, context)
	case ErrorSeverityMedium:
		er.logger.WarnWithContext(report.Message, context)
	default:
		er.logger.InfoWithContext(report.Message, context)
	}
}

// addToHistory adds an error to the history
func (er *ErrorReporter) addToHistory(report *ErrorReport) {
	er.errorHistoryMu.Lock()
	defer er.errorHistoryMu.Unlock()

	er.errorHistory = append(er.errorHistory, report)

	if len(er.errorHistory) > er.maxHistory {
		er.errorHistory = er.errorHistory[len(er.errorHistory)-er.maxHistory:]
	}
}

// GetRecentErrors returns the N most recent errors
func (er *ErrorReporter) GetRecentErrors(n int) []*ErrorReport {
	er.errorHistoryMu.RLock()
	defer er.errorHistoryMu.RUnlock()

	if n > len(er.errorHistory) {
		n = len(er.errorHistory)
	}

	start := len(er.errorHistory) - n
	result := make([]*ErrorReport, n)
	copy(result, er.errorHistory[start:])

	return result
}

// Count returns the number of errors reported so far
func (er *ErrorReporter) Count() int {
	er.errorHistoryMu.RLock()
	defer er.errorHistoryMu.RUnlock()
	return len(er.errorHistory)
}
