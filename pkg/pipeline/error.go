package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/charts"
	"github.com/David-Botos/prtr-cleaner/pkg/connector"
	"github.com/David-Botos/prtr-cleaner/pkg/console"
	"github.com/David-Botos/prtr-cleaner/pkg/converter"
	"github.com/David-Botos/prtr-cleaner/pkg/geocode"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
	"github.com/David-Botos/prtr-cleaner/pkg/store"
)

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates the run should go on as if nothing happened
	ActionContinue Action = iota
	// ActionSkipStage indicates the current stage should be abandoned
	ActionSkipStage
	// ActionAbort indicates the whole run should stop
	ActionAbort
)

// ErrorCategory classifies failures of a cleaning run
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	// A value that should be numeric but is not; reported, never fatal
	ErrorCategoryParseFailure
	// Unrecognized interactive input; the prompt repeats
	ErrorCategoryInteractiveInput
	// A whole-column conversion failed; the column goes to manual review
	ErrorCategoryConversionFailure
	// Geocoder or remote database failure
	ErrorCategoryExternalService
	// Missing column, nil table or other call that can never succeed
	ErrorCategoryInvalidInput
	// Cache, report or export file failure
	ErrorCategoryStorage
	// A chart or map could not be drawn
	ErrorCategoryRender
	// The run was cancelled
	ErrorCategoryCancelled
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryParseFailure:
		return "ParseFailure"
	case ErrorCategoryInteractiveInput:
		return "InteractiveInput"
	case ErrorCategoryConversionFailure:
		return "ConversionFailure"
	case ErrorCategoryExternalService:
		return "ExternalService"
	case ErrorCategoryInvalidInput:
		return "InvalidInput"
	case ErrorCategoryStorage:
		return "Storage"
	case ErrorCategoryRender:
		return "Render"
	case ErrorCategoryCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// MarshalText lets categories key JSON maps by name
func (ec ErrorCategory) MarshalText() ([]byte, error) {
	return []byte(ec.String()), nil
}

// ErrorRecord represents a single failure during a run
type ErrorRecord struct {
	Category  ErrorCategory
	Stage     string
	Column    string
	Value     string
	Error     error `json:"-"`
	Message   string
	Timestamp time.Time
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:  category,
		Error:     err,
		Timestamp: time.Now(),
	}
	if err != nil {
		record.Message = err.Error()
	}
	return record
}

// WithStage adds the stage name to the error record
func (r ErrorRecord) WithStage(stage string) ErrorRecord {
	r.Stage = stage
	return r
}

// WithColumn adds column information to the error record
func (r ErrorRecord) WithColumn(column, value string) ErrorRecord {
	r.Column = column
	r.Value = value
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))
	if r.Stage != "" {
		sb.WriteString(fmt.Sprintf("Stage: %s ", r.Stage))
	}
	if r.Column != "" {
		sb.WriteString(fmt.Sprintf("Column: %s ", r.Column))
		if r.Value != "" {
			sb.WriteString(fmt.Sprintf("Value: %s ", r.Value))
		}
	}
	if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}
	return strings.TrimSpace(sb.String())
}

// ErrorHandler counts failures by category and keeps a few samples of each
type ErrorHandler struct {
	logger       *zap.Logger
	errorCounts  map[ErrorCategory]int
	sampleErrors map[ErrorCategory][]ErrorRecord
	stageErrors  map[string]int
	mu           sync.Mutex
	maxSamples   int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{
		logger:       logger,
		errorCounts:  make(map[ErrorCategory]int),
		sampleErrors: make(map[ErrorCategory][]ErrorRecord),
		stageErrors:  make(map[string]int),
		maxSamples:   5,
	}
}

// CategorizeError determines the category of an error from the sentinels it wraps
func (eh *ErrorHandler) CategorizeError(err error) ErrorCategory {
	var category ErrorCategory
	switch {
	case err == nil:
		category = ErrorCategoryNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		category = ErrorCategoryCancelled
	case errors.Is(err, console.ErrInvalidChoice):
		category = ErrorCategoryInteractiveInput
	case errors.Is(err, converter.ErrConversion):
		category = ErrorCategoryConversionFailure
	case errors.Is(err, geocode.ErrExternalService), errors.Is(err, connector.ErrNotConfigured):
		category = ErrorCategoryExternalService
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrColumnNotFound):
		category = ErrorCategoryInvalidInput
	case errors.Is(err, charts.ErrNothingToPlot):
		category = ErrorCategoryRender
	case errors.Is(err, store.ErrNotCached), errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrPermission):
		category = ErrorCategoryStorage
	default:
		category = ErrorCategoryNone
	}

	eh.logger.Debug("Categorized error",
		zap.Error(err),
		zap.String("category", category.String()))
	return category
}

// Classify builds a record for err, falling back to the stage's own category
// when no sentinel identifies it
func (eh *ErrorHandler) Classify(err error, stage string, fallback ErrorCategory) ErrorRecord {
	category := eh.CategorizeError(err)
	if category == ErrorCategoryNone {
		category = fallback
	}
	return NewErrorRecord(err, category).WithStage(stage)
}

// HandleError records the failure and tells the caller how to go on
func (eh *ErrorHandler) HandleError(record ErrorRecord) Action {
	eh.RecordError(record)

	switch record.Category {
	case ErrorCategoryNone, ErrorCategoryParseFailure, ErrorCategoryInteractiveInput, ErrorCategoryConversionFailure:
		return ActionContinue
	case ErrorCategoryRender, ErrorCategoryExternalService:
		return ActionSkipStage
	case ErrorCategoryInvalidInput, ErrorCategoryStorage, ErrorCategoryCancelled:
		return ActionAbort
	default:
		return ActionContinue
	}
}

// RecordError saves an error occurrence
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++
	if samples := eh.sampleErrors[record.Category]; len(samples) < eh.maxSamples {
		eh.sampleErrors[record.Category] = append(samples, record)
	}
	if record.Stage != "" {
		eh.stageErrors[record.Stage]++
	}

	logLevel := zap.ErrorLevel
	switch record.Category {
	case ErrorCategoryParseFailure, ErrorCategoryInteractiveInput:
		logLevel = zap.InfoLevel
	case ErrorCategoryConversionFailure, ErrorCategoryRender, ErrorCategoryExternalService:
		logLevel = zap.WarnLevel
	}

	eh.logger.Log(logLevel, "Pipeline error",
		zap.String("category", record.Category.String()),
		zap.String("stage", record.Stage),
		zap.String("column", record.Column),
		zap.String("error", record.Message))
}

// GetErrorSummary returns a copy of the error counts
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int, len(eh.errorCounts))
	for category, count := range eh.errorCounts {
		summary[category] = count
	}
	return summary
}

// GetErrorSamples returns sample errors for each category
func (eh *ErrorHandler) GetErrorSamples() map[ErrorCategory][]ErrorRecord {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	samples := make(map[ErrorCategory][]ErrorRecord, len(eh.sampleErrors))
	for category, records := range eh.sampleErrors {
		samples[category] = append([]ErrorRecord(nil), records...)
	}
	return samples
}

// GetStageErrorCounts returns error counts by stage
func (eh *ErrorHandler) GetStageErrorCounts() map[string]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	counts := make(map[string]int, len(eh.stageErrors))
	for stage, count := range eh.stageErrors {
		counts[stage] = count
	}
	return counts
}

// Total returns the number of recorded errors
func (eh *ErrorHandler) Total() int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	total := 0
	for _, count := range eh.errorCounts {
		total += count
	}
	return total
}

// WrapError creates a new error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
