package pipeline

import (
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunMetrics tracks one pipeline run
type RunMetrics struct {
	mu     sync.Mutex
	logger *zap.Logger

	RunID     string
	Source    string
	CacheHit  bool
	StartTime time.Time
	EndTime   time.Time

	RowsLoaded        int
	ColumnsDeleted    int
	ColumnsManual     int
	CleaningOps       int
	OperationsDropped int
	ParseFailures     int
	RuleCounts        map[string]int

	ChartsWritten int
	MapsWritten   int
	FilesExported int
	RowsSunk      int64

	PeakMemoryUsage int64
	ErrorCounts     map[ErrorCategory]int
	Stages          []StageResult
}

// NewRunMetrics creates a tracker with a fresh run ID
func NewRunMetrics(logger *zap.Logger) *RunMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunMetrics{
		logger:      logger,
		RunID:       uuid.New().String(),
		StartTime:   time.Now(),
		RuleCounts:  make(map[string]int),
		ErrorCounts: make(map[ErrorCategory]int),
	}
}

// RecordStage folds a finished job into the run totals
func (m *RunMetrics) RecordStage(result StageResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Stages = append(m.Stages, result)
	for _, e := range result.Errors {
		m.ErrorCounts[e.Category]++
	}
	switch result.Stage {
	case StageMaps:
		m.MapsWritten += len(result.Outputs)
	case StageExport:
		m.FilesExported += len(result.Outputs)
	case StagePostgres:
		m.RowsSunk += result.Rows
	case StageWaste, StageAccidents, StageShotgun:
		m.ChartsWritten += len(result.Outputs)
	}
	m.sampleMemory()

	m.logger.Info("Stage completed",
		zap.String("stage", result.Stage),
		zap.String("job", result.Name),
		zap.Bool("success", result.Success),
		zap.Int("outputs", len(result.Outputs)),
		zap.Duration("duration", result.Duration))
}

// sampleMemory tracks the peak heap size; callers hold the lock
func (m *RunMetrics) sampleMemory() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	if alloc := int64(memStats.Alloc); alloc > m.PeakMemoryUsage {
		m.PeakMemoryUsage = alloc
	}
}

// Complete marks the run as finished
func (m *RunMetrics) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EndTime = time.Now()
	m.sampleMemory()

	m.logger.Info("Run completed",
		zap.String("runID", m.RunID),
		zap.Duration("totalDuration", m.duration()),
		zap.Int("rows", m.RowsLoaded),
		zap.Int("charts", m.ChartsWritten),
		zap.Int("maps", m.MapsWritten),
		zap.Int("exports", m.FilesExported))
}

// Duration returns the run's duration so far
func (m *RunMetrics) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration()
}

func (m *RunMetrics) duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// FailedStages returns the names of jobs that recorded errors
func (m *RunMetrics) FailedStages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, s := range m.Stages {
		if !s.Success {
			name := s.Stage
			if s.Name != "" {
				name += ": " + s.Name
			}
			out = append(out, name)
		}
	}
	return out
}

// GetErrorDistribution returns error distribution by category in percent
func (m *RunMetrics) GetErrorDistribution() map[ErrorCategory]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorDistribution()
}

func (m *RunMetrics) errorDistribution() map[ErrorCategory]float64 {
	distribution := make(map[ErrorCategory]float64)
	total := 0
	for _, count := range m.ErrorCounts {
		total += count
	}
	if total == 0 {
		return distribution
	}
	for category, count := range m.ErrorCounts {
		distribution[category] = getPercentage(float64(count), float64(total))
	}
	return distribution
}

// formatBytes converts bytes to a human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// getPercentage safely calculates a percentage, avoiding division by zero
func getPercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * 100
}

// GenerateMetricsReport creates a human-readable run report
func (m *RunMetrics) GenerateMetricsReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.EndTime
	if end.IsZero() {
		end = time.Now()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`
PRTR Cleaning Run Report
========================
Run ID:                  %s
Source:                  %s
Cached table used:       %t
Duration:                %s
Start Time:              %s
End Time:                %s

Cleaning
--------
Rows:                    %d
Columns deleted:         %d
Columns for manual fix:  %d
Cleaning operations:     %d (%d not recorded)
Values left unparsed:    %d

Outputs
-------
Charts:                  %d
Maps:                    %d
Exported files:          %d
Rows sent to Postgres:   %d
Peak Memory Usage:       %s
`,
		m.RunID,
		m.Source,
		m.CacheHit,
		formatDuration(m.duration()),
		m.StartTime.Format(time.RFC3339),
		end.Format(time.RFC3339),

		m.RowsLoaded,
		m.ColumnsDeleted,
		m.ColumnsManual,
		m.CleaningOps, m.OperationsDropped,
		m.ParseFailures,

		m.ChartsWritten,
		m.MapsWritten,
		m.FilesExported,
		m.RowsSunk,
		formatBytes(m.PeakMemoryUsage),
	))

	if len(m.RuleCounts) > 0 {
		sb.WriteString("\nReconciliation Rules\n--------------------\n")
		rules := make([]string, 0, len(m.RuleCounts))
		for rule := range m.RuleCounts {
			rules = append(rules, rule)
		}
		sort.Strings(rules)
		for _, rule := range rules {
			sb.WriteString(fmt.Sprintf("- %s: %d\n", rule, m.RuleCounts[rule]))
		}
	}

	if len(m.ErrorCounts) > 0 {
		sb.WriteString("\nError Distribution\n------------------\n")
		categories := make([]ErrorCategory, 0, len(m.ErrorCounts))
		for category := range m.ErrorCounts {
			categories = append(categories, category)
		}
		sort.Slice(categories, func(a, b int) bool { return categories[a] < categories[b] })
		distribution := m.errorDistribution()
		for _, category := range categories {
			sb.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n",
				category, m.ErrorCounts[category], distribution[category]))
		}
	}

	sb.WriteString("\nStages\n------\n")
	for _, s := range m.Stages {
		status := "ok"
		if !s.Success {
			status = "failed"
		}
		name := s.Stage
		if s.Name != "" {
			name += ": " + s.Name
		}
		sb.WriteString(fmt.Sprintf("- %s: %s, %d outputs, %s\n", name, status, len(s.Outputs), formatDuration(s.Duration)))
	}

	return sb.String()
}

// ToJSON serializes metrics to JSON
func (m *RunMetrics) ToJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type stage struct {
		Stage    string   `json:"stage"`
		Name     string   `json:"name,omitempty"`
		Success  bool     `json:"success"`
		Outputs  []string `json:"outputs"`
		Errors   []string `json:"errors,omitempty"`
		Duration string   `json:"duration"`
	}
	stages := make([]stage, len(m.Stages))
	for i, s := range m.Stages {
		errs := make([]string, len(s.Errors))
		for j, e := range s.Errors {
			errs[j] = e.String()
		}
		stages[i] = stage{
			Stage:    s.Stage,
			Name:     s.Name,
			Success:  s.Success,
			Outputs:  s.Outputs,
			Errors:   errs,
			Duration: formatDuration(s.Duration),
		}
	}

	return json.MarshalIndent(struct {
		RunID             string                    `json:"runId"`
		Source            string                    `json:"source"`
		CacheHit          bool                      `json:"cacheHit"`
		Duration          string                    `json:"duration"`
		RowsLoaded        int                       `json:"rowsLoaded"`
		ColumnsDeleted    int                       `json:"columnsDeleted"`
		ColumnsManual     int                       `json:"columnsManual"`
		CleaningOps       int                       `json:"cleaningOperations"`
		ParseFailures     int                       `json:"parseFailures"`
		RuleCounts        map[string]int            `json:"ruleCounts"`
		ChartsWritten     int                       `json:"chartsWritten"`
		MapsWritten       int                       `json:"mapsWritten"`
		FilesExported     int                       `json:"filesExported"`
		RowsSunk          int64                     `json:"rowsSunk"`
		ErrorCounts       map[ErrorCategory]int     `json:"errorCounts"`
		ErrorDistribution map[ErrorCategory]float64 `json:"errorDistribution"`
		Stages            []stage                   `json:"stages"`
	}{
		RunID:             m.RunID,
		Source:            m.Source,
		CacheHit:          m.CacheHit,
		Duration:          formatDuration(m.duration()),
		RowsLoaded:        m.RowsLoaded,
		ColumnsDeleted:    m.ColumnsDeleted,
		ColumnsManual:     m.ColumnsManual,
		CleaningOps:       m.CleaningOps,
		ParseFailures:     m.ParseFailures,
		RuleCounts:        m.RuleCounts,
		ChartsWritten:     m.ChartsWritten,
		MapsWritten:       m.MapsWritten,
		FilesExported:     m.FilesExported,
		RowsSunk:          m.RowsSunk,
		ErrorCounts:       m.ErrorCounts,
		ErrorDistribution: m.errorDistribution(),
		Stages:            stages,
	}, "", "  ")
}
