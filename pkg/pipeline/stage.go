package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Stage names used in results, metrics and error records
const (
	StageLoad        = "load"
	StageTypist      = "typist"
	StageCache       = "cache"
	StageReconcile   = "reconcile"
	StageAudit       = "audit"
	StageWaste       = "waste chart"
	StageAccidents   = "accident analysis"
	StageShotgun     = "accident comparison"
	StageGeocode     = "geocode"
	StageMaps        = "industry maps"
	StageExport      = "export"
	StagePostgres    = "postgres sink"
	StageMetrics     = "metrics report"
	StageVariability = "variability"
)

// StageJob is one unit of pipeline work
type StageJob struct {
	ID        string    // Unique job identifier
	Stage     string    // Stage the job belongs to
	Name      string    // What the job produces
	CreatedAt time.Time // Job creation timestamp
}

// NewStageJob creates a new job with a fresh ID
func NewStageJob(stage, name string) StageJob {
	return StageJob{
		ID:        uuid.New().String(),
		Stage:     stage,
		Name:      name,
		CreatedAt: time.Now(),
	}
}

// FullName returns the stage and job name
func (j StageJob) FullName() string {
	if j.Name == "" {
		return j.Stage
	}
	return j.Stage + ": " + j.Name
}

// StageResult represents the outcome of a job
type StageResult struct {
	JobID     string
	Stage     string
	Name      string
	Success   bool
	Outputs   []string // files written
	Rows      int64
	Errors    []ErrorRecord
	Warnings  []string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// NewStageResult initializes a result for a job
func NewStageResult(job StageJob) *StageResult {
	return &StageResult{
		JobID:     job.ID,
		Stage:     job.Stage,
		Name:      job.Name,
		StartTime: time.Now(),
		Outputs:   make([]string, 0),
		Errors:    make([]ErrorRecord, 0),
		Warnings:  make([]string, 0),
	}
}

// Complete marks the job as done and calculates duration. A job with errors
// never counts as successful.
func (r *StageResult) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = len(r.Errors) == 0
}

// AddOutput records a file the job wrote
func (r *StageResult) AddOutput(paths ...string) {
	r.Outputs = append(r.Outputs, paths...)
}

// AddError adds an error to the result
func (r *StageResult) AddError(err ErrorRecord) {
	r.Errors = append(r.Errors, err)
}

// AddWarning adds a warning to the result
func (r *StageResult) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// HasErrors checks if any errors occurred
func (r *StageResult) HasErrors() bool {
	return len(r.Errors) > 0
}
