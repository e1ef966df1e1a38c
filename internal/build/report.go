package build

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/pagecompiler/internal/metrics"
	"git.home.luguber.info/inful/pagecompiler/internal/version"
)

// ReportFile is the build report's name inside the output directory.
const ReportFile = "build-report.json"

// Outcome is the final result of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report captures what a build did and how long each stage took.
type Report struct {
	BuildID         string                       `json:"build_id"`
	Version         string                       `json:"version"`
	Start           time.Time                    `json:"start"`
	End             time.Time                    `json:"end"`
	Locales         []string                     `json:"locales"`
	Documents       int                          `json:"documents"`
	Routes          map[string]int               `json:"routes"`
	Modules         int                          `json:"modules"`
	Diagnostics     []string                     `json:"diagnostics,omitempty"`
	StageDurations  map[StageName]time.Duration  `json:"stage_durations"`
	StageErrorKinds map[StageName]StageErrorKind `json:"stage_error_kinds,omitempty"`
	Errors          []error                      `json:"-"`
	Outcome         Outcome                      `json:"outcome"`
}

func newReport(buildID string, locales []string) *Report {
	return &Report{
		BuildID:         buildID,
		Version:         version.Version,
		Start:           time.Now(),
		Locales:         locales,
		Routes:          map[string]int{},
		StageDurations:  map[StageName]time.Duration{},
		StageErrorKinds: map[StageName]StageErrorKind{},
	}
}

func (r *Report) recordStage(stage StageName, d time.Duration, se *StageError, recorder metrics.Recorder) {
	r.StageDurations[stage] = d
	recorder.ObserveStageDuration(string(stage), d)
	if se == nil {
		recorder.IncStageResult(string(stage), metrics.ResultSuccess)
		return
	}
	r.StageErrorKinds[stage] = se.Kind
	r.Errors = append(r.Errors, se)
	if se.Kind == StageErrorCanceled {
		recorder.IncStageResult(string(stage), metrics.ResultCanceled)
		return
	}
	recorder.IncStageResult(string(stage), metrics.ResultFatal)
}

// Finish sets the end time and derives the outcome.
func (r *Report) Finish() {
	r.End = time.Now()
	r.Outcome = OutcomeSuccess
	for _, e := range r.Errors {
		var se *StageError
		if errors.As(e, &se) && se.Kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
		r.Outcome = OutcomeFailed
	}
}

// Duration is the wall time between start and finish.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	routes := 0
	for _, n := range r.Routes {
		routes += n
	}
	return fmt.Sprintf("build=%s locales=%d documents=%d routes=%d modules=%d diagnostics=%d duration=%s outcome=%s",
		r.BuildID, len(r.Locales), r.Documents, routes, r.Modules, len(r.Diagnostics),
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

func (r *Report) outcomeLabel() metrics.BuildOutcomeLabel {
	switch r.Outcome {
	case OutcomeSuccess:
		return metrics.BuildOutcomeSuccess
	case OutcomeCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}

// Persist writes the report atomically into dir.
func (r *Report) Persist(dir string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	p := filepath.Join(dir, ReportFile)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("atomic rename report: %w", err)
	}
	return nil
}
