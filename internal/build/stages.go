package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
)

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names.
const (
	StageScan          StageName = "scan"
	StagePageMap       StageName = "page_map"
	StageRoutes        StageName = "routes"
	StagePrepareOutput StageName = "prepare_output"
	StageCompile       StageName = "compile"
	StageFinalize      StageName = "finalize"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"
	StageErrorCanceled StageErrorKind = "canceled"
)

// StageError wraps the error that stopped a stage.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Stage is a discrete unit of work in a build.
type Stage func(ctx context.Context, st *State) error

// StageDef pairs a stage with its name.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// RunStages executes stages in order, recording timing and stopping on the
// first error.
func RunStages(ctx context.Context, st *State, defs []StageDef) error {
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			se := &StageError{Kind: StageErrorCanceled, Stage: def.Name, Err: err}
			st.Report.recordStage(def.Name, 0, se, st.recorder)
			return se
		}

		t0 := time.Now()
		err := def.Fn(ctx, st)
		dur := time.Since(t0)

		if err != nil {
			kind := StageErrorFatal
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				kind = StageErrorCanceled
			}
			se := &StageError{Kind: kind, Stage: def.Name, Err: err}
			st.Report.recordStage(def.Name, dur, se, st.recorder)
			st.logger.Error("Build stage failed", logfields.Stage(string(def.Name)), logfields.Duration(dur), logfields.Error(err))
			return se
		}
		st.Report.recordStage(def.Name, dur, nil, st.recorder)
		st.logger.Debug("Build stage complete", logfields.Stage(string(def.Name)), logfields.Duration(dur))
	}
	return nil
}

func stageLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
