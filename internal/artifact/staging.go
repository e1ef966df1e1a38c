package artifact

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
)

// Staging is an isolated sibling directory that replaces the output
// directory only when a build succeeds.
type Staging struct {
	output string
	dir    string
}

// BeginStaging creates a fresh staging directory next to output.
func BeginStaging(output string) (*Staging, error) {
	dir := output + "_stage"
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clear staging directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	slog.Debug("Initialized staging directory", logfields.Dir(dir), slog.String("final", output))
	return &Staging{output: output, dir: dir}, nil
}

// Dir is where artifacts are written until Promote.
func (s *Staging) Dir() string { return s.dir }

// Promote swaps the staging directory into place. The previous output is
// moved aside and removed.
func (s *Staging) Promote() error {
	if s.dir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}
	prev := s.output + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove previous backup: %w", err)
	}
	if _, err := os.Stat(s.output); err == nil {
		if err := os.Rename(s.output, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(s.dir, s.output); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	s.dir = ""
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Dir(prev), logfields.Error(err))
	}
	slog.Info("Promoted staging directory", logfields.Dir(s.output))
	return nil
}

// Abort removes the staging directory, leaving the output untouched.
func (s *Staging) Abort() {
	if s.dir == "" {
		return
	}
	dir := s.dir
	s.dir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", logfields.Dir(dir), logfields.Error(err))
		return
	}
	slog.Debug("Removed staging directory after abort", logfields.Dir(dir))
}
