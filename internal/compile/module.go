package compile

import (
	"encoding/json"
	"fmt"
	"io"
)

// Module is a compiled document. Metadata-only modules carry no TOC,
// declarations or body.
type Module struct {
	Path         string    `json:"path"`
	Locale       string    `json:"locale,omitempty"`
	Mode         Mode      `json:"mode"`
	Metadata     Metadata  `json:"metadata"`
	TOC          []Heading `json:"toc,omitempty"`
	Declarations []string  `json:"declarations,omitempty"`
	Components   []string  `json:"components,omitempty"`
	Body         string    `json:"body,omitempty"`
}

// Render writes the module's render entry point.
func (m *Module) Render(w io.Writer) error {
	if m.Mode != ModeFull {
		return ErrNoRenderEntry
	}
	_, err := io.WriteString(w, m.Body)
	return err
}

// Encode returns the module's codegen bytes. Output is deterministic for
// a given module.
func (m *Module) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode module %s: %w", m.Path, err)
	}
	return data, nil
}

// Decode restores a module produced by Encode.
func Decode(data []byte) (*Module, error) {
	var m Module
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	if m.Mode != ModeFull && m.Mode != ModeMetadata {
		return nil, fmt.Errorf("decode module %s: unknown mode %q", m.Path, m.Mode)
	}
	return &m, nil
}
