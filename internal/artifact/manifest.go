package artifact

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is the manifest's name inside the output directory.
const ManifestFile = "manifest.json"

// Manifest records a build's outputs.
type Manifest struct {
	BuildID   string        `json:"build_id"`
	Timestamp time.Time     `json:"timestamp"`
	Locales   []string      `json:"locales"`
	PageMaps  []string      `json:"page_maps"`
	Modules   []ModuleEntry `json:"modules"`
	Duration  int64         `json:"duration_ms"`
}

// ModuleEntry locates one compiled module.
type ModuleEntry struct {
	Route    string `json:"route"`
	Locale   string `json:"locale,omitempty"`
	Source   string `json:"source"`
	Artifact string `json:"artifact"`
	Hash     string `json:"hash"`
}

// ToJSON serializes the manifest to JSON.
func (m *Manifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// ReadManifest loads the manifest of an output directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return FromJSON(data)
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}
