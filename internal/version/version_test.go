package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	v, c, b := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = v, c, b })

	Version, GitCommit, BuildTime = "v1.0.0", "unknown", "unknown"
	assert.Equal(t, "v1.0.0", Info())

	GitCommit, BuildTime = "abc123", "2026-10-19T10:00:00Z"
	assert.Equal(t, "v1.0.0 (commit abc123, built 2026-10-19T10:00:00Z)", Info())
}
