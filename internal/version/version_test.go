package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuildVars(t *testing.T, version, tag, commit, dirty string) {
	t.Helper()
	oldVersion, oldTag, oldCommit, oldDirty := Version, GitTag, GitCommit, GitDirty
	Version, GitTag, GitCommit, GitDirty = version, tag, commit, dirty
	t.Cleanup(func() {
		Version, GitTag, GitCommit, GitDirty = oldVersion, oldTag, oldCommit, oldDirty
	})
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name                        string
		version, tag, commit, dirty string
		want                        string
	}{
		{"dev build", "dev", "", "unknown", "", "dev"},
		{"tag wins", "dev", "v1.2.0", "unknown", "", "v1.2.0"},
		{"dirty", "v1.0.0", "", "unknown", "true", "v1.0.0-dirty"},
		{"dirty once", "v1.0.0-dirty", "", "unknown", "true", "v1.0.0-dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildVars(t, tt.version, tt.tag, tt.commit, tt.dirty)
			assert.Equal(t, tt.want, Info())
		})
	}
}

func TestFull(t *testing.T) {
	withBuildVars(t, "v1.0.0", "", "0123456789abcdef", "")
	assert.Equal(t, "v1.0.0 (0123456)", Full())

	withBuildVars(t, "v1.0.0", "", "abc", "")
	assert.Equal(t, "v1.0.0 (abc)", Full())

	withBuildVars(t, "v1.0.0", "", "unknown", "")
	assert.Equal(t, "v1.0.0", Full())
}

func TestUserAgent(t *testing.T) {
	withBuildVars(t, "v2.0.0", "", "unknown", "")
	assert.Equal(t, "agentdeck/v2.0.0", UserAgent())
	assert.True(t, GetBuildInfo().GoVersion != "")
}
