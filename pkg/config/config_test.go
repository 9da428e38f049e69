package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Defaults()

	assert.Equal(t, "sift", s.Detector)
	assert.False(t, s.Approximate)
	assert.InDelta(t, 0.05, s.Label.CircleScale, 1e-9)
	assert.Equal(t, 21, s.Motion.BlurSize)
	assert.Equal(t, 50, s.Motion.RefreshEvery)
	assert.Equal(t, "INFO", s.Log.Level)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	s, err := NewLoader().Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdfinder.yaml")
	content := "detector: orb\nmotion:\n  threshold: 35\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "orb", s.Detector)
	assert.InDelta(t, 35.0, s.Motion.Threshold, 1e-9)
	assert.Equal(t, "debug", s.Log.Level)
	// 未设置的键保持默认值
	assert.Equal(t, 50, s.Motion.RefreshEvery)
	assert.InDelta(t, 0.003, s.Label.LineScale, 1e-9)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdfinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detector: orb\n"), 0644))

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("detector", "sift", "")
	require.NoError(t, cmd.Flags().Set("detector", "sift"))

	l := NewLoader()
	require.NoError(t, l.BindFlag("detector", cmd, "detector"))
	assert.Error(t, l.BindFlag("detector", cmd, "nope"))

	s, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sift", s.Detector)
}
