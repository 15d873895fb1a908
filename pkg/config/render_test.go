package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfig_YAML(t *testing.T) {
	cfg := Default()
	cfg.Timeout = 30 * time.Minute

	out, err := cfg.YAML()
	require.NoError(t, err)

	assert.Contains(t, out, "elevation: sudo\n")
	assert.Contains(t, out, "default-mode: immediate\n")
	assert.Contains(t, out, "backends:\n  flatpak:\n    enabled: true\n")

	var decoded Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, cfg, decoded)
}

func TestConfig_DiffFromDefaults(t *testing.T) {
	t.Run("defaults have no changes", func(t *testing.T) {
		cfg := Default()

		out, err := cfg.DiffFromDefaults()
		require.NoError(t, err)

		for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
			assert.True(t, strings.HasPrefix(line, "  "), "unexpected change: %q", line)
		}
	})

	t.Run("changed fields are marked", func(t *testing.T) {
		cfg := Default()
		cfg.Elevation = "doas"
		cfg.DefaultMode = "offline"

		out, err := cfg.DiffFromDefaults()
		require.NoError(t, err)

		assert.Contains(t, out, "- elevation: sudo\n")
		assert.Contains(t, out, "+ elevation: doas\n")
		assert.Contains(t, out, "- default-mode: immediate\n")
		assert.Contains(t, out, "+ default-mode: offline\n")
		assert.Contains(t, out, "  backends:\n")
	})
}
