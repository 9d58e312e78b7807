package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uievolve/uievolve/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uievolve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWithFileOverlay(t *testing.T) {
	path := writeConfig(t, `
target_url: https://app.test/
engine:
  population_size: 8
  generations: 5
  execution_timeout: 15s
fitness:
  weights:
    error: 10.0
browser:
  headless: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://app.test/", cfg.TargetURL)
	assert.Equal(t, 8, cfg.Engine.PopulationSize)
	assert.Equal(t, 5, cfg.Engine.Generations)
	assert.Equal(t, 15*time.Second, cfg.Engine.ExecutionTimeout)
	assert.Equal(t, 10.0, cfg.Fitness.Weights.Error)
	assert.False(t, cfg.Browser.Headless)

	// Untouched knobs keep their defaults.
	assert.Equal(t, Default().Engine.TournamentSize, cfg.Engine.TournamentSize)
	assert.Equal(t, Default().Fitness.Weights.URL, cfg.Fitness.Weights.URL)

	// The browser session always starts at the evolution target.
	assert.Equal(t, cfg.TargetURL, cfg.Browser.StartURL)
}

func TestValidateRequiresTargetURL(t *testing.T) {
	path := writeConfig(t, "engine:\n  population_size: 4\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)

	var domainErr *errors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, errors.InvalidConfig, domainErr.Code())
}

func TestLoadLeavesRoomForFlagOverrides(t *testing.T) {
	// No config file and no environment: Load must still succeed so the
	// CLI can supply the target URL afterwards.
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.TargetURL)

	cfg.TargetURL = "https://app.test/"
	cfg.Browser.StartURL = cfg.TargetURL
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var domainErr *errors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, errors.InvalidConfig, domainErr.Code())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "target_url: https://app.test/\nengine:\n  generations: 5\n")

	t.Setenv(EnvPrefix+"GENERATIONS", "9")
	t.Setenv(EnvPrefix+"HEADLESS", "false")
	t.Setenv(EnvPrefix+"LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Engine.Generations)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvironmentRejectsMalformedValue(t *testing.T) {
	path := writeConfig(t, "target_url: https://app.test/\n")
	t.Setenv(EnvPrefix+"POPULATION_SIZE", "plenty")

	_, err := Load(path)
	require.Error(t, err)

	var domainErr *errors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, errors.InvalidConfig, domainErr.Code())
}

func TestUnknownEnvironmentKeysAreIgnored(t *testing.T) {
	path := writeConfig(t, "target_url: https://app.test/\n")
	t.Setenv(EnvPrefix+"SOMETHING_ELSE", "whatever")

	_, err := Load(path)
	assert.NoError(t, err)
}

func TestValidateRejectsNegativeWeights(t *testing.T) {
	cfg := Default()
	cfg.TargetURL = "https://app.test/"
	cfg.Fitness.Weights.Error = -1

	err := cfg.Validate()
	require.Error(t, err)

	var domainErr *errors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, errors.InvalidConfig, domainErr.Code())
}
