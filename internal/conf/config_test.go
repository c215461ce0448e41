package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_EmbeddedDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	data, err := configFiles.ReadFile("config.yaml")
	require.NoError(t, err)

	settings, err := Load(writeConfig(t, string(data)))
	require.NoError(t, err)

	assert.Equal(t, DefaultBatchSize, settings.Scan.BatchSize)
	assert.Equal(t, DefaultFeatures, settings.Scan.Features)
	assert.Equal(t, DefaultWindowStep, settings.Scan.WindowStep)
	assert.InDelta(t, DefaultFrequency, settings.Scan.Frequency, 1e-9)
	assert.InDelta(t, DefaultThreshold, settings.Scan.Threshold, 1e-9)
	assert.Equal(t, ModelTransformer, settings.Model.Type)
	assert.Equal(t, "predictions.txt", settings.Output.File.Path)
	assert.Equal(t, DefaultPrecision, settings.Output.File.Precision)
	assert.Equal(t, 5*time.Minute, settings.Input.CacheTTL)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)
	assert.Same(t, settings, GetSettings())
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeConfig(t, `
scan:
  batchsize: 1000
  thresholdp: 0.9
  thresholds: 0.8
output:
  file:
    type: csv
`)
	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1000, settings.Scan.BatchSize)
	assert.Equal(t, OutputCSV, settings.Output.File.Type)
	// Keys absent from the file come from setDefaultConfig.
	assert.Equal(t, DefaultFeatures, settings.Scan.Features)
	assert.True(t, settings.Scan.Preprocess.Filter)

	p, s := settings.Scan.PhaseThresholds()
	assert.InDelta(t, 0.9, p, 1e-9)
	assert.InDelta(t, 0.8, s, 1e-9)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("SEISMO_SCAN_BATCHSIZE", "2000")

	settings, err := Load(writeConfig(t, "debug: true\n"))
	require.NoError(t, err)
	assert.Equal(t, 2000, settings.Scan.BatchSize)
	assert.True(t, settings.Debug)
}

func TestLoad_InvalidSettings(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	_, err := Load(writeConfig(t, "scan:\n  thresholdp: 0.9\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set together")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDump_MasksSecrets(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	s.Output.MySQL.Password = "hunter2"
	s.Output.MQTT.Password = "secret"
	s.Telemetry.Sentry.DSN = "https://key@sentry.example/1"

	out, err := Dump(s)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.NotContains(t, string(out), "secret")
	assert.NotContains(t, string(out), "sentry.example")
	assert.Equal(t, "hunter2", s.Output.MySQL.Password, "Dump must not modify its input")
}
