package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/seismo-go/internal/buildinfo"
	"github.com/tphakala/seismo-go/internal/conf"
)

func TestRootCommand_Structure(t *testing.T) {
	root := RootCommand(buildinfo.NewContext("1.0.0", "2024-03-01", "test"))

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"scan", "inspect", "config"})

	for name := range flagKeys {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "flag --%s", name)
	}
	for name := range negatedFlags {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "flag --%s", name)
	}
	assert.Equal(t, "1.0.0", root.Version)
}

func TestApplyNegatedFlags(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Reset()

	root := RootCommand(buildinfo.NewContext("", "", "test"))
	flags := root.PersistentFlags()
	require.NoError(t, flags.Parse([]string{"--no-filter"}))

	require.NoError(t, applyNegatedFlags(flags))
	assert.False(t, viper.GetBool("scan.preprocess.filter"))
	assert.False(t, viper.IsSet("scan.preprocess.detrend"))
}

func TestInitLogging_Debug(t *testing.T) {
	settings := &conf.Settings{Debug: true}
	require.NoError(t, initLogging(settings))
	assert.Empty(t, settings.Logging.DefaultLevel, "settings are not modified")
}
