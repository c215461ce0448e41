// Package cmd wires the seismo-go command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tphakala/seismo-go/cmd/config"
	"github.com/tphakala/seismo-go/cmd/inspect"
	"github.com/tphakala/seismo-go/cmd/scan"
	"github.com/tphakala/seismo-go/internal/buildinfo"
	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/logger"
)

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"debug":           "debug",
	"threshold":       "scan.threshold",
	"threshold-p":     "scan.thresholdp",
	"threshold-s":     "scan.thresholds",
	"batch-size":      "scan.batchsize",
	"keep-original":   "scan.keeporiginal",
	"model":           "model.path",
	"model-type":      "model.type",
	"out":             "output.file.path",
	"format":          "output.file.type",
	"print-precision": "output.file.precision",
}

// negatedFlags switch a configuration key off when set.
var negatedFlags = map[string]string{
	"no-filter":  "scan.preprocess.filter",
	"no-detrend": "scan.preprocess.detrend",
}

// RootCommand creates the root command and its subcommands.
func RootCommand(build *buildinfo.Context) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "seismo-go",
		Short:         "Seismic phase picker for continuous waveform archives",
		Version:       build.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(build.String() + "\n")

	setupFlags(rootCmd.PersistentFlags(), &configFile)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := applyNegatedFlags(cmd.Flags()); err != nil {
			return err
		}
		settings, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		settings.Version = build.GetVersion()
		settings.BuildDate = build.GetBuildDate()
		return initLogging(settings)
	}
	rootCmd.PersistentPostRun = func(*cobra.Command, []string) {
		_ = logger.Global().Close()
	}

	rootCmd.AddCommand(
		scan.Command(build),
		inspect.Command(),
		config.Command(),
	)
	return rootCmd
}

func setupFlags(flags *pflag.FlagSet, configFile *string) {
	flags.StringVarP(configFile, "config", "c", "", "Path to the configuration file")
	flags.BoolP("debug", "d", false, "Enable debug output and per-batch timing")
	flags.Float64P("threshold", "t", conf.DefaultThreshold, "Detection threshold for both P and S")
	flags.Float64("threshold-p", 0, "P threshold, requires --threshold-s")
	flags.Float64("threshold-s", 0, "S threshold, requires --threshold-p")
	flags.Int("batch-size", conf.DefaultBatchSize, "Samples per batch")
	flags.Bool("keep-original", false, "Report peak amplitude of the unfiltered waveform")
	flags.String("model", "", "Path to the model file")
	flags.String("model-type", conf.ModelTransformer, "Model type: transformer, favor, cnn or custom")
	flags.StringP("out", "o", "", "Predictions file")
	flags.StringP("format", "f", conf.OutputText, "Predictions format: text or csv")
	flags.Int("print-precision", conf.DefaultPrecision, "Digits after the decimal point for scores")
	flags.Bool("no-filter", false, "Disable the high-pass filter")
	flags.Bool("no-detrend", false, "Disable linear detrending")

	for name, key := range flagKeys {
		// only a flag given on the command line overrides the config file
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

func applyNegatedFlags(flags *pflag.FlagSet) error {
	for name, key := range negatedFlags {
		if !flags.Changed(name) {
			continue
		}
		off, err := flags.GetBool(name)
		if err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
		if off {
			viper.Set(key, false)
		}
	}
	return nil
}

// initLogging installs the central logger. Debug mode lowers the default
// and console levels.
func initLogging(settings *conf.Settings) error {
	cfg := settings.Logging
	if settings.Debug {
		cfg.DefaultLevel = "debug"
		if cfg.Console != nil {
			console := *cfg.Console
			console.Level = "debug"
			cfg.Console = &console
		}
	}
	cl, err := logger.NewCentralLogger(&cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(cl)
	return nil
}
