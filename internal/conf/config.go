// Package conf loads and validates seismo-go configuration.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// ModelSettings selects and tunes the phase classifier.
type ModelSettings struct {
	Type           string // transformer, favor, cnn or custom
	Dir            string // directory holding built-in model files
	Path           string // explicit model file, required for custom
	Threads        int    // interpreter threads, 0 for automatic
	UseXNNPACK     bool   // use the XNNPACK delegate
	InferenceBatch int    // windows per interpreter invocation
	Normalize      bool   // scale every window by its peak amplitude
}

// PreprocessSettings controls per-trace conditioning before scanning.
type PreprocessSettings struct {
	Detrend    bool    // remove the least squares linear trend
	Filter     bool    // apply the high-pass filter
	HighpassHz float64 // high-pass corner frequency
	Passes     int     // filter passes, each pass adds 12 dB/octave
}

// ScanSettings are the pipeline parameters.
type ScanSettings struct {
	BatchSize    int     // samples per batch
	Threshold    float64 // threshold for both positive phases
	ThresholdP   float64 // P threshold, 0 means use Threshold
	ThresholdS   float64 // S threshold, 0 means use Threshold
	Frequency    float64 // frequency used to convert sample offsets to time
	Features     int     // window length in samples
	WindowStep   int     // samples between window starts
	KeepOriginal bool    // carry unprocessed traces for amplitude reporting
	MemoryCheck  bool    // warn when a batch may not fit in available memory
	Preprocess   PreprocessSettings
}

// InputSettings control archive loading.
type InputSettings struct {
	ArchiveList string        `yaml:"-"` // archive list path, runtime value
	Workers     int           // files decoded in parallel per archive
	CacheTTL    time.Duration // decoded file cache lifetime, 0 disables
}

// FileOutputSettings is the predictions file.
type FileOutputSettings struct {
	Enabled   bool
	Path      string // predictions file path
	Type      string // text or csv
	Precision int    // digits after the decimal point for scores
	Append    bool   // append to an existing file instead of truncating
}

type SQLiteSettings struct {
	Enabled bool
	Path    string
}

type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Host     string
	Port     string
	Database string
}

type MQTTSettings struct {
	Enabled   bool
	Broker    string // e.g. tcp://localhost:1883
	Topic     string
	Username  string
	Password  string
	ClientID  string
	QoS       int
	Retain    bool
	RateLimit float64 // messages per second, 0 for unlimited
}

type OutputSettings struct {
	File   FileOutputSettings
	SQLite SQLiteSettings
	MySQL  MySQLSettings
	MQTT   MQTTSettings
}

type MetricsSettings struct {
	Enabled bool
	Listen  string // address for the /metrics endpoint
}

type SentrySettings struct {
	Enabled bool
	DSN     string
}

type TelemetrySettings struct {
	Metrics MetricsSettings
	Sentry  SentrySettings
}

// Settings is the root configuration.
type Settings struct {
	Debug bool // true to enable debug logging

	// Runtime values, not stored in config file
	Version   string `yaml:"-"`
	BuildDate string `yaml:"-"`

	Main struct {
		Name string // node name stored with every scan run
	}

	Logging   logger.LoggingConfig
	Model     ModelSettings
	Scan      ScanSettings
	Input     InputSettings
	Output    OutputSettings
	Telemetry TelemetrySettings
}

// PhaseThresholds returns the effective P and S thresholds.
func (s *ScanSettings) PhaseThresholds() (thrP, thrS float64) {
	if s.ThresholdP > 0 && s.ThresholdS > 0 {
		return s.ThresholdP, s.ThresholdS
	}
	return s.Threshold, s.Threshold
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads configuration from configFile, or from the default search
// paths when configFile is empty. A default config.yaml is written to the
// first search path if none exists.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error validating settings: %w", err)).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}

	settingsInstance = settings
	return settingsInstance, nil
}

func initViper(configFile string) error {
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("SEISMO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaultConfig()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// createDefaultConfig writes the embedded default config into dir and reads it.
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded config: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	return viper.ReadInConfig()
}

// GetSettings returns the settings from the last successful Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Dump renders settings as YAML with credentials masked.
func Dump(settings *Settings) ([]byte, error) {
	masked := *settings
	if masked.Output.MySQL.Password != "" {
		masked.Output.MySQL.Password = "********"
	}
	if masked.Output.MQTT.Password != "" {
		masked.Output.MQTT.Password = "********"
	}
	if masked.Telemetry.Sentry.DSN != "" {
		masked.Telemetry.Sentry.DSN = "********"
	}
	return yaml.Marshal(&masked)
}
