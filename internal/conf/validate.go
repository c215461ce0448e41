package conf

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tphakala/seismo-go/internal/logger"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateModelSettings(&settings.Model)...)
	ve.Errors = append(ve.Errors, validateScanSettings(&settings.Scan)...)
	ve.Errors = append(ve.Errors, validateOutputSettings(&settings.Output)...)

	if settings.Input.Workers < 1 {
		ve.Errors = append(ve.Errors, "input.workers must be at least 1")
	}
	if settings.Input.CacheTTL < 0 {
		ve.Errors = append(ve.Errors, "input.cachettl must not be negative")
	}
	if settings.Telemetry.Sentry.Enabled && settings.Telemetry.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "telemetry.sentry.dsn is required when sentry is enabled")
	}

	for _, w := range Warnings(settings) {
		GetLogger().Warn("Configuration warning", logger.String("warning", w))
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// Warnings returns settings that are valid but make part of a run a no-op.
func Warnings(settings *Settings) []string {
	var warns []string
	s := &settings.Scan
	if s.BatchSize > 0 && s.Features > 0 && s.BatchSize < s.Features {
		warns = append(warns, fmt.Sprintf("scan.batchsize %d is shorter than one window of %d samples; every batch will be skipped", s.BatchSize, s.Features))
	}
	return warns
}

func validateModelSettings(m *ModelSettings) []string {
	var errs []string

	switch m.Type {
	case ModelTransformer, ModelFavor, ModelCNN:
	case ModelCustom:
		if m.Path == "" {
			errs = append(errs, "model.path is required for custom models")
		}
	default:
		errs = append(errs, fmt.Sprintf("model.type %q is not one of transformer, favor, cnn, custom", m.Type))
	}

	if m.Threads < 0 {
		errs = append(errs, "model.threads must not be negative")
	}
	if m.InferenceBatch < 1 {
		errs = append(errs, "model.inferencebatch must be at least 1")
	}
	return errs
}

func validateScanSettings(s *ScanSettings) []string {
	var errs []string

	if s.BatchSize <= 0 {
		errs = append(errs, "scan.batchsize must be positive")
	}
	if s.Features <= 0 {
		errs = append(errs, "scan.features must be positive")
	}
	if s.WindowStep <= 0 {
		errs = append(errs, "scan.windowstep must be positive")
	}
	if s.Frequency <= 0 {
		errs = append(errs, "scan.frequency must be positive")
	}

	// Per-phase thresholds are used together or not at all.
	if (s.ThresholdP > 0) != (s.ThresholdS > 0) {
		errs = append(errs, "scan.thresholdp and scan.thresholds must be set together")
	}
	for name, v := range map[string]float64{"scan.threshold": s.Threshold, "scan.thresholdp": s.ThresholdP, "scan.thresholds": s.ThresholdS} {
		if name != "scan.threshold" && v == 0 {
			continue
		}
		if v <= 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be in (0, 1], got %g", name, v))
		}
	}

	if s.Preprocess.Filter {
		if s.Preprocess.HighpassHz <= 0 {
			errs = append(errs, "scan.preprocess.highpasshz must be positive")
		}
		if s.Frequency > 0 && s.Preprocess.HighpassHz >= s.Frequency/2 {
			errs = append(errs, "scan.preprocess.highpasshz must be below the Nyquist frequency")
		}
		if s.Preprocess.Passes < 1 {
			errs = append(errs, "scan.preprocess.passes must be at least 1")
		}
	}
	return errs
}

func validateOutputSettings(o *OutputSettings) []string {
	var errs []string

	if o.File.Enabled {
		if o.File.Path == "" {
			errs = append(errs, "output.file.path is required")
		}
		if o.File.Type != OutputText && o.File.Type != OutputCSV {
			errs = append(errs, fmt.Sprintf("output.file.type %q is not text or csv", o.File.Type))
		}
		if o.File.Precision < 0 || o.File.Precision > 10 {
			errs = append(errs, "output.file.precision must be between 0 and 10")
		}
	}

	if o.SQLite.Enabled && o.MySQL.Enabled {
		errs = append(errs, "only one of output.sqlite and output.mysql can be enabled")
	}
	if o.SQLite.Enabled && o.SQLite.Path == "" {
		errs = append(errs, "output.sqlite.path is required")
	}
	if o.MySQL.Enabled && (o.MySQL.Host == "" || o.MySQL.Database == "") {
		errs = append(errs, "output.mysql.host and output.mysql.database are required")
	}

	if o.MQTT.Enabled {
		u, err := url.Parse(o.MQTT.Broker)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("output.mqtt.broker %q is not a valid broker URL", o.MQTT.Broker))
		}
		if o.MQTT.Topic == "" {
			errs = append(errs, "output.mqtt.topic is required")
		}
		if o.MQTT.QoS < 0 || o.MQTT.QoS > 2 {
			errs = append(errs, "output.mqtt.qos must be 0, 1 or 2")
		}
	}
	return errs
}
