// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("main.name", "seismo-go")

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/seismo-go.log")
	viper.SetDefault("logging.file_output.level", "info")

	viper.SetDefault("model.type", ModelTransformer)
	viper.SetDefault("model.dir", "model")
	viper.SetDefault("model.path", "")
	viper.SetDefault("model.threads", 0)
	viper.SetDefault("model.usexnnpack", false)
	viper.SetDefault("model.inferencebatch", DefaultInferenceBatch)
	viper.SetDefault("model.normalize", true)

	viper.SetDefault("scan.batchsize", DefaultBatchSize)
	viper.SetDefault("scan.threshold", DefaultThreshold)
	viper.SetDefault("scan.thresholdp", 0.0)
	viper.SetDefault("scan.thresholds", 0.0)
	viper.SetDefault("scan.frequency", DefaultFrequency)
	viper.SetDefault("scan.features", DefaultFeatures)
	viper.SetDefault("scan.windowstep", DefaultWindowStep)
	viper.SetDefault("scan.keeporiginal", false)
	viper.SetDefault("scan.memorycheck", true)
	viper.SetDefault("scan.preprocess.detrend", true)
	viper.SetDefault("scan.preprocess.filter", true)
	viper.SetDefault("scan.preprocess.highpasshz", DefaultHighpassHz)
	viper.SetDefault("scan.preprocess.passes", DefaultFilterPasses)

	viper.SetDefault("input.workers", 3)
	viper.SetDefault("input.cachettl", 5*time.Minute)

	viper.SetDefault("output.file.enabled", true)
	viper.SetDefault("output.file.path", "predictions.txt")
	viper.SetDefault("output.file.type", OutputText)
	viper.SetDefault("output.file.precision", DefaultPrecision)
	viper.SetDefault("output.file.append", false)

	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "seismo.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
	viper.SetDefault("output.mysql.database", "seismo")

	viper.SetDefault("output.mqtt.enabled", false)
	viper.SetDefault("output.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("output.mqtt.topic", "seismo/detections")
	viper.SetDefault("output.mqtt.username", "")
	viper.SetDefault("output.mqtt.password", "")
	viper.SetDefault("output.mqtt.clientid", "seismo-go")
	viper.SetDefault("output.mqtt.qos", 1)
	viper.SetDefault("output.mqtt.retain", false)
	viper.SetDefault("output.mqtt.ratelimit", 0.0)

	viper.SetDefault("telemetry.metrics.enabled", false)
	viper.SetDefault("telemetry.metrics.listen", "localhost:9090")
	viper.SetDefault("telemetry.sentry.enabled", false)
	viper.SetDefault("telemetry.sentry.dsn", "")
}
