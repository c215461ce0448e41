package conf

// Pipeline constants of the phase models. Window geometry is fixed by the
// trained networks, the models expect 4 s windows of 100 Hz data.
const (
	DefaultFrequency  = 100.0
	DefaultFeatures   = 400
	DefaultWindowStep = 10
	DefaultBatchSize  = 500_000
	DefaultThreshold  = 0.95
	DefaultPrecision  = 4

	DefaultInferenceBatch = 512
	DefaultHighpassHz     = 2.0
	DefaultFilterPasses   = 2
)

// Model types accepted in model.type.
const (
	ModelTransformer = "transformer"
	ModelFavor       = "favor"
	ModelCNN         = "cnn"
	ModelCustom      = "custom"
)

// Predictions file formats accepted in output.file.type.
const (
	OutputText = "text"
	OutputCSV  = "csv"
)

const osWindows = "windows"
