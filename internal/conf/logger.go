package conf

import "github.com/tphakala/seismo-go/internal/logger"

// GetLogger returns the config module logger. It is fetched on every call
// because the central logger is installed after configuration is loaded.
func GetLogger() logger.Logger {
	return logger.Global().Module("conf")
}
