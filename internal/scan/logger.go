package scan

import (
	"sync"

	"github.com/tphakala/seismo-go/internal/logger"
)

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the scan module logger.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("scan")
	})
	return serviceLogger
}
