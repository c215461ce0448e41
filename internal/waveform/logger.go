package waveform

import (
	"sync"

	"github.com/tphakala/seismo-go/internal/logger"
)

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the waveform module logger.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("waveform")
	})
	return serviceLogger
}
