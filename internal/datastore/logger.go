package datastore

import (
	"sync"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/tphakala/seismo-go/internal/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the datastore module logger.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("datastore")
	})
	return serviceLogger
}

func createGormLogger() gormlogger.Interface {
	return logger.NewGormLoggerAdapter(GetLogger(), slowQueryThreshold)
}
