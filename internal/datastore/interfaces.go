// Package datastore persists scan runs and their detections with GORM on
// SQLite or MySQL.
package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/logger"
	"github.com/tphakala/seismo-go/internal/scan"
)

// Interface abstracts the database backend.
type Interface interface {
	Open() error
	Close() error
	BeginRun(run scan.Run) (*ScanRun, error)
	SaveDetections(runID uint, detections []Detection) error
	FinishRun(runID uint, status string, detections int) error
	GetRun(uuid string) (ScanRun, error)
	GetDetections(runID uint, label string) ([]Detection, error)
}

// DataStore implements Interface on a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New returns the store enabled in settings, or nil when none is.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// BeginRun records a new run in the running state.
func (ds *DataStore) BeginRun(run scan.Run) (*ScanRun, error) {
	if err := ds.ready(); err != nil {
		return nil, err
	}
	record := &ScanRun{
		UUID:      run.ID.String(),
		Node:      run.Node,
		ModelType: run.ModelType,
		ModelPath: run.ModelPath,
		Source:    run.Source,
		StartedAt: run.Started,
		Status:    StatusRunning,
	}
	if err := ds.DB.Create(record).Error; err != nil {
		return nil, dbError(fmt.Errorf("create scan run: %w", err), "begin_run")
	}
	return record, nil
}

// SaveDetections stores the detections of one batch in a single transaction.
func (ds *DataStore) SaveDetections(runID uint, detections []Detection) error {
	if err := ds.ready(); err != nil {
		return err
	}
	if len(detections) == 0 {
		return nil
	}
	for i := range detections {
		detections[i].ScanRunID = runID
	}

	start := time.Now()
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(detections, 100).Error
	})
	if err != nil {
		return dbError(fmt.Errorf("save detections: %w", err), "save_detections")
	}
	GetLogger().Trace("detections saved",
		logger.Int("count", len(detections)),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// FinishRun stores the final status and detection count of a run.
func (ds *DataStore) FinishRun(runID uint, status string, detections int) error {
	if err := ds.ready(); err != nil {
		return err
	}
	now := time.Now()
	err := ds.DB.Model(&ScanRun{}).Where("id = ?", runID).Updates(map[string]any{
		"status":      status,
		"detections":  detections,
		"finished_at": &now,
	}).Error
	if err != nil {
		return dbError(fmt.Errorf("finish scan run: %w", err), "finish_run")
	}
	return nil
}

// GetRun looks a run up by its UUID.
func (ds *DataStore) GetRun(uuid string) (ScanRun, error) {
	var run ScanRun
	if err := ds.ready(); err != nil {
		return run, err
	}
	if err := ds.DB.Where("uuid = ?", uuid).First(&run).Error; err != nil {
		return run, dbError(fmt.Errorf("get scan run %s: %w", uuid, err), "get_run")
	}
	return run, nil
}

// GetDetections returns the detections of a run in time order, optionally
// limited to one label.
func (ds *DataStore) GetDetections(runID uint, label string) ([]Detection, error) {
	if err := ds.ready(); err != nil {
		return nil, err
	}
	query := ds.DB.Where("scan_run_id = ?", runID)
	if label != "" {
		query = query.Where("label = ?", label)
	}
	var detections []Detection
	if err := query.Order("time ASC").Order("id ASC").Find(&detections).Error; err != nil {
		return nil, dbError(fmt.Errorf("get detections: %w", err), "get_detections")
	}
	return detections, nil
}

// Close closes the underlying connection pool.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "close")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close")
	}
	ds.DB = nil
	return nil
}

func (ds *DataStore) ready() error {
	if ds.DB == nil {
		return dbError(fmt.Errorf("database connection is not initialized"), "check")
	}
	return nil
}

// performAutoMigration creates or updates the schema.
func performAutoMigration(db *gorm.DB, dbType, connectionInfo string) error {
	start := time.Now()
	if err := db.AutoMigrate(&ScanRun{}, &Detection{}); err != nil {
		return dbError(fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err), "migrate")
	}
	GetLogger().Debug("database initialized",
		logger.String("db_type", dbType),
		logger.String("connection", connectionInfo),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

func dbError(err error, operation string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}
