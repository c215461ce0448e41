package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/logger"
)

// MySQLStore implements Interface for MySQL.
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(s conf.MySQLSettings) error {
	if s.Host == "" || s.Database == "" || s.Username == "" {
		return errors.Newf("mysql output requires host, database and username").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// mysqlDSN builds the driver connection string.
func mysqlDSN(s conf.MySQLSettings) string {
	port := s.Port
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		s.Username, s.Password, s.Host, port, s.Database)
}

// Open connects and migrates the schema.
func (store *MySQLStore) Open() error {
	s := store.Settings.Output.MySQL
	if err := validateMySQLConfig(s); err != nil {
		return err
	}

	db, err := gorm.Open(mysql.Open(mysqlDSN(s)), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		GetLogger().Error("failed to open MySQL database",
			logger.String("host", s.Host),
			logger.String("port", s.Port),
			logger.String("database", s.Database),
			logger.Error(err))
		return dbError(fmt.Errorf("failed to open MySQL database: %w", err), "open")
	}

	store.DB = db
	return performAutoMigration(db, "MySQL", fmt.Sprintf("%s@%s/%s", s.Username, s.Host, s.Database))
}
