// Package db opens the relational store holding the posting queue.
package db

import (
	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/skyqueue/skyqueue/internal/config"
	"github.com/skyqueue/skyqueue/internal/db/dsn"
	"github.com/skyqueue/skyqueue/internal/db/models"
	"github.com/skyqueue/skyqueue/internal/logger/adapter/gormlogger"
)

// ErrUnknownEngine is returned when the configured gorm engine is not supported.
var ErrUnknownEngine = errors.New("unknown database engine")

// Open connects to the configured database engine and migrates the mode and
// queue tables. Each invocation of the poster opens a fresh connection; no
// state is shared between runs.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		dialector = gormmysql.Open(dsn.Create(cfg))
	case config.EnginePostgres:
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case config.EngineSQLite:
		dialector = sqlite.Open(dsn.Create(cfg))
	default:
		return nil, errors.Wrap(ErrUnknownEngine, cfg.DB.GormEngine)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.New()})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err = conn.AutoMigrate(
		&models.PostMode{},
		&models.QueueEntry{},
	); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	return conn, nil
}
