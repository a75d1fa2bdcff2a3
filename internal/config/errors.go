package config

import (
	"errors"
)

var (
	// ErrDBEngineEmpty error if config db.gorm_engine is empty.
	ErrDBEngineEmpty = errors.New("toml config db.gorm_engine can not be empty")

	// ErrDBEngineUnknown error if config db.gorm_engine is not mysql, postgres or sqlite.
	ErrDBEngineUnknown = errors.New("toml config db.gorm_engine must be mysql, postgres or sqlite")

	// ErrDBPathEmpty error if the sqlite engine is selected without a database file path.
	ErrDBPathEmpty = errors.New("toml config db.path can not be empty for the sqlite engine")
)
