// Package mode reads the configured posting mode.
package mode

import (
	"errors"

	"gorm.io/gorm"

	"github.com/skyqueue/skyqueue/internal/db/models"
)

const (
	// Normal is the only mode with defined behavior.
	Normal = "normal"
	// Random is stored by some deployments; selection is unaffected.
	Random = "random"
)

var (
	// ErrModeNotSet is returned when the mode table holds no row.
	ErrModeNotSet = errors.New("no posting mode recorded")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Current retrieves the stored posting mode.
// The table is expected to hold zero or one row; with more than one the
// first row wins. The value is informational: selection of queue entries is
// identical for every mode.
func Current(db *gorm.DB) (string, error) {
	if db == nil {
		return "", ErrDBNil
	}

	var m models.PostMode
	result := db.Take(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", ErrModeNotSet
		}
		return "", result.Error
	}

	return m.Mode, nil
}
