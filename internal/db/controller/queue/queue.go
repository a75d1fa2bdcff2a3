// Package queue provides the queue entry selection, claim and removal operations.
package queue

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skyqueue/skyqueue/internal/db/models"
)

const (
	postTimeQueryPattern = "post_time = ?"
	sortIndexOrder       = "sort_index asc"
)

var (
	// ErrNoEntryDue is returned when no queue entry matches the invocation hour.
	// It marks the normal "nothing to do" condition, not a failure.
	ErrNoEntryDue = errors.New("no queue entry due")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrPublishNil is returned when TakeNextDue is called without a publish func.
	ErrPublishNil = errors.New("publish func is nil")
)

// DueTime renders the time-of-day value an entry must carry to be due at the
// given moment. Minutes and seconds are forced to zero, so the match is
// exact to the second against "HH:00:00".
func DueTime(now time.Time) string {
	return fmt.Sprintf("%02d:00:00", now.Hour())
}

// NextDue retrieves the queue entry due at the given moment: the row whose
// post_time equals the invocation hour, lowest sort index first.
func NextDue(db *gorm.DB, now time.Time) (*models.QueueEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return nextDue(db, now, false)
}

// Delete removes a queue entry by sort index. Deleting an already-absent
// entry affects zero rows and is not an error.
func Delete(db *gorm.DB, sortIndex int) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.QueueEntry{}, sortIndex)

	return result.Error
}

// TakeNextDue claims the entry due at the given moment, runs publish on it
// and removes it when publish succeeds, all inside one transaction. When
// publish fails the transaction rolls back and the entry stays queued for
// the next timer run. On engines with row locks the selected entry is locked
// for the duration, so overlapping timer invocations serialize instead of
// publishing the same entry twice.
func TakeNextDue(db *gorm.DB, now time.Time, publish func(*models.QueueEntry) error) (*models.QueueEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if publish == nil {
		return nil, ErrPublishNil
	}

	var taken *models.QueueEntry

	err := db.Transaction(func(tx *gorm.DB) error {
		entry, err := nextDue(tx, now, true)
		if err != nil {
			return err
		}

		if err = publish(entry); err != nil {
			return err
		}

		if err = Delete(tx, entry.SortIndex); err != nil {
			return err
		}

		taken = entry

		return nil
	})
	if err != nil {
		return nil, err
	}

	return taken, nil
}

func nextDue(tx *gorm.DB, now time.Time, locked bool) (*models.QueueEntry, error) {
	query := tx.Where(postTimeQueryPattern, DueTime(now)).Order(sortIndexOrder)

	if locked && supportsRowLocks(tx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var entry models.QueueEntry
	result := query.First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNoEntryDue
		}
		return nil, result.Error
	}

	return &entry, nil
}

// supportsRowLocks reports whether the dialect accepts SELECT ... FOR UPDATE.
// sqlite does not; its writer lock covers the transaction instead.
func supportsRowLocks(tx *gorm.DB) bool {
	switch tx.Dialector.Name() {
	case "mysql", "postgres":
		return true
	default:
		return false
	}
}
