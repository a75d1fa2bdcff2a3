// Package models contains database model definitions.
package models

// PostMode represents the single-row operating mode table.
// Zero or one row is expected; the stored mode is surfaced in logs only and
// does not change how queue entries are selected.
type PostMode struct {
	Mode string `gorm:"column:mode;type:text;not null"`
}

// TableName overrides the gorm default so the model maps onto the table the
// queue feeder writes to.
func (PostMode) TableName() string { return "post_modes" }
