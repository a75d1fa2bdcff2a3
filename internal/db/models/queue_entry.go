package models

// QueueEntry represents a scheduled message awaiting publication.
// An external feeder writes entries; selection matches PostTime against the
// invocation hour and a successful publish deletes the row. There is no
// update path.
type QueueEntry struct {
	// SortIndex orders entries sharing the same PostTime; lowest wins.
	SortIndex int `gorm:"primaryKey;autoIncrement:false;column:sort_index"`
	// PostTime is the time of day the entry becomes due, "HH:MM:SS".
	// Only entries with zeroed minutes and seconds can ever match.
	PostTime string `gorm:"column:post_time;type:time;not null"`
	// Message is the post text published verbatim.
	Message string `gorm:"column:message;type:text;not null"`
}

// TableName overrides the gorm default table name.
func (QueueEntry) TableName() string { return "queue_entries" }
