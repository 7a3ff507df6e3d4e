package models

import (
	"time"

	"github.com/DAC098/TJ2-sub001/internal/ids"
)

// Entry is dated content belonging to a journal and the unit of
// reconciliation. It owns tags (key unique per entry), custom field values
// (one per field per entry) and file attachments (uid unique globally).
type Entry struct {
	ID        ids.EntryID
	JournalID ids.JournalID
	UserID    ids.UserID
	Date      time.Time
	Title     *string
	Contents  *string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type EntryTag struct {
	EntryID   ids.EntryID
	Key       string
	Value     *string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type CustomFieldValue struct {
	EntryID   ids.EntryID
	FieldID   ids.FieldID
	Value     string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
