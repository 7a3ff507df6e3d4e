package models

import (
	"time"

	"github.com/DAC098/TJ2-sub001/internal/ids"
)

// Journal is a named collection of entries owned by one user; the unit of
// sharing between peers.
type Journal struct {
	ID          ids.JournalID
	UserID      ids.UserID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// CustomField is part of a journal's schema. Every custom field value of an
// entry must reference a field defined on the entry's journal.
type CustomField struct {
	ID        ids.FieldID
	JournalID ids.JournalID
	Name      string
	Position  int32
	CreatedAt time.Time
}
