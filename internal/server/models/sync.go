package models

import (
	"time"

	"github.com/DAC098/TJ2-sub001/internal/ids"
)

// EntrySync is the synchronization payload for one entry as declared by a
// peer. Reconciliation makes the persisted child rows match these
// collections exactly.
type EntrySync struct {
	ID           ids.EntryID
	JournalID    ids.JournalID
	Date         time.Time
	Title        *string
	Contents     *string
	Tags         []TagSync
	CustomFields []CustomFieldSync
	Files        []FileSync
	Created      time.Time
	Updated      *time.Time
}

type TagSync struct {
	Key     string
	Value   *string
	Created time.Time
	Updated *time.Time
}

type CustomFieldSync struct {
	FieldID ids.FieldID
	Value   string
	Created time.Time
	Updated *time.Time
}

type FileSync struct {
	UID  ids.FileUID
	Name string
}
