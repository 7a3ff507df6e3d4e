package models

import (
	"time"

	"github.com/DAC098/TJ2-sub001/internal/ids"
)

// FileStatus tracks whether an attachment's content has been materialized.
type FileStatus string

const (
	// FileRequested means the metadata row exists but the content has not
	// arrived yet.
	FileRequested FileStatus = "requested"
	// FileReceived means the content is present on disk, identified by a
	// size and hash.
	FileReceived FileStatus = "received"
)

// FileEntry is the metadata for one attachment of an entry. Content bytes
// arrive through a separate channel after the row is created as Requested.
type FileEntry struct {
	UID       ids.FileUID
	EntryID   ids.EntryID
	Name      string
	MimeType  *string
	Size      int64
	Hash      *string
	Status    FileStatus
	CreatedAt time.Time
	UpdatedAt *time.Time
}
