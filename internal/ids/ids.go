// Package ids defines distinct identifier types for the domain entities.
// Each kind is its own type with parse/format helpers so that, for example,
// a journal ID can never be passed where an entry ID is expected.
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// UserID identifies a local user account.
type UserID string

// JournalID identifies a journal owned by one user.
type JournalID string

// EntryID identifies one dated entry inside a journal.
type EntryID string

// FieldID identifies a custom field defined on a journal.
type FieldID string

// FileUID identifies a file attachment. File UIDs are unique globally,
// not just within their owning entry.
type FileUID string

// SessionID identifies an issued session credential.
type SessionID string

// PeerID identifies a registered remote peer server.
type PeerID string

func parse(kind, s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid %s id %q: %w", kind, s, err)
	}
	return id.String(), nil
}

// NewEntryID returns a fresh random entry ID.
func NewEntryID() EntryID { return EntryID(uuid.NewString()) }

// NewFileUID returns a fresh random file UID.
func NewFileUID() FileUID { return FileUID(uuid.NewString()) }

// NewSessionID returns a fresh random session ID.
func NewSessionID() SessionID { return SessionID(uuid.NewString()) }

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.NewString()) }

// NewJournalID returns a fresh random journal ID.
func NewJournalID() JournalID { return JournalID(uuid.NewString()) }

// NewFieldID returns a fresh random custom-field ID.
func NewFieldID() FieldID { return FieldID(uuid.NewString()) }

// NewPeerID returns a fresh random peer ID.
func NewPeerID() PeerID { return PeerID(uuid.NewString()) }

// ParseUserID validates s as a user ID.
func ParseUserID(s string) (UserID, error) {
	id, err := parse("user", s)
	return UserID(id), err
}

// ParseJournalID validates s as a journal ID.
func ParseJournalID(s string) (JournalID, error) {
	id, err := parse("journal", s)
	return JournalID(id), err
}

// ParseEntryID validates s as an entry ID.
func ParseEntryID(s string) (EntryID, error) {
	id, err := parse("entry", s)
	return EntryID(id), err
}

// ParseFieldID validates s as a custom-field ID.
func ParseFieldID(s string) (FieldID, error) {
	id, err := parse("custom field", s)
	return FieldID(id), err
}

// ParseFileUID validates s as a file UID.
func ParseFileUID(s string) (FileUID, error) {
	id, err := parse("file", s)
	return FileUID(id), err
}

// ParseSessionID validates s as a session ID.
func ParseSessionID(s string) (SessionID, error) {
	id, err := parse("session", s)
	return SessionID(id), err
}

// ParsePeerID validates s as a peer ID.
func ParsePeerID(s string) (PeerID, error) {
	id, err := parse("peer", s)
	return PeerID(id), err
}

func (id UserID) String() string    { return string(id) }
func (id JournalID) String() string { return string(id) }
func (id EntryID) String() string   { return string(id) }
func (id FieldID) String() string   { return string(id) }
func (id FileUID) String() string   { return string(id) }
func (id SessionID) String() string { return string(id) }
func (id PeerID) String() string    { return string(id) }
