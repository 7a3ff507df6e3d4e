package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	// ErrNotRegularFile is returned when the target of an update is missing
	// or is not a regular file.
	ErrNotRegularFile = errors.New("target is not a regular file")

	// ErrPreviousExists is returned when the ".prev" path already exists,
	// meaning an earlier update never finished its cleanup.
	ErrPreviousExists = errors.New("previous file already exists")

	// ErrTempExists is returned when the ".tmp" path already exists,
	// meaning an earlier update never finished its cleanup.
	ErrTempExists = errors.New("temporary file already exists")

	// ErrUnrecoverable is returned when the second rename of an update
	// failed and restoring the previous file also failed. The path set is
	// left with no current file and requires manual intervention.
	ErrUnrecoverable = errors.New("update unrecoverable: previous holds old content, temporary holds new content")

	// ErrInvalidState is returned when an updater method is called out of
	// order, e.g. Clean before Update.
	ErrInvalidState = errors.New("invalid updater state")
)

const (
	prevSuffix = ".prev"
	tmpSuffix  = ".tmp"
)

type updaterState int

const (
	statePrepared updaterState = iota
	stateUpdated
	stateCleaned
	stateRolledBack
	stateAborted
)

// Updater replaces the contents of one logical path crash-safely via three
// physical paths: current, previous (current + ".prev") and temporary
// (current + ".tmp"). New content is written to the temporary file, then
// swapped in with two renames so the old content survives until Clean.
//
// An Updater assumes single-writer access to its path. Concurrent updaters
// on the same path must be excluded by a caller-held lock.
type Updater struct {
	current  string
	previous string
	temp     string

	tempFile *os.File
	state    updaterState
}

// NewUpdater prepares an update of path. The path must exist as a regular
// file, and neither path+".prev" nor path+".tmp" may exist; leftovers from
// an interrupted earlier run are reported as distinct errors rather than
// silently overwritten. On success the temporary file is open for writing.
func NewUpdater(path string) (*Updater, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}

	previous := path + prevSuffix
	if _, err := os.Lstat(previous); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrPreviousExists, previous)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", previous, err)
	}

	temp := path + tmpSuffix
	f, err := os.OpenFile(temp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrTempExists, temp)
		}
		return nil, fmt.Errorf("create %s: %w", temp, err)
	}

	return &Updater{
		current:  path,
		previous: previous,
		temp:     temp,
		tempFile: f,
		state:    statePrepared,
	}, nil
}

// Write appends to the temporary file. Only valid before Update.
func (u *Updater) Write(p []byte) (int, error) {
	if u.state != statePrepared {
		return 0, ErrInvalidState
	}
	return u.tempFile.Write(p)
}

// Update swaps the new content into place: current is renamed to previous,
// then temporary to current. Failing to flush the temporary file discards it
// and aborts the update, so a fresh NewUpdater can retry from scratch. If
// the first rename fails nothing has changed and the update can likewise be
// retried. If the second rename fails the updater renames previous back to
// current; if that recovery also fails, ErrUnrecoverable is returned and the
// path set must be repaired by hand.
func (u *Updater) Update() error {
	if u.state != statePrepared {
		return ErrInvalidState
	}

	if err := u.tempFile.Sync(); err != nil {
		u.discardTemp()
		return fmt.Errorf("sync %s: %w", u.temp, err)
	}
	if err := u.tempFile.Close(); err != nil {
		u.tempFile = nil
		u.discardTemp()
		return fmt.Errorf("close %s: %w", u.temp, err)
	}
	u.tempFile = nil

	if err := os.Rename(u.current, u.previous); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", u.current, u.previous, err)
	}

	if err := os.Rename(u.temp, u.current); err != nil {
		if recoverErr := os.Rename(u.previous, u.current); recoverErr != nil {
			return fmt.Errorf("%w: rename failed (%v), recovery failed (%v)",
				ErrUnrecoverable, err, recoverErr)
		}
		return fmt.Errorf("rename %s -> %s: %w", u.temp, u.current, err)
	}

	u.state = stateUpdated
	return nil
}

// Clean discards the old content after a successful Update by removing the
// previous file. Retryable on failure.
func (u *Updater) Clean() error {
	if u.state != stateUpdated {
		return ErrInvalidState
	}
	if err := os.Remove(u.previous); err != nil {
		return fmt.Errorf("remove %s: %w", u.previous, err)
	}
	u.state = stateCleaned
	return nil
}

// Rollback restores the old content after a successful Update by renaming
// the previous file back over current. The new content is discarded.
// Retryable on failure.
func (u *Updater) Rollback() error {
	if u.state != stateUpdated {
		return ErrInvalidState
	}
	if err := os.Rename(u.previous, u.current); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", u.previous, u.current, err)
	}
	u.state = stateRolledBack
	return nil
}

// discardTemp drops the temporary file after a write-out failure, leaving
// current untouched and the updater aborted.
func (u *Updater) discardTemp() {
	if u.tempFile != nil {
		_ = u.tempFile.Close()
		u.tempFile = nil
	}
	_ = os.Remove(u.temp)
	u.state = stateAborted
}

// Abort discards a prepared update before it is applied, closing and
// removing the temporary file. Current is untouched.
func (u *Updater) Abort() error {
	if u.state != statePrepared {
		return ErrInvalidState
	}
	if u.tempFile != nil {
		_ = u.tempFile.Close()
		u.tempFile = nil
	}
	if err := os.Remove(u.temp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", u.temp, err)
	}
	u.state = stateAborted
	return nil
}
