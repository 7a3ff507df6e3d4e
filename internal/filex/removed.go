package filex

import (
	"errors"
	"io/fs"
	"os"
)

// RemovedFiles collects file paths whose physical removal must wait for the
// owning database transaction to commit. Stage records a path; Commit
// performs the deletions; Discard forgets them (rollback path). The on-disk
// file set is therefore never ahead of the committed database state.
//
// A RemovedFiles value belongs to a single request and is not safe for
// concurrent use.
type RemovedFiles struct {
	paths []string
}

// Stage records path for deletion once the owning transaction commits.
func (r *RemovedFiles) Stage(path string) {
	r.paths = append(r.paths, path)
}

// Len reports how many deletions are staged.
func (r *RemovedFiles) Len() int {
	return len(r.paths)
}

// Commit removes every staged file. Files that are already gone are not an
// error. Removal continues past individual failures; the joined error is
// returned so the caller can log it. The staged set is cleared either way.
func (r *RemovedFiles) Commit() error {
	var errs []error
	for _, path := range r.paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	r.paths = nil
	return errors.Join(errs...)
}

// Discard forgets all staged deletions without touching the filesystem.
func (r *RemovedFiles) Discard() {
	r.paths = nil
}
