package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/dbx"
	"github.com/DAC098/TJ2-sub001/internal/filex"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/logging"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/repomanager"
)

// SyncService reconciles entries against synchronization payloads from
// peers, and manages the attachment content that backs file rows.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	filesDir    string
}

// NewSyncService constructs a SyncService writing attachment content under
// filesDir.
func NewSyncService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, filesDir string) *SyncService {
	return &SyncService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "sync"),
		filesDir:    filesDir,
	}
}

// FilePath returns where the content for the given file UID lives on disk.
func (s *SyncService) FilePath(uid ids.FileUID) string {
	return filepath.Join(s.filesDir, uid.String())
}

// SyncEntry makes the persisted tag, custom-field and file sets of one entry
// match the payload exactly, inside one transaction. Staged file deletions
// are executed only after the transaction commits; on rollback they are
// discarded, so the on-disk file set is never ahead of the committed
// database state.
func (s *SyncService) SyncEntry(ctx context.Context, userID ids.UserID, payload *models.EntrySync) error {
	journal, err := s.repomanager.Journals(s.db).GetByID(ctx, payload.JournalID)
	if err != nil {
		return err
	}
	// A journal belonging to someone else is indistinguishable from a
	// missing one.
	if journal.UserID != userID {
		return common.ErrorNotFound
	}

	removed := &filex.RemovedFiles{}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entry := &models.Entry{
			ID:        payload.ID,
			JournalID: payload.JournalID,
			UserID:    userID,
			Date:      payload.Date,
			Title:     payload.Title,
			Contents:  payload.Contents,
			CreatedAt: payload.Created,
			UpdatedAt: payload.Updated,
		}
		if err := s.repomanager.Entries(tx).Upsert(ctx, entry); err != nil {
			return err
		}
		if err := s.reconcileTags(ctx, tx, payload); err != nil {
			return err
		}
		if err := s.reconcileFieldValues(ctx, tx, payload); err != nil {
			return err
		}
		return s.reconcileFiles(ctx, tx, payload, removed)
	})
	if err != nil {
		removed.Discard()
		return err
	}

	if err := removed.Commit(); err != nil {
		// The database already committed; a leftover file is only waste,
		// not corruption.
		s.logger.Warn(ctx, "failed to remove staged files", "error", err.Error())
	}
	return nil
}

// reconcileTags makes the entry's persisted tag keys equal exactly the
// payload's: one combined upsert returning the touched keys, then deletion
// of everything untouched. An empty payload deletes all rows outright.
func (s *SyncService) reconcileTags(ctx context.Context, tx dbx.DBTX, payload *models.EntrySync) error {
	repo := s.repomanager.Tags(tx)

	incoming := dedupeTags(payload.Tags)
	if len(incoming) == 0 {
		return repo.DeleteAll(ctx, payload.ID)
	}

	touched, err := repo.UpsertReturningKeys(ctx, payload.ID, incoming)
	if err != nil {
		return err
	}
	return repo.DeleteKeysNotIn(ctx, payload.ID, touched)
}

// reconcileFieldValues works like reconcileTags, keyed by field ID, but
// first validates every incoming field against the journal schema. Any
// unknown field aborts the whole transaction with zero effect.
func (s *SyncService) reconcileFieldValues(ctx context.Context, tx dbx.DBTX, payload *models.EntrySync) error {
	known, err := s.repomanager.Journals(tx).FieldIDs(ctx, payload.JournalID)
	if err != nil {
		return err
	}
	for _, value := range payload.CustomFields {
		if _, ok := known[value.FieldID]; !ok {
			return fmt.Errorf("%w: %s", common.ErrorUnknownCustomField, value.FieldID)
		}
	}

	repo := s.repomanager.FieldValues(tx)

	incoming := dedupeFieldValues(payload.CustomFields)
	if len(incoming) == 0 {
		return repo.DeleteAll(ctx, payload.ID)
	}

	touched, err := repo.UpsertReturningFields(ctx, payload.ID, incoming)
	if err != nil {
		return err
	}
	return repo.DeleteFieldsNotIn(ctx, payload.ID, touched)
}

// reconcileFiles loads the rows currently known to the entry and classifies
// each incoming descriptor: UIDs owned by a different entry are silently
// skipped, duplicates within the payload keep their first occurrence, known
// UIDs are updates, new UIDs become Requested rows. Rows absent from the
// payload are deleted; received content is staged for removal, never
// deleted inline.
func (s *SyncService) reconcileFiles(ctx context.Context, tx dbx.DBTX, payload *models.EntrySync, removed *filex.RemovedFiles) error {
	repo := s.repomanager.Files(tx)

	existing, err := repo.ListForEntry(ctx, payload.ID)
	if err != nil {
		return err
	}
	known := make(map[ids.FileUID]*models.FileEntry, len(existing))
	for _, row := range existing {
		known[row.UID] = row
	}

	now := time.Now()
	seen := make(map[ids.FileUID]struct{}, len(payload.Files))
	for _, incoming := range payload.Files {
		if _, dup := seen[incoming.UID]; dup {
			continue
		}

		if row, ok := known[incoming.UID]; ok {
			seen[incoming.UID] = struct{}{}
			if row.Name != incoming.Name {
				if err := repo.UpdateName(ctx, incoming.UID, incoming.Name); err != nil {
					return err
				}
			}
			continue
		}

		// A fresh UID may still be taken by another entry; ownership is
		// never reassigned through sync.
		owner, err := repo.GetByUID(ctx, incoming.UID)
		switch {
		case err == nil:
			if owner.EntryID != payload.ID {
				continue
			}
		case errors.Is(err, common.ErrorNotFound):
			// New to everyone; insert below.
		default:
			return err
		}

		seen[incoming.UID] = struct{}{}
		err = repo.Insert(ctx, &models.FileEntry{
			UID:       incoming.UID,
			EntryID:   payload.ID,
			Name:      incoming.Name,
			Status:    models.FileRequested,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
	}

	var deletes []ids.FileUID
	for uid, row := range known {
		if _, keep := seen[uid]; keep {
			continue
		}
		if row.Status == models.FileReceived {
			removed.Stage(s.FilePath(uid))
		}
		deletes = append(deletes, uid)
	}
	return repo.Delete(ctx, deletes)
}

// ReceiveFile materializes content for a Requested (or re-sent Received)
// file row: the bytes are written crash-safely, then the row is flipped to
// Received with the content's size and sha256 hash. If the database update
// fails, the on-disk state is rolled back to the previous content.
func (s *SyncService) ReceiveFile(ctx context.Context, userID ids.UserID, uid ids.FileUID, content io.Reader) (*models.FileEntry, error) {
	fileRepo := s.repomanager.Files(s.db)

	row, err := fileRepo.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	entry, err := s.repomanager.Entries(s.db).GetByID(ctx, row.EntryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, common.ErrorNotFound
	}

	path := s.FilePath(uid)
	size, hash, finish, err := s.writeContent(path, content)
	if err != nil {
		return nil, err
	}

	if err := fileRepo.MarkReceived(ctx, uid, size, hash); err != nil {
		finish(false)
		return nil, err
	}
	finish(true)

	row.Size = size
	row.Hash = &hash
	row.Status = models.FileReceived
	return row, nil
}

// writeContent writes the bytes to path, replacing existing content through
// the crash-safe updater. The returned finish callback either keeps the new
// content (commit) or restores the old (rollback).
func (s *SyncService) writeContent(path string, content io.Reader) (int64, string, func(commit bool), error) {
	digest := sha256.New()

	if _, err := os.Lstat(path); err == nil {
		updater, err := filex.NewUpdater(path)
		if err != nil {
			return 0, "", nil, err
		}
		size, err := io.Copy(io.MultiWriter(updater, digest), content)
		if err != nil {
			_ = updater.Abort()
			return 0, "", nil, fmt.Errorf("writing %s: %w", path, err)
		}
		if err := updater.Update(); err != nil {
			return 0, "", nil, err
		}
		finish := func(commit bool) {
			if commit {
				if err := updater.Clean(); err != nil {
					s.logger.Warn(context.Background(), "failed to clean updated file", "path", path, "error", err.Error())
				}
			} else {
				if err := updater.Rollback(); err != nil {
					s.logger.Error(context.Background(), "failed to roll back updated file", "path", path, "error", err.Error())
				}
			}
		}
		return size, hex.EncodeToString(digest.Sum(nil)), finish, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, "", nil, fmt.Errorf("stat %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return 0, "", nil, fmt.Errorf("create %s: %w", path, err)
	}
	size, err := io.Copy(io.MultiWriter(f, digest), content)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return 0, "", nil, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return 0, "", nil, fmt.Errorf("sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return 0, "", nil, fmt.Errorf("close %s: %w", path, err)
	}
	finish := func(commit bool) {
		if !commit {
			if err := os.Remove(path); err != nil {
				s.logger.Error(context.Background(), "failed to remove written file", "path", path, "error", err.Error())
			}
		}
	}
	return size, hex.EncodeToString(digest.Sum(nil)), finish, nil
}

// dedupeTags keeps the first occurrence of each key.
func dedupeTags(tags []models.TagSync) []models.TagSync {
	if len(tags) < 2 {
		return tags
	}
	seen := make(map[string]struct{}, len(tags))
	out := tags[:0:0]
	for _, tag := range tags {
		if _, dup := seen[tag.Key]; dup {
			continue
		}
		seen[tag.Key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// dedupeFieldValues keeps the first occurrence of each field.
func dedupeFieldValues(values []models.CustomFieldSync) []models.CustomFieldSync {
	if len(values) < 2 {
		return values
	}
	seen := make(map[ids.FieldID]struct{}, len(values))
	out := values[:0:0]
	for _, value := range values {
		if _, dup := seen[value.FieldID]; dup {
			continue
		}
		seen[value.FieldID] = struct{}{}
		out = append(out, value)
	}
	return out
}
