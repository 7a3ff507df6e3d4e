package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/DAC098/TJ2-sub001/internal/filex"
)

var (
	// ErrKeyFileExists is returned by Save when overwrite is false and the
	// destination already exists.
	ErrKeyFileExists = errors.New("key file already exists")

	// ErrKeyFileInvalidHex is returned by Load when the file content is not
	// valid hexadecimal.
	ErrKeyFileInvalidHex = errors.New("key file is not valid hex")

	// ErrKeyFileInvalidLength is returned by Load when the decoded key is
	// not exactly KeySize bytes.
	ErrKeyFileInvalidLength = errors.New("key file has invalid length")
)

// Save persists the private key as a single-line fixed-length hexadecimal
// text file. When overwrite is false an existing destination is a distinct
// error and the file is untouched. In either case the file is created
// atomically or not at all: new files use an exclusive create, replacements
// go through the crash-safe updater.
func (p *PrivateKey) Save(path string, overwrite bool) error {
	line := hex.EncodeToString(p.k[:]) + "\n"

	_, statErr := os.Lstat(path)
	exists := statErr == nil

	if exists && !overwrite {
		return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
	}

	if !exists {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				// Raced with another writer; same outcome as the stat check.
				return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
			}
			return fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := f.WriteString(line); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Sync(); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return fmt.Errorf("sync %s: %w", path, err)
		}
		return f.Close()
	}

	updater, err := filex.NewUpdater(path)
	if err != nil {
		return err
	}
	if _, err := updater.Write([]byte(line)); err != nil {
		_ = updater.Abort()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := updater.Update(); err != nil {
		return err
	}
	return updater.Clean()
}

// Load reads a private key persisted by Save. Non-hexadecimal content and
// decoded length mismatches are reported as distinct errors, generic I/O
// failures are wrapped.
func Load(path string) (*PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	line := strings.TrimSpace(string(b))
	raw, err := hex.DecodeString(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyFileInvalidHex, path)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: %s", ErrKeyFileInvalidLength, path)
	}

	return PrivateKeyFromBytes(raw)
}
