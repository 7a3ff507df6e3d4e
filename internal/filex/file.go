// Package filex contains filesystem helpers: directory setup, a crash-safe
// single-file updater, and a tracker for transaction-gated file removal.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates (if needed) and returns the named subdirectory of root.
func EnsureDir(root, name string) (string, error) {
	dir := filepath.Join(root, name)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
