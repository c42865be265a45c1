package pyenv

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrManifestNotFound means the dependency manifest does not exist. It is
// fatal to any operation that needs a consistent environment.
var ErrManifestNotFound = errors.New("dependency manifest not found")

// Fingerprint returns the hex sha256 digest of the manifest's bytes.
func Fingerprint(manifestPath string) (string, error) {
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrManifestNotFound, manifestPath)
		}
		return "", fmt.Errorf("read manifest %s: %w", manifestPath, err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// UpToDate reports whether the recorded fingerprint matches the manifest's
// current fingerprint. A missing record means false, not an error; a
// missing manifest is ErrManifestNotFound.
func UpToDate(recordPath, manifestPath string) (bool, error) {
	cur, err := Fingerprint(manifestPath)
	if err != nil {
		return false, err
	}
	b, err := os.ReadFile(recordPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read fingerprint record %s: %w", recordPath, err)
	}
	return strings.TrimSpace(string(b)) == cur, nil
}

// Commit recomputes the manifest fingerprint and persists it at recordPath.
// Called only after a successful install.
func Commit(recordPath, manifestPath string) error {
	cur, err := Fingerprint(manifestPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(recordPath), 0o750); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}
	if err := os.WriteFile(recordPath, []byte(cur), 0o600); err != nil {
		return fmt.Errorf("write fingerprint record %s: %w", recordPath, err)
	}
	return nil
}
