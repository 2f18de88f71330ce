package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Local state files under ~/.market-mind/. The caller identifier is
// generated once per installation and attached to every backend request;
// the theme is mirrored here on every toggle.
const (
	stateDir  = ".market-mind"
	userFile  = "user_id"
	themeFile = "theme"
	lockFile  = "state.lock"
)

// StateDir returns the path to the state directory, creating it with the
// user's home if needed.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	dir := filepath.Join(home, stateDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating state directory: %w", err)
	}
	return dir, nil
}

// LoadUserID returns the persisted caller identifier, generating and
// persisting a fresh one on first use. Identifier generation prefers a
// random UUID; if no secure random source is available it falls back to a
// time-derived string rather than failing.
func LoadUserID() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, userFile)
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading user id: %w", err)
	}

	id := newUserID()
	if err := writeStateFile(dir, userFile, id); err != nil {
		return "", fmt.Errorf("persisting user id: %w", err)
	}
	return id, nil
}

// newUserID generates an opaque caller identifier.
func newUserID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	return "user-" + strconv.FormatInt(time.Now().UnixNano(), 36)
}

// LoadTheme returns the persisted theme preference, defaulting to light
// when nothing valid has been saved. A missing file is not an error.
func LoadTheme() Theme {
	dir, err := StateDir()
	if err != nil {
		return ThemeLight
	}
	data, err := os.ReadFile(filepath.Join(dir, themeFile))
	if err != nil {
		return ThemeLight
	}
	theme := Theme(strings.TrimSpace(string(data)))
	if !theme.IsValid() {
		return ThemeLight
	}
	return theme
}

// SaveTheme persists the theme preference.
func SaveTheme(theme Theme) error {
	dir, err := StateDir()
	if err != nil {
		return err
	}
	if err := writeStateFile(dir, themeFile, string(theme)); err != nil {
		return fmt.Errorf("persisting theme: %w", err)
	}
	return nil
}

// writeStateFile writes a state file atomically (temp file + rename) under
// an advisory file lock, so concurrent client processes cannot interleave
// partial writes.
func writeStateFile(dir, name, content string) error {
	lock := flock.New(filepath.Join(dir, lockFile))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking state directory: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
