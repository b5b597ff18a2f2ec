package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Persistence is the durable backend behind a Store.
type Persistence interface {
	Load() (Values, error)
	Save(Values) error
}

const defaultSettingsPath = "~/.config/harbormaster/settings.toml"

// DefaultPath returns the default settings file path.
func DefaultPath() string {
	return defaultSettingsPath
}

// fileValues is the on-disk layout.
type fileValues struct {
	Mode            string `toml:"mode"`
	ForcedMode      string `toml:"forced_mode"`
	CheckFrequency  int    `toml:"check_frequency_seconds"`
	SimulateOffline bool   `toml:"simulate_offline"`
	Theme           string `toml:"theme"`
}

// FileStore persists settings as a TOML file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore for path; empty uses DefaultPath.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the settings file. A missing file yields defaults and no error.
// An unreadable or malformed file yields defaults and the error.
func (f *FileStore) Load() (Values, error) {
	resolved, err := resolvePath(f.path)
	if err != nil {
		return Defaults(), fmt.Errorf("resolve path: %w", err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), fmt.Errorf("read settings: %w", err)
	}

	var raw fileValues
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Defaults(), fmt.Errorf("parse settings: %w", err)
	}

	values := Defaults()
	if mode, err := ParseMode(raw.Mode); err == nil {
		values.Mode = mode
	}
	if forced, err := ParseForcedMode(raw.ForcedMode); err == nil {
		values.Forced = forced
	}
	if raw.CheckFrequency != 0 {
		values.FrequencySeconds = raw.CheckFrequency
	}
	values.SimulateOffline = raw.SimulateOffline
	values.Theme = raw.Theme
	return values.normalize(), nil
}

// Save writes the settings file, creating directories as needed.
func (f *FileStore) Save(v Values) error {
	resolved, err := resolvePath(f.path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := toml.Marshal(fileValues{
		Mode:            string(v.Mode),
		ForcedMode:      string(v.Forced),
		CheckFrequency:  v.FrequencySeconds,
		SimulateOffline: v.SimulateOffline,
		Theme:           v.Theme,
	})
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// MemoryStore keeps settings in process memory. Saves counts persisted writes.
type MemoryStore struct {
	mu      sync.Mutex
	values  *Values
	saves   int
	SaveErr error
}

// NewMemoryStore returns an empty MemoryStore; Load yields defaults until the
// first Save.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Persistence.
func (m *MemoryStore) Load() (Values, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		return Defaults(), nil
	}
	return *m.values, nil
}

// Save implements Persistence.
func (m *MemoryStore) Save(v Values) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.values = &v
	m.saves++
	return nil
}

// Saves returns the number of successful Save calls.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultSettingsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
