package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xlttj/kfwd/pkg/logging"
)

const (
	// AppName names the per-user config directory.
	AppName = "kfwd"
	// FileName is the preference file inside the config directory.
	FileName = "config.json"
)

// Store reads and writes the preference file at a fixed path.
type Store struct {
	filePath string
}

// expandHomeDir replaces the leading ~ with the user's home directory
func expandHomeDir(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, path[1:]), nil
}

// ensureConfigDir ensures the directory holding configPath exists
func ensureConfigDir(configPath string) error {
	dirPath := filepath.Dir(configPath)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// DefaultPath returns <user config dir>/kfwd/config.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, AppName, FileName), nil
}

// NewStore returns a store for path. An empty path selects DefaultPath.
func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	expandedPath, err := expandHomeDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	return &Store{filePath: expandedPath}, nil
}

// Path returns the resolved file path.
func (s *Store) Path() string {
	return s.filePath
}

// Load reads the preference file. A missing, unreadable or malformed file
// yields an empty record; Load never fails.
func (s *Store) Load() *Preferences {
	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		logging.LogDebug("Preference file %s does not exist, starting with empty preferences", s.filePath)
		return NewPreferences()
	} else if err != nil {
		logging.LogWarn("Failed to read preference file %s, ignoring it: %v", s.filePath, err)
		return NewPreferences()
	}

	prefs := NewPreferences()
	if err := json.Unmarshal(data, prefs); err != nil {
		logging.LogWarn("Preference file %s is malformed, ignoring it: %v", s.filePath, err)
		return NewPreferences()
	}
	if prefs.Ports == nil {
		prefs.Ports = map[string]PortMapping{}
	}

	logging.LogDebug("Loaded preferences from %s: namespace=%q lastService=%q services=%d",
		s.filePath, prefs.Namespace, prefs.LastService, len(prefs.Ports))
	return prefs
}

// Save writes the whole record, pretty-printed, truncating any previous content.
func (s *Store) Save(prefs *Preferences) error {
	if prefs == nil {
		prefs = NewPreferences()
	}
	if err := ensureConfigDir(s.filePath); err != nil {
		return err
	}

	out := *prefs
	if out.Ports == nil {
		out.Ports = map[string]PortMapping{}
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write preference file %s: %w", s.filePath, err)
	}
	logging.LogDebug("Saved preferences to %s", s.filePath)
	return nil
}
