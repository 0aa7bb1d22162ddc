package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the settings file name inside the data directory.
const FileName = "settings.json"

// LoadFile loads settings from path.
// Returns Default() if the file doesn't exist. Keys missing from the file
// keep their default values.
func LoadFile(path string) (AppSettings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return AppSettings{}, fmt.Errorf("read settings file: %w", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return AppSettings{}, fmt.Errorf("parse settings JSON: %w", err)
	}

	return s.Normalized(), nil
}

// WriteFile saves settings to path, creating the directory if needed.
// The file is replaced atomically so a crash never leaves partial JSON.
func WriteFile(path string, s AppSettings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// FilePath returns the settings file path inside dataDir.
func FilePath(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}
