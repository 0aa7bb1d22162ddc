package codexconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// File and directory names used by the Codex CLI.
const (
	// EnvCodexHome overrides the Codex home directory.
	EnvCodexHome = "CODEX_HOME"

	// DirCodex is the default Codex home directory name under the user's home.
	DirCodex = ".codex"

	// FileConfig is the Codex configuration file name.
	FileConfig = "config.toml"

	// FileAgentsMD is the agent instructions file name.
	FileAgentsMD = "AGENTS.md"
)

// Table and key names inside config.toml.
const (
	TableFeatures  = "features"
	KeyPersonality = "personality"
)

// Feature names under [features] mirrored from app settings.
const (
	FeatureCollab             = "collab"
	FeatureCollaborationModes = "collaboration_modes"
	FeatureSteer              = "steer"
	FeatureUnifiedExec        = "unified_exec"
	FeatureApps               = "apps"
)

// ManagedFeatures returns every feature name this package mirrors.
func ManagedFeatures() []string {
	return []string{
		FeatureCollab,
		FeatureCollaborationModes,
		FeatureSteer,
		FeatureUnifiedExec,
		FeatureApps,
	}
}

// ErrNoCodexHome is returned when neither CODEX_HOME nor the user's home
// directory can be resolved.
var ErrNoCodexHome = errors.New("Unable to resolve CODEX_HOME")

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// CodexHome resolves the Codex home directory.
// A non-blank CODEX_HOME wins; otherwise ~/.codex is used.
func CodexHome(lookup LookupFunc) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvCodexHome); ok {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return expandHome(trimmed), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", ErrNoCodexHome
	}
	return filepath.Join(home, DirCodex), nil
}

// ConfigPath returns the path to config.toml inside the Codex home.
func ConfigPath(lookup LookupFunc) (string, error) {
	home, err := CodexHome(lookup)
	if err != nil {
		return "", err
	}
	return filepath.Join(home, FileConfig), nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
