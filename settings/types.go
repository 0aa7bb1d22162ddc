package settings

import "strings"

// Personality selects the Codex communication style.
type Personality string

// Recognized personalities.
const (
	PersonalityFriendly  Personality = "friendly"
	PersonalityPragmatic Personality = "pragmatic"
)

// DefaultPersonality is used for blank or unrecognized input.
const DefaultPersonality = PersonalityFriendly

// NormalizePersonality maps input to a recognized personality.
// Anything other than "friendly" or "pragmatic" (after trimming) becomes
// "friendly".
func NormalizePersonality(value string) Personality {
	switch Personality(strings.TrimSpace(value)) {
	case PersonalityFriendly:
		return PersonalityFriendly
	case PersonalityPragmatic:
		return PersonalityPragmatic
	default:
		return DefaultPersonality
	}
}

// BackendMode is the user's preferred backend. It decides whether the app
// connects to a remote backend on startup; the effective runtime mode is
// derived from the live connection, not from this value.
type BackendMode string

// Backend modes.
const (
	BackendLocal  BackendMode = "local"
	BackendRemote BackendMode = "remote"
)

// DefaultRemoteBackendHost is the daemon's default listen address.
const DefaultRemoteBackendHost = "127.0.0.1:4732"

// AppSettings is the canonical settings object for the running process.
// It is a value type: copying it yields an independent snapshot.
//
// Optional strings use "" for absent; blank values are treated as absent
// everywhere they are consumed.
type AppSettings struct {
	// --- Codex invocation ---

	// CodexBin is the codex binary to launch. Empty means "codex" on PATH.
	CodexBin string `json:"codexBin,omitempty" yaml:"codex_bin,omitempty" jsonschema:"description=Path to the codex binary"`

	// CodexArgs is an extra shell-quoted argument string for codex.
	CodexArgs string `json:"codexArgs,omitempty" yaml:"codex_args,omitempty" jsonschema:"description=Extra shell-quoted codex arguments"`

	// DefaultCodexHome is exported as CODEX_HOME when non-blank.
	DefaultCodexHome string `json:"defaultCodexHome,omitempty" yaml:"default_codex_home,omitempty" jsonschema:"description=Directory exported as CODEX_HOME"`

	// --- Remote backend ---

	BackendMode        BackendMode `json:"backendMode" yaml:"backend_mode" jsonschema:"enum=local,enum=remote,default=local"`
	RemoteBackendHost  string      `json:"remoteBackendHost,omitempty" yaml:"remote_backend_host,omitempty"`
	RemoteBackendToken string      `json:"remoteBackendToken,omitempty" yaml:"remote_backend_token,omitempty"`

	// --- Mirrored into config.toml ---

	Personality               Personality `json:"personality" yaml:"personality" jsonschema:"enum=friendly,enum=pragmatic,default=friendly"`
	ExperimentalCollabEnabled bool        `json:"experimentalCollabEnabled" yaml:"experimental_collab_enabled"`
	CollaborationModesEnabled bool        `json:"collaborationModesEnabled" yaml:"collaboration_modes_enabled"`
	SteerEnabled              bool        `json:"steerEnabled" yaml:"steer_enabled"`
	UnifiedExecEnabled        bool        `json:"unifiedExecEnabled" yaml:"unified_exec_enabled"`
	ExperimentalAppsEnabled   bool        `json:"experimentalAppsEnabled" yaml:"experimental_apps_enabled"`
}

// Default returns the settings used when no settings file exists.
func Default() AppSettings {
	return AppSettings{
		BackendMode:               BackendLocal,
		RemoteBackendHost:         DefaultRemoteBackendHost,
		Personality:               DefaultPersonality,
		CollaborationModesEnabled: true,
		SteerEnabled:              true,
		UnifiedExecEnabled:        true,
	}
}

// Normalized returns a copy with the personality and backend mode coerced
// to recognized values.
func (s AppSettings) Normalized() AppSettings {
	s.Personality = NormalizePersonality(string(s.Personality))
	if s.BackendMode != BackendRemote {
		s.BackendMode = BackendLocal
	}
	return s
}

// NormalizeToken trims a remote backend token; blank input becomes "".
func NormalizeToken(token string) string {
	return strings.TrimSpace(token)
}
