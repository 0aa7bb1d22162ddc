package settings

import (
	"os"
	"strings"
	"sync"

	"github.com/randalmurphal/codexmonitor/codexconfig"
)

// Environment is the process environment as seen by the settings layer.
// Production code binds OSEnvironment; tests bind a MapEnvironment so side
// effects never touch the real process.
type Environment interface {
	Lookup(key string) (string, bool)
	Set(key, value string) error
	Unset(key string) error
}

// OSEnvironment reads and writes the real process environment.
type OSEnvironment struct{}

// Lookup implements Environment.
func (OSEnvironment) Lookup(key string) (string, bool) { return os.LookupEnv(key) }

// Set implements Environment.
func (OSEnvironment) Set(key, value string) error { return os.Setenv(key, value) }

// Unset implements Environment.
func (OSEnvironment) Unset(key string) error { return os.Unsetenv(key) }

// MapEnvironment is an in-memory Environment.
type MapEnvironment struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewMapEnvironment creates a MapEnvironment seeded with initial.
func NewMapEnvironment(initial map[string]string) *MapEnvironment {
	vars := make(map[string]string, len(initial))
	for k, v := range initial {
		vars[k] = v
	}
	return &MapEnvironment{vars: vars}
}

// Lookup implements Environment.
func (e *MapEnvironment) Lookup(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[key]
	return v, ok
}

// Set implements Environment.
func (e *MapEnvironment) Set(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[key] = value
	return nil
}

// Unset implements Environment.
func (e *MapEnvironment) Unset(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.vars, key)
	return nil
}

// EnvAction is what ApplyDefaultCodexHome did to CODEX_HOME.
type EnvAction int

const (
	EnvUnchanged EnvAction = iota
	EnvSet
	EnvCleared
)

func (a EnvAction) String() string {
	switch a {
	case EnvSet:
		return "set"
	case EnvCleared:
		return "cleared"
	default:
		return "unchanged"
	}
}

// EnvChange records the environment side effect of a settings update.
type EnvChange struct {
	Key    string
	Action EnvAction
	Value  string // Value assigned when Action is EnvSet
}

// ApplyDefaultCodexHome projects next.DefaultCodexHome onto CODEX_HOME.
//
// A non-blank value is always assigned. Otherwise the variable is cleared
// only when previous held a non-blank value, so a CODEX_HOME set outside
// this process survives settings that never populated the field.
func ApplyDefaultCodexHome(env Environment, next AppSettings, previous *AppSettings) (EnvChange, error) {
	change := EnvChange{Key: codexconfig.EnvCodexHome}

	if value := strings.TrimSpace(next.DefaultCodexHome); value != "" {
		if err := env.Set(codexconfig.EnvCodexHome, value); err != nil {
			return change, err
		}
		change.Action = EnvSet
		change.Value = value
		return change, nil
	}

	if previous == nil || strings.TrimSpace(previous.DefaultCodexHome) == "" {
		return change, nil
	}
	if err := env.Unset(codexconfig.EnvCodexHome); err != nil {
		return change, err
	}
	change.Action = EnvCleared
	return change, nil
}
