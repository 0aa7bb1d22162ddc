package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/codexmonitor/apperr"
)

func TestSetField(t *testing.T) {
	s := Default()

	require.NoError(t, SetField(&s, "codexArgs", `--profile "a b"`))
	require.NoError(t, SetField(&s, "default_codex_home", "/srv/codex"))
	require.NoError(t, SetField(&s, "SteerEnabled", "false"))
	require.NoError(t, SetField(&s, "experimental_apps_enabled", "1"))
	require.NoError(t, SetField(&s, "backendMode", " remote "))
	require.NoError(t, SetField(&s, "personality", "pragmatic"))

	assert.Equal(t, `--profile "a b"`, s.CodexArgs)
	assert.Equal(t, "/srv/codex", s.DefaultCodexHome)
	assert.False(t, s.SteerEnabled)
	assert.True(t, s.ExperimentalAppsEnabled)
	assert.Equal(t, BackendRemote, s.BackendMode)
	assert.Equal(t, PersonalityPragmatic, s.Personality)
}

func TestSetField_Errors(t *testing.T) {
	s := Default()

	err := SetField(&s, "steerEnabled", "sometimes")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	err = SetField(&s, "backendMode", "cloud")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	err = SetField(&s, "theme", "dark")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codexArgs")

	assert.Equal(t, Default(), s, "failed assignments leave booleans untouched")
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "remoteBackendToken")
	assert.Contains(t, keys, "unifiedExecEnabled")
	assert.IsIncreasing(t, keys)
}
