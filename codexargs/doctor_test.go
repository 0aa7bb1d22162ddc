package codexargs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("codex-cli 0.98.1\n")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 0, Minor: 98, Patch: 1, Raw: "0.98.1"}, v)

	_, err = ParseVersion("codex dev build")
	assert.ErrorContains(t, err, "invalid version format")
}

func TestVersion_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.2.0", "1.10.0", -1},
		{"2.0.0", "1.99.99", 1},
		{"0.71.1", "0.71.0", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			a, err := ParseVersion(tt.a)
			require.NoError(t, err)
			b, err := ParseVersion(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Compare(b))
			assert.Equal(t, -tt.want, b.Compare(a))
		})
	}
}

func fakeRunner(out string, err error) (Runner, *[]string) {
	var called []string
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		called = append(append(called, name), args...)
		return []byte(out), err
	}, &called
}

func TestDoctor(t *testing.T) {
	cmd := Command{Path: "/opt/codex", Args: []string{"--profile", "work"}}

	t.Run("ok", func(t *testing.T) {
		run, called := fakeRunner("codex-cli 0.98.0\n", nil)
		got, err := Doctor(context.Background(), cmd, run)
		require.NoError(t, err)
		assert.Equal(t, DoctorResult{
			OK:      true,
			Path:    "/opt/codex",
			Args:    []string{"--profile", "work"},
			Version: "0.98.0",
		}, got)
		assert.Equal(t, []string{"/opt/codex", "--version"}, *called)
	})

	t.Run("too old", func(t *testing.T) {
		run, _ := fakeRunner("codex-cli 0.50.2", nil)
		got, err := Doctor(context.Background(), cmd, run)
		require.NoError(t, err)
		assert.False(t, got.OK)
		assert.Equal(t, "0.50.2", got.Version)
		assert.Contains(t, got.Details, "older than the minimum supported "+MinimumVersion)
	})

	t.Run("run failure", func(t *testing.T) {
		run, _ := fakeRunner("", errors.New("exec: not found"))
		got, err := Doctor(context.Background(), cmd, run)
		require.NoError(t, err)
		assert.False(t, got.OK)
		assert.Equal(t, "failed to run /opt/codex --version: exec: not found", got.Details)
	})

	t.Run("unparseable", func(t *testing.T) {
		run, _ := fakeRunner("nightly", nil)
		got, err := Doctor(context.Background(), cmd, run)
		require.NoError(t, err)
		assert.False(t, got.OK)
		assert.Empty(t, got.Version)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		run, _ := fakeRunner("", context.Canceled)
		_, err := Doctor(ctx, cmd, run)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDoctor_ExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}
	bin := filepath.Join(t.TempDir(), "codex")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho \"codex-cli 1.2.3\"\n"), 0o755))

	got, err := Doctor(context.Background(), Command{Path: bin, Args: []string{}}, nil)
	require.NoError(t, err)
	assert.True(t, got.OK)
	assert.Equal(t, "1.2.3", got.Version)
}
