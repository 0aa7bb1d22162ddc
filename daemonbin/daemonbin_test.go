package daemonbin

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/codexmonitor/apperr"
)

func TestCandidates(t *testing.T) {
	assert.Equal(t, []string{"codex_monitor_daemon", "codex-monitor-daemon"}, Candidates("linux"))
	assert.Equal(t, []string{"codex_monitor_daemon.exe", "codex-monitor-daemon.exe"}, Candidates("windows"))
	for _, goos := range []string{"linux", "darwin", "windows"} {
		assert.True(t, strings.HasPrefix(Candidates(goos)[0], "codex_monitor_daemon"), goos)
	}
}

func TestSearchDirs(t *testing.T) {
	tests := []struct {
		goos   string
		exeDir string
		want   []string
	}{
		{
			goos:   "linux",
			exeDir: "/opt/monitor",
			want:   []string{"/opt/monitor", "/usr/local/bin", "/usr/bin", "/usr/sbin"},
		},
		{
			goos:   "linux",
			exeDir: "/usr/bin",
			want:   []string{"/usr/bin", "/usr/local/bin", "/usr/sbin"},
		},
		{
			goos:   "darwin",
			exeDir: "/Applications/Monitor.app/Contents/MacOS",
			want: []string{
				"/Applications/Monitor.app/Contents/MacOS",
				"/Applications/Monitor.app/Contents/Resources",
				"/opt/homebrew/bin",
				"/usr/local/bin",
			},
		},
		{
			goos:   "windows",
			exeDir: `C:\monitor`,
			want:   []string{`C:\monitor`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.goos+" "+tt.exeDir, func(t *testing.T) {
			assert.Equal(t, tt.want, SearchDirs(tt.exeDir, tt.goos))
		})
	}
}

func newLocator(exeDir string, env map[string]string) *Locator {
	return &Locator{
		// An unknown GOOS keeps the search to the executable directory.
		GOOS:       "plan9",
		Executable: func() (string, error) { return filepath.Join(exeDir, "monitor"), nil },
		Lookup: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
}

func TestLocator_FindsInExecutableDir(t *testing.T) {
	exeDir := t.TempDir()
	touch(t, filepath.Join(exeDir, "codex-monitor-daemon"))

	got, err := newLocator(exeDir, nil).Resolve()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(exeDir, "codex-monitor-daemon"), got)

	touch(t, filepath.Join(exeDir, "codex_monitor_daemon"))
	got, err = newLocator(exeDir, nil).Resolve()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(exeDir, "codex_monitor_daemon"), got, "underscored name is preferred")
}

func TestLocator_OverrideFileWins(t *testing.T) {
	exeDir := t.TempDir()
	touch(t, filepath.Join(exeDir, "codex_monitor_daemon"))
	custom := filepath.Join(t.TempDir(), "my-daemon")
	touch(t, custom)

	got, err := newLocator(exeDir, map[string]string{EnvOverride: "  " + custom + "  "}).Resolve()
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestLocator_OverrideDirSearchedFirst(t *testing.T) {
	exeDir := t.TempDir()
	touch(t, filepath.Join(exeDir, "codex_monitor_daemon"))
	overrideDir := t.TempDir()
	touch(t, filepath.Join(overrideDir, "codex-monitor-daemon"))

	got, err := newLocator(exeDir, map[string]string{EnvOverride: overrideDir}).Resolve()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(overrideDir, "codex-monitor-daemon"), got)
}

func TestLocator_DirectoryIsNotABinary(t *testing.T) {
	exeDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(exeDir, "codex_monitor_daemon"), 0o755))
	touch(t, filepath.Join(exeDir, "codex-monitor-daemon"))

	got, err := newLocator(exeDir, nil).Resolve()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(exeDir, "codex-monitor-daemon"), got)
}

func TestLocator_ErrorListsAttemptsOnceInOrder(t *testing.T) {
	exeDir := t.TempDir()
	missing := filepath.Join(t.TempDir(), "gone")

	_, err := newLocator(exeDir, map[string]string{EnvOverride: missing}).Resolve()
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	want := "Unable to locate daemon binary (tried: " + strings.Join([]string{
		missing,
		filepath.Join(exeDir, "codex_monitor_daemon"),
		filepath.Join(exeDir, "codex-monitor-daemon"),
	}, ", ") + ")"
	assert.Equal(t, want, err.Error())
}

func TestLocator_OverrideDirOverlappingSearchDir(t *testing.T) {
	exeDir := t.TempDir()

	_, err := newLocator(exeDir, map[string]string{EnvOverride: exeDir}).Resolve()
	require.Error(t, err)

	want := "Unable to locate daemon binary (tried: " +
		filepath.Join(exeDir, "codex_monitor_daemon") + ", " +
		filepath.Join(exeDir, "codex-monitor-daemon") + ")"
	assert.Equal(t, want, err.Error())
}
