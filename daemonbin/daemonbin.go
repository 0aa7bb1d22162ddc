// Package daemonbin locates the codex-monitor daemon binary.
package daemonbin

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/randalmurphal/codexmonitor/apperr"
)

// EnvOverride names a daemon binary, or a directory holding one, that is
// tried before the default search directories.
const EnvOverride = "CODEX_MONITOR_DAEMON_PATH"

// Candidates returns the daemon file names for goos, preferred name first.
func Candidates(goos string) []string {
	if goos == "windows" {
		return []string{"codex_monitor_daemon.exe", "codex-monitor-daemon.exe"}
	}
	return []string{"codex_monitor_daemon", "codex-monitor-daemon"}
}

// SearchDirs returns the directories searched for the daemon, starting with
// the directory of the running executable.
func SearchDirs(exeDir, goos string) []string {
	var dirs []string
	add := func(dir string) {
		for _, d := range dirs {
			if d == dir {
				return
			}
		}
		dirs = append(dirs, dir)
	}

	add(exeDir)
	switch goos {
	case "darwin":
		// App bundles ship helpers in Contents/Resources next to Contents/MacOS.
		add(filepath.Join(filepath.Dir(exeDir), "Resources"))
		add("/opt/homebrew/bin")
		add("/usr/local/bin")
	case "linux":
		add("/usr/local/bin")
		add("/usr/bin")
		add("/usr/sbin")
	}
	return dirs
}

// Locator resolves the daemon binary path.
type Locator struct {
	GOOS       string
	Executable func() (string, error)
	Lookup     func(key string) (string, bool)
}

// NewLocator returns a Locator for the running process.
func NewLocator() *Locator {
	return &Locator{GOOS: runtime.GOOS, Executable: os.Executable, Lookup: os.LookupEnv}
}

// Resolve returns the first existing regular file among the candidates.
// The override wins when it names a file; when it names a directory that
// directory is searched first. On failure the error lists every attempted
// path once, in search order.
func (l *Locator) Resolve() (string, error) {
	exe, err := l.Executable()
	if err != nil {
		return "", apperr.New(apperr.KindNotFound, "", err)
	}
	exeDir := filepath.Dir(exe)
	names := Candidates(l.GOOS)

	var attempted []string
	seen := make(map[string]bool)
	try := func(path string) bool {
		if isFile(path) {
			return true
		}
		if !seen[path] {
			seen[path] = true
			attempted = append(attempted, path)
		}
		return false
	}

	if override := l.override(); override != "" {
		if isFile(override) {
			return override, nil
		}
		if isDir(override) {
			for _, name := range names {
				if p := filepath.Join(override, name); try(p) {
					return p, nil
				}
			}
		} else {
			try(override)
		}
	}

	for _, dir := range SearchDirs(exeDir, l.GOOS) {
		for _, name := range names {
			if p := filepath.Join(dir, name); try(p) {
				return p, nil
			}
		}
	}

	return "", apperr.Newf(apperr.KindNotFound, "", "Unable to locate daemon binary (tried: %s)", strings.Join(attempted, ", "))
}

func (l *Locator) override() string {
	if l.Lookup == nil {
		return ""
	}
	v, _ := l.Lookup(EnvOverride)
	return strings.TrimSpace(v)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
