package codexargs

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// MinimumVersion is the oldest codex CLI whose app-server protocol is
// supported.
const MinimumVersion = "0.71.0"

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// Version is a parsed codex CLI version.
type Version struct {
	Major int    `json:"major" yaml:"major"`
	Minor int    `json:"minor" yaml:"minor"`
	Patch int    `json:"patch" yaml:"patch"`
	Raw   string `json:"raw" yaml:"raw"`
}

// ParseVersion extracts the first x.y.z triple from s, such as the output
// of "codex --version".
func ParseVersion(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("invalid version format: %q", strings.TrimSpace(s))
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return Version{Major: major, Minor: minor, Patch: patch, Raw: m[0]}, nil
}

// Compare returns -1, 0 or 1 as v is older than, equal to or newer than other.
func (v Version) Compare(other Version) int {
	for _, d := range [...]int{v.Major - other.Major, v.Minor - other.Minor, v.Patch - other.Patch} {
		switch {
		case d < 0:
			return -1
		case d > 0:
			return 1
		}
	}
	return 0
}

func (v Version) String() string { return v.Raw }

// DoctorResult reports whether the configured codex binary is usable.
type DoctorResult struct {
	OK      bool     `json:"ok" yaml:"ok"`
	Path    string   `json:"codexBin" yaml:"codex_bin"`
	Args    []string `json:"codexArgs" yaml:"codex_args"`
	Version string   `json:"version,omitempty" yaml:"version,omitempty"`
	Details string   `json:"details,omitempty" yaml:"details,omitempty"`
}

// Runner runs a program and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the program with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Doctor runs "<bin> --version" for cmd and checks the reported version
// against MinimumVersion. Problems are reported in the result, not as an
// error; only a cancelled ctx returns one.
func Doctor(ctx context.Context, cmd Command, run Runner) (DoctorResult, error) {
	if run == nil {
		run = ExecRunner
	}
	result := DoctorResult{Path: cmd.Path, Args: cmd.Args}

	out, err := run(ctx, cmd.Path, "--version")
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	if err != nil {
		result.Details = fmt.Sprintf("failed to run %s --version: %v", cmd.Path, err)
		slog.Debug("codex doctor failed", slog.String("path", cmd.Path), slog.Any("error", err))
		return result, nil
	}

	v, err := ParseVersion(string(out))
	if err != nil {
		result.Details = err.Error()
		return result, nil
	}
	result.Version = v.Raw

	minimum, _ := ParseVersion(MinimumVersion)
	if v.Compare(minimum) < 0 {
		result.Details = fmt.Sprintf("codex %s is older than the minimum supported %s", v, MinimumVersion)
		return result, nil
	}
	result.OK = true
	return result, nil
}
