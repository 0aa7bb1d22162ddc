// Package codexargs parses and resolves the extra command-line arguments
// passed to the codex binary.
package codexargs

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/randalmurphal/codexmonitor/apperr"
	"github.com/randalmurphal/codexmonitor/settings"
	"github.com/randalmurphal/codexmonitor/workspace"
)

// DefaultBinary is used when no codex binary is configured.
const DefaultBinary = "codex"

// Parse splits raw using shell quoting rules. Blank input yields an empty
// slice and empty tokens are dropped.
func Parse(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	words, err := shellquote.Split(raw)
	if err != nil {
		return nil, apperr.Newf(apperr.KindValidation, "", "Invalid Codex args: %v", err)
	}
	args := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			args = append(args, w)
		}
	}
	return args, nil
}

// ResolveEffective returns the argument string that applies to a workspace.
// Only the app-level value is consulted; entry and parent are accepted so
// callers do not change when workspace overrides are introduced.
func ResolveEffective(entry, parent *workspace.Entry, app *settings.AppSettings) (string, bool) {
	if app == nil {
		return "", false
	}
	args := strings.TrimSpace(app.CodexArgs)
	if args == "" {
		return "", false
	}
	return args, true
}

// Command is a resolved codex invocation.
type Command struct {
	Path string
	Args []string
}

// String renders the command with shell quoting.
func (c Command) String() string {
	return shellquote.Join(append([]string{c.Path}, c.Args...)...)
}

// BuildCommand resolves the binary and effective arguments for a workspace.
func BuildCommand(app settings.AppSettings, entry, parent *workspace.Entry) (Command, error) {
	cmd := Command{Path: strings.TrimSpace(app.CodexBin), Args: []string{}}
	if cmd.Path == "" {
		cmd.Path = DefaultBinary
	}
	raw, ok := ResolveEffective(entry, parent, &app)
	if !ok {
		return cmd, nil
	}
	args, err := Parse(raw)
	if err != nil {
		return Command{}, err
	}
	cmd.Args = args
	return cmd, nil
}
