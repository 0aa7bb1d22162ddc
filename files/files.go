// Package files reads and writes the instruction and config files a user
// edits from the monitor: AGENTS.md and config.toml, globally under
// CODEX_HOME or inside a workspace.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/randalmurphal/codexmonitor/apperr"
	"github.com/randalmurphal/codexmonitor/codexconfig"
	"github.com/randalmurphal/codexmonitor/workspace"
)

// MaxTextFileBytes caps how much of a text file Read returns.
const MaxTextFileBytes = 400_000

// Scope selects where a file lives.
type Scope string

const (
	ScopeWorkspace Scope = "workspace"
	ScopeGlobal    Scope = "global"
)

// Kind selects which file is addressed.
type Kind string

const (
	KindAgents Kind = "agents"
	KindConfig Kind = "config"
)

// TextFileResponse is the result of reading a text file.
type TextFileResponse struct {
	Exists    bool   `json:"exists" yaml:"exists"`
	Content   string `json:"content" yaml:"content"`
	Truncated bool   `json:"truncated" yaml:"truncated"`
}

// Workspaces resolves workspace IDs.
type Workspaces interface {
	Lookup(id string) (workspace.Entry, error)
}

// Service serves file reads and writes on the local machine.
type Service struct {
	workspaces Workspaces
	lookup     codexconfig.LookupFunc
}

// NewService creates a Service. lookup resolves CODEX_HOME; nil uses the
// process environment.
func NewService(workspaces Workspaces, lookup codexconfig.LookupFunc) *Service {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Service{workspaces: workspaces, lookup: lookup}
}

// Resolve maps a scope, kind and optional workspace to a file path.
func (s *Service) Resolve(scope Scope, kind Kind, workspaceID string) (string, error) {
	var name string
	switch kind {
	case KindAgents:
		name = codexconfig.FileAgentsMD
	case KindConfig:
		name = codexconfig.FileConfig
	default:
		return "", apperr.Newf(apperr.KindValidation, "", "Unsupported file kind: %s", kind)
	}

	switch scope {
	case ScopeGlobal:
		home, err := codexconfig.CodexHome(s.lookup)
		if err != nil {
			return "", apperr.New(apperr.KindNotFound, "", err)
		}
		return filepath.Join(home, name), nil
	case ScopeWorkspace:
		if kind == KindConfig {
			return "", apperr.Message(apperr.KindValidation, "config.toml is only supported in global scope")
		}
		if workspaceID == "" {
			return "", apperr.Message(apperr.KindValidation, "workspaceId is required")
		}
		if s.workspaces == nil {
			return "", apperr.Message(apperr.KindNotFound, "workspace not found")
		}
		entry, err := s.workspaces.Lookup(workspaceID)
		if err != nil {
			return "", err
		}
		return filepath.Join(entry.Path, name), nil
	default:
		return "", apperr.Newf(apperr.KindValidation, "", "Unsupported file scope: %s", scope)
	}
}

// Read returns the content of the addressed file, capped at
// MaxTextFileBytes. A missing file is reported with Exists false.
func (s *Service) Read(ctx context.Context, scope Scope, kind Kind, workspaceID string) (TextFileResponse, error) {
	if err := ctx.Err(); err != nil {
		return TextFileResponse{}, err
	}
	path, err := s.Resolve(scope, kind, workspaceID)
	if err != nil {
		return TextFileResponse{}, err
	}
	resp, err := ReadTextFile(path, MaxTextFileBytes)
	if err != nil {
		return TextFileResponse{}, apperr.New(apperr.KindRouting, "file_read", err)
	}
	slog.Debug("file read",
		slog.String("path", path),
		slog.Bool("exists", resp.Exists),
		slog.Bool("truncated", resp.Truncated))
	return resp, nil
}

// Write replaces the addressed file, creating parent directories.
func (s *Service) Write(ctx context.Context, scope Scope, kind Kind, workspaceID, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.Resolve(scope, kind, workspaceID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.New(apperr.KindRouting, "file_write", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return apperr.New(apperr.KindRouting, "file_write", err)
	}
	slog.Debug("file written", slog.String("path", path), slog.Int("bytes", len(content)))
	return nil
}

// ReadTextFile reads at most limit bytes of path. Truncation never splits
// a UTF-8 sequence.
func ReadTextFile(path string, limit int) (TextFileResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TextFileResponse{}, nil
		}
		return TextFileResponse{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return TextFileResponse{}, err
	}
	if info.IsDir() {
		return TextFileResponse{}, fmt.Errorf("%s is a directory", path)
	}

	data, err := io.ReadAll(io.LimitReader(f, int64(limit)+1))
	if err != nil {
		return TextFileResponse{}, err
	}
	resp := TextFileResponse{Exists: true}
	if len(data) > limit {
		data = data[:limit]
		for len(data) > 0 && !utf8.Valid(data) {
			data = data[:len(data)-1]
		}
		resp.Truncated = true
	}
	resp.Content = string(data)
	return resp, nil
}

// WriteTextFile writes content to path, creating parent directories.
func WriteTextFile(path, content string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return apperr.Message(apperr.KindValidation, "Path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperr.Newf(apperr.KindRouting, "", "Failed to create export directory: %v", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return apperr.Newf(apperr.KindRouting, "", "Failed to write export file: %v", err)
	}
	return nil
}
