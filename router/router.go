// Package router dispatches file and settings operations either to the
// local implementation or to a connected remote daemon. The decision is
// made on every call from the remote connection state.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/randalmurphal/codexmonitor/apperr"
	"github.com/randalmurphal/codexmonitor/files"
	"github.com/randalmurphal/codexmonitor/settings"
)

// Remote method names.
const (
	MethodFileRead           = "file_read"
	MethodFileWrite          = "file_write"
	MethodReadImageAsDataURL = "read_image_as_data_url"
	MethodGetAppSettings     = "get_app_settings"
	MethodUpdateAppSettings  = "update_app_settings"
)

// RuntimeMode says where an operation runs.
type RuntimeMode int

const (
	ModeLocal RuntimeMode = iota
	ModeRemote
)

// String returns the mode name.
func (m RuntimeMode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "local"
}

// Remote forwards calls to a daemon.
type Remote interface {
	IsConnected() bool
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// Files serves file operations locally.
type Files interface {
	Read(ctx context.Context, scope files.Scope, kind files.Kind, workspaceID string) (files.TextFileResponse, error)
	Write(ctx context.Context, scope files.Scope, kind files.Kind, workspaceID, content string) error
}

// Settings serves the local settings.
type Settings interface {
	Get(ctx context.Context) (settings.AppSettings, error)
	Update(ctx context.Context, next settings.AppSettings) (settings.UpdateResult, error)
}

// Config wires a Router.
type Config struct {
	Remote   Remote
	Files    Files
	Settings Settings

	// Mobile enables local image conversion, which desktop runtimes leave
	// to the remote daemon.
	Mobile bool

	// ReadImage converts a local image. Default: files.ReadImageAsDataURL.
	ReadImage func(path string) (string, error)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Files == nil {
		return errors.New("files is required")
	}
	if c.Settings == nil {
		return errors.New("settings is required")
	}
	return nil
}

// Router is the single dispatch point for routable operations.
type Router struct {
	cfg Config
}

// New creates a Router.
func New(cfg Config) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid router config: %w", err)
	}
	if cfg.ReadImage == nil {
		cfg.ReadImage = files.ReadImageAsDataURL
	}
	return &Router{cfg: cfg}, nil
}

// Mode reports where the next operation would run.
func (r *Router) Mode() RuntimeMode {
	if r.cfg.Remote != nil && r.cfg.Remote.IsConnected() {
		return ModeRemote
	}
	return ModeLocal
}

type fileParams struct {
	Scope       files.Scope `json:"scope"`
	Kind        files.Kind  `json:"kind"`
	WorkspaceID *string     `json:"workspaceId"`
	Content     *string     `json:"content,omitempty"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FileRead reads a scoped file.
func (r *Router) FileRead(ctx context.Context, scope files.Scope, kind files.Kind, workspaceID string) (files.TextFileResponse, error) {
	if r.route(MethodFileRead) == ModeRemote {
		raw, err := r.cfg.Remote.Call(ctx, MethodFileRead, fileParams{Scope: scope, Kind: kind, WorkspaceID: optional(workspaceID)})
		if err != nil {
			return files.TextFileResponse{}, err
		}
		return decode[files.TextFileResponse](MethodFileRead, raw)
	}
	return r.cfg.Files.Read(ctx, scope, kind, workspaceID)
}

// FileWrite writes a scoped file.
func (r *Router) FileWrite(ctx context.Context, scope files.Scope, kind files.Kind, workspaceID, content string) error {
	if r.route(MethodFileWrite) == ModeRemote {
		_, err := r.cfg.Remote.Call(ctx, MethodFileWrite, fileParams{
			Scope:       scope,
			Kind:        kind,
			WorkspaceID: optional(workspaceID),
			Content:     &content,
		})
		return err
	}
	return r.cfg.Files.Write(ctx, scope, kind, workspaceID, content)
}

// ReadImageAsDataURL converts an image to a data URL. It only runs in
// remote mode or on mobile runtimes.
func (r *Router) ReadImageAsDataURL(ctx context.Context, path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", apperr.Message(apperr.KindValidation, "Image path is required")
	}
	mode := r.route(MethodReadImageAsDataURL)
	if mode != ModeRemote && !r.cfg.Mobile {
		return "", apperr.Message(apperr.KindUnsupported,
			"Image conversion is only supported in remote backend mode or on mobile runtimes")
	}

	normalized := files.NormalizePath(trimmed)
	if normalized == "" {
		return "", apperr.Message(apperr.KindValidation, "Image path is required")
	}

	if mode == ModeRemote {
		raw, err := r.cfg.Remote.Call(ctx, MethodReadImageAsDataURL, map[string]string{"path": normalized})
		if err != nil {
			return "", err
		}
		return decode[string](MethodReadImageAsDataURL, raw)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.cfg.ReadImage(normalized)
}

// GetSettings returns the current settings.
func (r *Router) GetSettings(ctx context.Context) (settings.AppSettings, error) {
	if r.route(MethodGetAppSettings) == ModeRemote {
		raw, err := r.cfg.Remote.Call(ctx, MethodGetAppSettings, nil)
		if err != nil {
			return settings.AppSettings{}, err
		}
		return decode[settings.AppSettings](MethodGetAppSettings, raw)
	}
	return r.cfg.Settings.Get(ctx)
}

// UpdateSettings replaces the settings. Remote updates report only the
// settings the daemon returns.
func (r *Router) UpdateSettings(ctx context.Context, next settings.AppSettings) (settings.UpdateResult, error) {
	if r.route(MethodUpdateAppSettings) == ModeRemote {
		raw, err := r.cfg.Remote.Call(ctx, MethodUpdateAppSettings, map[string]settings.AppSettings{"settings": next})
		if err != nil {
			return settings.UpdateResult{}, err
		}
		s, err := decode[settings.AppSettings](MethodUpdateAppSettings, raw)
		if err != nil {
			return settings.UpdateResult{}, err
		}
		return settings.UpdateResult{Settings: s, Changed: true}, nil
	}
	return r.cfg.Settings.Update(ctx, next)
}

func (r *Router) route(method string) RuntimeMode {
	mode := r.Mode()
	slog.Debug("routing operation", slog.String("method", method), slog.String("mode", mode.String()))
	return mode
}

// decode unmarshals a remote result into the local result type.
func decode[T any](method string, raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, apperr.Newf(apperr.KindRouting, method, "decode response: %v", err)
	}
	return v, nil
}
