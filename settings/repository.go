package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/randalmurphal/codexmonitor/apperr"
	"github.com/randalmurphal/codexmonitor/codexconfig"
)

// ErrClosed is returned by Repository methods after Close.
var ErrClosed = errors.New("settings repository closed")

// ConfigStore is the external store that owns the mirrored flags.
// *codexconfig.Store satisfies it.
type ConfigStore interface {
	ReadFeature(name string) (value bool, ok bool, err error)
	WriteFeature(name string, value bool) error
	ReadPersonality() (string, bool, error)
	WritePersonality(value string) error
}

// mirroredFlag binds a config.toml feature to an AppSettings field.
type mirroredFlag struct {
	feature string
	field   func(*AppSettings) *bool
}

var mirroredFlags = []mirroredFlag{
	{codexconfig.FeatureCollab, func(s *AppSettings) *bool { return &s.ExperimentalCollabEnabled }},
	{codexconfig.FeatureCollaborationModes, func(s *AppSettings) *bool { return &s.CollaborationModesEnabled }},
	{codexconfig.FeatureSteer, func(s *AppSettings) *bool { return &s.SteerEnabled }},
	{codexconfig.FeatureUnifiedExec, func(s *AppSettings) *bool { return &s.UnifiedExecEnabled }},
	{codexconfig.FeatureApps, func(s *AppSettings) *bool { return &s.ExperimentalAppsEnabled }},
}

// Config configures a Repository.
type Config struct {
	// Path is the settings file. Required.
	Path string

	// Store mirrors feature flags and personality. Nil disables mirroring.
	Store ConfigStore

	// Env receives the CODEX_HOME projection. Default: OSEnvironment.
	Env Environment

	// Write persists settings. Default: WriteFile.
	Write func(path string, s AppSettings) error
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("settings path is required")
	}
	return nil
}

// WithDefaults returns a copy of the config with defaults applied for unset fields.
func (c Config) WithDefaults() Config {
	if c.Env == nil {
		c.Env = OSEnvironment{}
	}
	if c.Write == nil {
		c.Write = WriteFile
	}
	return c
}

// MirrorError is a best-effort config.toml write that failed.
// The settings file was still committed.
type MirrorError struct {
	Key string
	Err error
}

func (e MirrorError) Error() string {
	return fmt.Sprintf("mirror %s: %v", e.Key, e.Err)
}

func (e MirrorError) Unwrap() error { return e.Err }

// UpdateResult is the outcome of a committed update.
type UpdateResult struct {
	Settings AppSettings
	// Changed is false when the update was skipped as a no-op.
	Changed bool
	Env     EnvChange
	// MirrorErrors lists config.toml writes that failed. They are warnings:
	// the settings file is authoritative and was written.
	MirrorErrors []MirrorError
}

// Repository owns the process settings. A single goroutine holds the value
// and applies requests one at a time, so updates, their config.toml writes
// and their environment changes never interleave.
type Repository struct {
	cfg Config

	requests  chan request
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type request struct {
	fn   func(current *AppSettings)
	done chan struct{}
}

// NewRepository starts a repository holding initial.
func NewRepository(cfg Config, initial AppSettings) (*Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Repository{
		cfg:      cfg.WithDefaults(),
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.run(initial.Normalized())
	return r, nil
}

// Open loads the settings file at cfg.Path and starts a repository.
func Open(cfg Config) (*Repository, error) {
	initial, err := LoadFile(cfg.Path)
	if err != nil {
		return nil, err
	}
	return NewRepository(cfg, initial)
}

// Close stops the repository goroutine. Requests made afterwards fail with
// ErrClosed.
func (r *Repository) Close() {
	r.closeOnce.Do(func() { close(r.quit) })
	<-r.done
}

func (r *Repository) run(current AppSettings) {
	defer close(r.done)
	for {
		select {
		case <-r.quit:
			return
		case req := <-r.requests:
			req.fn(&current)
			close(req.done)
		}
	}
}

// do runs fn on the repository goroutine. ctx only bounds the wait for a
// turn: once fn has started it runs to completion, so a cancelled caller
// never leaves an update half applied.
func (r *Repository) do(ctx context.Context, fn func(current *AppSettings)) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case r.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.quit:
		return ErrClosed
	}
	<-req.done
	return nil
}

// Get returns the current settings with the config.toml values overlaid.
// A mirrored flag takes the config.toml value when the read succeeds and
// the key is present; otherwise the cached value stands. The personality
// follows config.toml whenever it can be read: an absent or unrecognized
// value resolves to friendly.
func (r *Repository) Get(ctx context.Context) (AppSettings, error) {
	var snapshot AppSettings
	if err := r.do(ctx, func(current *AppSettings) { snapshot = *current }); err != nil {
		return AppSettings{}, err
	}
	if r.cfg.Store == nil {
		return snapshot, nil
	}
	return overlay(r.cfg.Store, snapshot), nil
}

func overlay(store ConfigStore, s AppSettings) AppSettings {
	for _, flag := range mirroredFlags {
		v, ok, err := store.ReadFeature(flag.feature)
		if err != nil {
			slog.Debug("config overlay read failed",
				slog.String("feature", flag.feature), slog.Any("error", err))
			continue
		}
		if ok {
			*flag.field(&s) = v
		}
	}
	p, _, err := store.ReadPersonality()
	if err != nil {
		slog.Debug("config overlay read failed",
			slog.String("key", codexconfig.KeyPersonality), slog.Any("error", err))
		return s
	}
	s.Personality = NormalizePersonality(p)
	return s
}

// Update replaces the settings.
//
// The settings file is written first; if that fails nothing else happens
// and a KindPersistence error is returned. After the commit, CODEX_HOME is
// projected and the mirrored values are written to config.toml. Mirror
// failures are reported in UpdateResult.MirrorErrors, not as an error.
func (r *Repository) Update(ctx context.Context, next AppSettings) (UpdateResult, error) {
	var (
		result UpdateResult
		err    error
	)
	if doErr := r.do(ctx, func(current *AppSettings) {
		result, err = r.apply(current, next)
	}); doErr != nil {
		return UpdateResult{}, doErr
	}
	return result, err
}

// UpdateRemoteToken sets the remote backend token. The token is trimmed and
// blank means absent. An unchanged token returns the current settings
// without touching disk or config.toml.
func (r *Repository) UpdateRemoteToken(ctx context.Context, token string) (UpdateResult, error) {
	normalized := NormalizeToken(token)
	var (
		result UpdateResult
		err    error
	)
	if doErr := r.do(ctx, func(current *AppSettings) {
		if current.RemoteBackendToken == normalized {
			result = UpdateResult{Settings: *current}
			return
		}
		next := *current
		next.RemoteBackendToken = normalized
		result, err = r.apply(current, next)
	}); doErr != nil {
		return UpdateResult{}, doErr
	}
	return result, err
}

// apply runs on the repository goroutine.
func (r *Repository) apply(current *AppSettings, next AppSettings) (UpdateResult, error) {
	next = next.Normalized()
	previous := *current

	if err := r.cfg.Write(r.cfg.Path, next); err != nil {
		return UpdateResult{}, apperr.New(apperr.KindPersistence, "update_settings", err)
	}

	result := UpdateResult{Settings: next, Changed: true}

	change, err := ApplyDefaultCodexHome(r.cfg.Env, next, &previous)
	if err != nil {
		slog.Warn("apply CODEX_HOME failed", slog.Any("error", err))
		result.MirrorErrors = append(result.MirrorErrors, MirrorError{Key: codexconfig.EnvCodexHome, Err: err})
	}
	result.Env = change

	if r.cfg.Store != nil {
		result.MirrorErrors = append(result.MirrorErrors, mirror(r.cfg.Store, next)...)
	}

	*current = next
	return result, nil
}

func mirror(store ConfigStore, s AppSettings) []MirrorError {
	var errs []MirrorError
	for _, flag := range mirroredFlags {
		if err := store.WriteFeature(flag.feature, *flag.field(&s)); err != nil {
			errs = append(errs, MirrorError{
				Key: codexconfig.TableFeatures + "." + flag.feature,
				Err: apperr.New(apperr.KindConfigStore, "write_config", err),
			})
		}
	}
	if err := store.WritePersonality(string(s.Personality)); err != nil {
		errs = append(errs, MirrorError{
			Key: codexconfig.KeyPersonality,
			Err: apperr.New(apperr.KindConfigStore, "write_config", err),
		})
	}
	for _, e := range errs {
		slog.Warn("config mirror write failed",
			slog.String("key", e.Key), slog.Any("error", e.Err))
	}
	return errs
}
