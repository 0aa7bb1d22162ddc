package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/randalmurphal/codexmonitor/codexconfig"
	"github.com/randalmurphal/codexmonitor/files"
	"github.com/randalmurphal/codexmonitor/remote"
	"github.com/randalmurphal/codexmonitor/router"
	"github.com/randalmurphal/codexmonitor/settings"
	"github.com/randalmurphal/codexmonitor/workspace"
)

// cliConfig is the CLI's own configuration, read by viper.
type cliConfig struct {
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
	Output   string `mapstructure:"output"`
	Debug    bool   `mapstructure:"debug"`

	// Mobile enables local image conversion.
	Mobile bool `mapstructure:"mobile"`

	Remote struct {
		// Host overrides the remote backend host from the settings file.
		Host           string        `mapstructure:"host"`
		ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	} `mapstructure:"remote"`
}

// app holds the services a command works with. Commands that need them
// call open and close.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     cliConfig

	env settings.Environment

	store    *codexconfig.Store
	repo     *settings.Repository
	registry *workspace.Registry
	client   *remote.Client
	router   *router.Router
}

const defaultConnectTimeout = 5 * time.Second

func newApp() *app {
	return &app{v: viper.New(), env: settings.OSEnvironment{}}
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".codexmonitor")
	}
	return filepath.Join(dir, "codexmonitor")
}

// initConfig reads the config file and environment into a.cfg.
func (a *app) initConfig() error {
	a.v.SetDefault("data_dir", defaultDataDir())
	a.v.SetDefault("log_level", "info")
	a.v.SetDefault("output", "yaml")
	a.v.SetDefault("mobile", false)
	a.v.SetDefault("remote.host", "")
	a.v.SetDefault("remote.connect_timeout", defaultConnectTimeout)

	a.v.SetEnvPrefix("CODEXMONITOR")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(defaultDataDir())
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}
	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (a *app) setupLogging(w io.Writer) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if a.cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func (a *app) settingsPath() string {
	return settings.FilePath(a.cfg.DataDir)
}

func (a *app) workspacesPath() string {
	return filepath.Join(a.cfg.DataDir, workspace.FileName)
}

// open loads settings and workspaces, projects CODEX_HOME, connects to the
// remote backend when the settings ask for it and builds the router.
func (a *app) open(ctx context.Context) error {
	initial, err := settings.LoadFile(a.settingsPath())
	if err != nil {
		return err
	}
	if _, err := settings.ApplyDefaultCodexHome(a.env, initial, nil); err != nil {
		return fmt.Errorf("apply CODEX_HOME: %w", err)
	}

	a.store = codexconfig.NewStore(codexconfig.WithLookup(a.env.Lookup))
	a.repo, err = settings.NewRepository(settings.Config{
		Path:  a.settingsPath(),
		Store: a.store,
		Env:   a.env,
	}, initial)
	if err != nil {
		return err
	}

	a.registry, err = workspace.Load(a.workspacesPath())
	if err != nil {
		a.repo.Close()
		return err
	}

	a.client = remote.NewClient()
	if initial.BackendMode == settings.BackendRemote {
		a.connect(ctx, initial)
	}

	a.router, err = router.New(router.Config{
		Remote:   a.client,
		Files:    files.NewService(a.registry, a.env.Lookup),
		Settings: a.repo,
		Mobile:   a.cfg.Mobile,
	})
	if err != nil {
		a.close()
		return err
	}
	return nil
}

// connect tries the remote backend. Failure leaves the app in local mode.
func (a *app) connect(ctx context.Context, s settings.AppSettings) {
	host := a.cfg.Remote.Host
	if host == "" {
		host = s.RemoteBackendHost
	}
	timeout := a.cfg.Remote.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := a.client.Connect(ctx, host, s.RemoteBackendToken); err != nil {
		slog.Warn("remote backend unavailable, using local mode",
			slog.String("host", host),
			slog.Any("error", err))
	}
}

func (a *app) close() {
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.repo != nil {
		a.repo.Close()
	}
}

// run opens the app around fn.
func (a *app) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := a.open(ctx); err != nil {
		return err
	}
	defer a.close()
	return fn(ctx)
}
