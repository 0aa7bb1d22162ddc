package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/randalmurphal/codexmonitor/settings"
)

// DaemonConfig holds daemon process configuration.
type DaemonConfig struct {
	// Binary is the daemon executable. Empty resolves it with Locate.
	Binary string `json:"binary" yaml:"binary"`

	// Listen is the address the daemon serves on.
	// Default: settings.DefaultRemoteBackendHost
	Listen string `json:"listen" yaml:"listen"`

	// Token authenticates clients. Empty disables authentication.
	Token string `json:"token" yaml:"token"`

	// DataDir is passed to the daemon as its data directory.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// StartupTimeout is how long to wait for the daemon to accept
	// connections. Default: 10 seconds.
	StartupTimeout time.Duration `json:"startup_timeout" yaml:"startup_timeout"`

	// StopTimeout is how long Stop waits after interrupting the daemon
	// before killing it. Default: 5 seconds.
	StopTimeout time.Duration `json:"stop_timeout" yaml:"stop_timeout"`

	// Env provides additional environment variables for the daemon.
	Env map[string]string `json:"env" yaml:"env"`

	// Locate resolves the daemon binary when Binary is empty.
	Locate func() (string, error) `json:"-" yaml:"-"`

	// Ready reports whether the daemon is serving. Default: a TCP dial
	// to Listen.
	Ready func(ctx context.Context, listen string) error `json:"-" yaml:"-"`
}

// DefaultDaemonConfig returns a DaemonConfig with sensible defaults.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		Listen:         settings.DefaultRemoteBackendHost,
		StartupTimeout: 10 * time.Second,
		StopTimeout:    5 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	if c.Binary == "" && c.Locate == nil {
		return fmt.Errorf("binary or locate is required")
	}
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.StartupTimeout < 0 {
		return fmt.Errorf("startup_timeout must be >= 0")
	}
	if c.StopTimeout < 0 {
		return fmt.Errorf("stop_timeout must be >= 0")
	}
	return nil
}

// WithDefaults returns a copy of the config with defaults applied for unset fields.
func (c DaemonConfig) WithDefaults() DaemonConfig {
	defaults := DefaultDaemonConfig()

	if c.Listen == "" {
		c.Listen = defaults.Listen
	}
	if c.StartupTimeout == 0 {
		c.StartupTimeout = defaults.StartupTimeout
	}
	if c.StopTimeout == 0 {
		c.StopTimeout = defaults.StopTimeout
	}
	if c.Ready == nil {
		c.Ready = dialReady
	}
	return c
}

// Args returns the daemon command-line arguments.
func (c DaemonConfig) Args() []string {
	args := []string{"--listen", c.Listen}
	if c.Token != "" {
		args = append(args, "--token", c.Token)
	}
	if c.DataDir != "" {
		args = append(args, "--data-dir", c.DataDir)
	}
	return args
}
