package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/codexmonitor/daemonbin"
	"github.com/randalmurphal/codexmonitor/remote"
	"github.com/randalmurphal/codexmonitor/settings"
)

func newDaemonCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Locate or run the remote backend daemon",
	}

	locate := &cobra.Command{
		Use:   "locate",
		Short: "Print the daemon binary path",
		Long: `Print the daemon binary path.

` + daemonbin.EnvOverride + ` names a binary, or a directory searched
first. Then the directory of this executable and the platform's system
binary directories are searched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := daemonbin.NewLocator().Resolve()
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), path)
		},
	}

	var binary, listen string
	start := &cobra.Command{
		Use:   "start",
		Short: "Run the daemon until interrupted",
		Long: `Run the daemon in the foreground until interrupted.

The listen address and token default to remoteBackendHost and
remoteBackendToken from the settings file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.LoadFile(a.settingsPath())
			if err != nil {
				return err
			}
			cfg := remote.DaemonConfig{
				Binary:  binary,
				Listen:  listen,
				Token:   s.RemoteBackendToken,
				DataDir: a.cfg.DataDir,
				Locate:  daemonbin.NewLocator().Resolve,
			}
			if cfg.Listen == "" {
				cfg.Listen = s.RemoteBackendHost
			}
			return runDaemon(cmd.Context(), remote.NewDaemon(cfg))
		},
	}
	start.Flags().StringVar(&binary, "binary", "", "daemon binary (default: locate it)")
	start.Flags().StringVar(&listen, "listen", "", "listen address (default: remoteBackendHost)")

	cmd.AddCommand(locate, start)
	return cmd
}

// runDaemon starts d and stops it when ctx ends or the process exits.
func runDaemon(ctx context.Context, d *remote.Daemon) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		slog.Info("stopping daemon")
		return d.Stop()
	case <-d.Done():
		return d.ExitError()
	}
}
