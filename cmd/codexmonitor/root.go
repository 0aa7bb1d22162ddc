package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "codexmonitor",
		Short: "Manage Codex Monitor settings, workspace files and the backend daemon",
		Long: `codexmonitor manages the settings Codex Monitor shares with Codex.

Settings live in <data-dir>/settings.json. Feature flags and the
personality are mirrored into $CODEX_HOME/config.toml, and the default
Codex home is exported as CODEX_HOME. When backendMode is "remote" and the
daemon is reachable, file and settings operations run on the daemon.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(); err != nil {
				return err
			}
			a.setupLogging(cmd.ErrOrStderr())
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: <user config dir>/codexmonitor/config.yaml)")
	flags.String("data-dir", "", "directory holding settings.json and workspaces.json")
	flags.StringP("output", "o", "", "output format: yaml or json")
	flags.Bool("debug", false, "enable debug logging")
	flags.Bool("mobile", false, "allow local image conversion")
	flags.String("remote-host", "", "override the remote backend host")

	_ = a.v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = a.v.BindPFlag("output", flags.Lookup("output"))
	_ = a.v.BindPFlag("debug", flags.Lookup("debug"))
	_ = a.v.BindPFlag("mobile", flags.Lookup("mobile"))
	_ = a.v.BindPFlag("remote.host", flags.Lookup("remote-host"))

	root.AddCommand(
		newSettingsCmd(a),
		newArgsCmd(a),
		newWorkspaceCmd(a),
		newFilesCmd(a),
		newImageCmd(a),
		newConfigCmd(a),
		newDaemonCmd(a),
	)
	return root
}

// print writes v in the configured output format. Strings are written as is.
func (a *app) print(w io.Writer, v any) error {
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	switch a.cfg.Output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want yaml or json)", a.cfg.Output)
	}
}
