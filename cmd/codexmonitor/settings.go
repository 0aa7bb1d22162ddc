package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/codexmonitor/settings"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change app settings",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				s, err := a.router.GetSettings(ctx)
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), s)
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long: `Change one setting and persist it.

Keys use the settings file spelling (codexArgs) or the YAML spelling
(codex_args). Feature flags and personality are mirrored into config.toml;
mirror failures are reported as warnings and do not fail the command.

Examples:
  codexmonitor settings set personality pragmatic
  codexmonitor settings set codexArgs '--profile work -c model="o3"'
  codexmonitor settings set default_codex_home ~/work/.codex`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				current, err := a.router.GetSettings(ctx)
				if err != nil {
					return err
				}
				if err := settings.SetField(&current, args[0], args[1]); err != nil {
					return err
				}
				res, err := a.router.UpdateSettings(ctx, current)
				if err != nil {
					return err
				}
				reportUpdate(res)
				return a.print(cmd.OutOrStdout(), res.Settings)
			})
		},
	}

	token := &cobra.Command{
		Use:   "token <value>",
		Short: "Set the remote backend token; an empty value clears it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				res, err := a.repo.UpdateRemoteToken(ctx, args[0])
				if err != nil {
					return err
				}
				reportUpdate(res)
				if !res.Changed {
					return a.print(cmd.OutOrStdout(), "token unchanged")
				}
				return a.print(cmd.OutOrStdout(), "token updated")
			})
		},
	}

	schema := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(settings.Schema(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal schema: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	keys := &cobra.Command{
		Use:   "keys",
		Short: "List setting keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.print(cmd.OutOrStdout(), settings.Keys())
		},
	}

	cmd.AddCommand(get, set, token, schema, keys)
	return cmd
}

// reportUpdate logs the side effects of a committed update.
func reportUpdate(res settings.UpdateResult) {
	for _, me := range res.MirrorErrors {
		slog.Warn("config.toml not updated", slog.String("key", me.Key), slog.Any("error", me.Err))
	}
	if res.Env.Action != settings.EnvUnchanged {
		slog.Debug("environment updated",
			slog.String("key", res.Env.Key),
			slog.String("action", res.Env.Action.String()))
	}
}
