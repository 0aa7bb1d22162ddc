package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/codexmonitor/codexconfig"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the Codex config.toml",
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config.toml path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(context.Context) error {
				p, err := a.store.Path()
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), p)
			})
		},
	}

	features := &cobra.Command{
		Use:   "features",
		Short: "Print the managed feature flags as config.toml has them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(context.Context) error {
				out := make(map[string]any)
				for _, name := range codexconfig.ManagedFeatures() {
					v, ok, err := a.store.ReadFeature(name)
					switch {
					case err != nil:
						out[name] = "error: " + err.Error()
					case ok:
						out[name] = v
					default:
						out[name] = "unset"
					}
				}
				if p, ok, err := a.store.ReadPersonality(); err == nil && ok {
					out[codexconfig.KeyPersonality] = p
				}
				return a.print(cmd.OutOrStdout(), out)
			})
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print the config.toml path whenever it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				err := a.store.WatchAndInvalidate(ctx, func(path string) {
					fmt.Fprintln(cmd.OutOrStdout(), path)
				})
				if err != nil {
					return err
				}
				<-ctx.Done()
				return nil
			})
		},
	}

	cmd.AddCommand(path, features, watch)
	return cmd
}
