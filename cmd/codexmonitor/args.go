package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/codexmonitor/codexargs"
	"github.com/randalmurphal/codexmonitor/workspace"
)

func newArgsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "args",
		Short: "Inspect codex command-line arguments",
	}

	parse := &cobra.Command{
		Use:   "parse <args>",
		Short: "Split a shell-quoted argument string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := codexargs.Parse(args[0])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), tokens)
		},
	}

	resolve := &cobra.Command{
		Use:   "resolve [workspace-id]",
		Short: "Print the codex command a workspace would run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				command, err := a.codexCommand(ctx, args)
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), command.String())
			})
		},
	}

	doctor := &cobra.Command{
		Use:   "doctor [workspace-id]",
		Short: "Check that the configured codex binary runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				command, err := a.codexCommand(ctx, args)
				if err != nil {
					return err
				}
				result, err := codexargs.Doctor(ctx, command, nil)
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.AddCommand(parse, resolve, doctor)
	return cmd
}

// codexCommand builds the codex command for the optional workspace id in args.
func (a *app) codexCommand(ctx context.Context, args []string) (codexargs.Command, error) {
	var entry, parent *workspace.Entry
	if len(args) == 1 {
		e, err := a.registry.Lookup(args[0])
		if err != nil {
			return codexargs.Command{}, err
		}
		entry = &e
		if p, ok := a.registry.Parent(e); ok {
			parent = &p
		}
	}

	s, err := a.router.GetSettings(ctx)
	if err != nil {
		return codexargs.Command{}, err
	}
	return codexargs.BuildCommand(s, entry, parent)
}
