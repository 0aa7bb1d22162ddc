package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/codexmonitor/workspace"
)

func newWorkspaceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage known workspaces",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(context.Context) error {
				return a.print(cmd.OutOrStdout(), a.registry.List())
			})
		},
	}

	var name, parentID, branch string
	add := &cobra.Command{
		Use:   "add <path>",
		Short: "Register a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(context.Context) error {
				entry := workspace.Entry{Name: name, Path: args[0]}
				if parentID != "" {
					entry.Kind = workspace.KindWorktree
					entry.ParentID = parentID
					entry.Worktree = &workspace.WorktreeInfo{Branch: branch}
				}
				stored, err := a.registry.Add(entry)
				if err != nil {
					return err
				}
				if err := a.registry.Save(a.workspacesPath()); err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), stored)
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name (default: directory name)")
	add.Flags().StringVar(&parentID, "parent", "", "register as a worktree of this workspace")
	add.Flags().StringVar(&branch, "branch", "", "worktree branch")

	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Register the workspaces listed in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return a.run(cmd.Context(), func(context.Context) error {
				imported, err := a.registry.ImportYAML(data)
				if err != nil {
					return err
				}
				if err := a.registry.Save(a.workspacesPath()); err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), imported)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <workspace-id>",
		Short: "Forget a workspace and its worktrees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(context.Context) error {
				if _, err := a.registry.Lookup(args[0]); err != nil {
					return err
				}
				a.registry.Remove(args[0])
				return a.registry.Save(a.workspacesPath())
			})
		},
	}

	cmd.AddCommand(list, add, importCmd, remove)
	return cmd
}
