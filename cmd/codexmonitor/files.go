package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/codexmonitor/files"
)

type fileTarget struct {
	scope       string
	kind        string
	workspaceID string
}

func (t *fileTarget) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.scope, "scope", string(files.ScopeGlobal), "file scope: global or workspace")
	cmd.Flags().StringVar(&t.kind, "kind", string(files.KindAgents), "file kind: agents or config")
	cmd.Flags().StringVarP(&t.workspaceID, "workspace", "w", "", "workspace id (workspace scope)")
}

func newFilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Read and write AGENTS.md and config.toml",
		Long: `Read and write the instruction and config files Codex uses.

  --scope global    --kind agents   $CODEX_HOME/AGENTS.md
  --scope global    --kind config   $CODEX_HOME/config.toml
  --scope workspace --kind agents   <workspace>/AGENTS.md`,
	}

	var readTarget fileTarget
	read := &cobra.Command{
		Use:   "read",
		Short: "Print a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				resp, err := a.router.FileRead(ctx, files.Scope(readTarget.scope), files.Kind(readTarget.kind), readTarget.workspaceID)
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), resp)
			})
		},
	}
	readTarget.bind(read)

	var writeTarget fileTarget
	var content string
	write := &cobra.Command{
		Use:   "write",
		Short: "Replace a file with --content or standard input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := contentOrStdin(cmd, content)
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), func(ctx context.Context) error {
				return a.router.FileWrite(ctx, files.Scope(writeTarget.scope), files.Kind(writeTarget.kind), writeTarget.workspaceID, body)
			})
		},
	}
	writeTarget.bind(write)
	write.Flags().StringVar(&content, "content", "", "file content (default: read standard input)")

	var exportContent string
	export := &cobra.Command{
		Use:   "export <path>",
		Short: "Write --content or standard input to a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := contentOrStdin(cmd, exportContent)
			if err != nil {
				return err
			}
			return files.WriteTextFile(args[0], body)
		},
	}
	export.Flags().StringVar(&exportContent, "content", "", "file content (default: read standard input)")

	cmd.AddCommand(read, write, export)
	return cmd
}

func contentOrStdin(cmd *cobra.Command, content string) (string, error) {
	if cmd.Flags().Changed("content") {
		return content, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read standard input: %w", err)
	}
	return string(data), nil
}

func newImageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "image <path>",
		Short: "Print an image as a data URL",
		Long: `Print an image as a data: URL.

Conversion runs on the remote backend, or locally with --mobile.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				url, err := a.router.ReadImageAsDataURL(ctx, args[0])
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), url)
			})
		},
	}
}
