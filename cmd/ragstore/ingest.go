package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewIngestCmd 构建 ingest 命令
func NewIngestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <folder>",
		Short: "Recursively ingest all supported documents from a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			m, err := a.manager(cmd.Context(), collection)
			if err != nil {
				return err
			}

			res := m.LoadFromFolder(cmd.Context(), args[0])
			if !res.Success {
				return fmt.Errorf("ingest: %s", res.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

// NewAddCmd 构建 add 命令
func NewAddCmd(a *app) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a single text to the knowledge base (reads stdin when no argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("no text to add")
			}

			collection, _ := cmd.Flags().GetString("collection")
			m, err := a.manager(cmd.Context(), collection)
			if err != nil {
				return err
			}

			res := m.AddText(cmd.Context(), text, source, nil)
			if !res.Success {
				return fmt.Errorf("add: %s", res.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "stdin", "source label stored with the chunks")
	return cmd
}
