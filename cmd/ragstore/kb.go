package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BaSui01/ragstore/knowledge"
)

// NewKBCmd 构建 kb 命令组
func NewKBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage knowledge base collections",
	}
	cmd.AddCommand(
		newKBListCmd(a),
		newKBStatsCmd(a),
		newKBClearCmd(a),
		newKBDeleteCmd(a),
	)
	return cmd
}

func newKBListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := knowledge.ListKnowledgeBases(a.cfg.VectorStore.BaseDirectory)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no collections")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newKBStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			m, err := a.manager(cmd.Context(), collection)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m.GetStats(cmd.Context()))
		},
	}
}

func newKBClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all content from a collection, keeping the collection itself",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			m, err := a.manager(cmd.Context(), collection)
			if err != nil {
				return err
			}
			if err := m.ClearKnowledgeBase(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "collection %s cleared\n", collection)
			return nil
		},
	}
}

func newKBDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a collection and its on-disk directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := knowledge.DeleteKnowledgeBaseByName(a.cfg.VectorStore.BaseDirectory, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "collection %s deleted\n", args[0])
			return nil
		},
	}
}
