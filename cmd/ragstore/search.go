package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BaSui01/ragstore/knowledge"
)

// NewSearchCmd 构建 search 命令
func NewSearchCmd(a *app) *cobra.Command {
	var (
		topK      int
		mode      string
		useRerank bool
		threshold float64
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			m, err := a.manager(cmd.Context(), collection)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("threshold") {
				threshold = a.cfg.Search.ScoreThreshold
			}

			out, err := runSearch(cmd.Context(), m, args[0], mode, topK, threshold, useRerank)
			if err != nil {
				return err
			}
			if !out.Success {
				return fmt.Errorf("search: %s", out.Message)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			if out.DocsCount == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no results")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Context)
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of results (0 uses the configured default)")
	cmd.Flags().StringVar(&mode, "mode", "vector", "search mode: vector, bm25 or hybrid")
	cmd.Flags().BoolVar(&useRerank, "rerank", false, "rerank results via the remote scoring service")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum similarity score")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func runSearch(ctx context.Context, m knowledge.Manager, query, mode string, topK int, threshold float64, useRerank bool) (knowledge.SearchOutput, error) {
	switch mode {
	case "vector":
		if useRerank {
			return m.SearchWithRerank(ctx, query, topK, threshold), nil
		}
		return m.Search(ctx, query, topK, threshold), nil
	case "bm25":
		return m.SearchBM25(ctx, query, topK, threshold), nil
	case "hybrid":
		return m.SearchHybrid(ctx, query, topK, threshold, 0, 0), nil
	default:
		return knowledge.SearchOutput{}, fmt.Errorf("unknown search mode %q (want vector, bm25 or hybrid)", mode)
	}
}
