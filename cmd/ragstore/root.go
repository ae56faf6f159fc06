package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd 构建根命令
func NewRootCmd(version string) *cobra.Command {
	a := &app{}
	var configPath string

	cmd := &cobra.Command{
		Use:     "ragstore",
		Short:   "Local RAG knowledge base: ingest documents, search, manage collections",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(configPath)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "ragstore.yaml", "YAML config file path")
	cmd.PersistentFlags().StringP("collection", "c", "default", "knowledge base collection name")

	cmd.AddCommand(
		NewIngestCmd(a),
		NewAddCmd(a),
		NewSearchCmd(a),
		NewKBCmd(a),
	)
	return cmd
}
