package cmd

import (
	"github.com/spf13/cobra"

	"github.com/docqa-dev/docqa/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out.Printf("strategy: %s", cfg.Retrieval.Strategy)
			out.Printf("top_k: %d", cfg.Retrieval.TopK)
			out.Printf("similarity_threshold: %.2f", cfg.Retrieval.SimilarityThreshold)
			out.Printf("weights: bm25=%.2f vector=%.2f", cfg.Retrieval.BM25Weight, cfg.Retrieval.VectorWeight)
			out.Printf("embeddings: %s (%s)", cfg.Embeddings.Provider, cfg.Embeddings.Model)
			out.Printf("llm: %s (%s)", cfg.LLM.Provider, cfg.LLM.Model)
			out.Printf("data_dir: %s", cfg.Eval.DataDir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if err := config.New().WriteYAML(path); err != nil {
				return err
			}
			out.Success("wrote %s", path)
			return nil
		},
	})

	return cmd
}
