package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/docqa-dev/docqa/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "ingest <path>",
		Short: "Ingest a file or directory into the document index",
		Long: `Ingest chunks the given files, embeds each chunk, and adds them to
the keyword and vector indexes. Re-ingesting a file replaces its
previous chunks.`,
		Example: `  docqa ingest ./docs
  docqa ingest notes.md
  docqa ingest --watch ./docs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), args[0], watch)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep watching the path and re-ingest on changes")
	return cmd
}

func runIngest(ctx context.Context, path string, watch bool) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.pipeline.IngestPath(ctx, path)
	if err != nil {
		return err
	}
	if err := a.saveIndexes(); err != nil {
		return err
	}

	out.Success("ingested %d chunks from %d files", stats.Chunks, stats.Files)
	if stats.Removed > 0 {
		out.Detail("replaced %d stale chunks", stats.Removed)
	}

	if !watch {
		return nil
	}

	out.Println("watching for changes (Ctrl-C to stop)")
	w := ingest.NewWatcher(a.pipeline, cfg.Ingest.WatchDebounce, a.logger)
	err = w.Watch(ctx, path)
	if errors.Is(err, context.Canceled) {
		return a.saveIndexes()
	}
	return err
}
