package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/docqa-dev/docqa/internal/eval"
	"github.com/docqa-dev/docqa/internal/metrics"
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "evaluate",
		Aliases: []string{"eval"},
		Short:   "Evaluate retrieval quality against labeled datasets",
	}

	cmd.AddCommand(newEvalImportCmd())
	cmd.AddCommand(newEvalListCmd())
	cmd.AddCommand(newEvalRunCmd())
	cmd.AddCommand(newEvalStatusCmd())
	return cmd
}

func newEvalImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <dataset.json>",
		Short: "Import a labeled test dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvalImport(args[0])
		},
	}
}

func runEvalImport(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var dataset eval.TestDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return fmt.Errorf("parsing dataset: %w", err)
	}
	if dataset.ID == "" {
		dataset.ID = dataset.Name
	}
	if dataset.CreatedAt.IsZero() {
		dataset.CreatedAt = time.Now()
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.evalDB.SaveDataset(&dataset); err != nil {
		return err
	}

	out.Success("imported dataset %q with %d queries", dataset.ID, len(dataset.Queries))
	return nil
}

func newEvalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List imported datasets and past jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvalList()
		},
	}
}

func runEvalList() error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	datasets, err := a.evalDB.ListDatasets()
	if err != nil {
		return err
	}

	out.Heading("Datasets")
	if len(datasets) == 0 {
		out.Detail("none imported yet")
	}
	for _, d := range datasets {
		out.Detail("%s (%d queries)", d.ID, len(d.Queries))
	}

	jobs, err := a.evalDB.ListJobs()
	if err != nil {
		return err
	}

	out.Heading("Jobs")
	if len(jobs) == 0 {
		out.Detail("none run yet")
	}
	for _, j := range jobs {
		out.Detail("%s dataset=%s status=%s progress=%d/%d",
			j.ID, j.DatasetID, j.Status, j.Progress.Current, j.Progress.Total)
	}
	return nil
}

func newEvalRunCmd() *cobra.Command {
	var kValues []int

	cmd := &cobra.Command{
		Use:   "run <dataset-id>",
		Short: "Run an evaluation job and print its metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvalRun(cmd.Context(), args[0], kValues)
		},
	}

	cmd.Flags().IntSliceVarP(&kValues, "k", "k", nil, "Rank cutoffs (default from config)")
	return cmd
}

func runEvalRun(ctx context.Context, datasetID string, kValues []int) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if len(kValues) == 0 {
		kValues = cfg.Eval.KValues
	}

	job, err := a.eval.Run(ctx, datasetID, kValues)
	if err != nil {
		return err
	}

	if job.Status == eval.JobFailed {
		return fmt.Errorf("evaluation failed: %s", job.Error)
	}

	out.Success("job %s completed (%d queries)", job.ID, job.Progress.Total)
	printAggregate(job.Result.Aggregate)
	return nil
}

func newEvalStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status and results of an evaluation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvalStatus(args[0])
		},
	}
}

func runEvalStatus(jobID string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	job, err := a.evalDB.GetJob(jobID)
	if err != nil {
		return err
	}

	out.Printf("job %s: %s (%d/%d)", job.ID, job.Status, job.Progress.Current, job.Progress.Total)
	if job.Error != "" {
		out.Error("%s", job.Error)
	}
	if job.Result != nil {
		printAggregate(job.Result.Aggregate)
	}
	return nil
}

func printAggregate(agg metrics.AggregateMetrics) {
	ks := make([]int, 0, len(agg.NDCG))
	for k := range agg.NDCG {
		ks = append(ks, k)
	}
	sort.Ints(ks)

	out.Heading("Aggregate metrics")
	for _, k := range ks {
		out.Detail("k=%-3d ndcg=%.4f map=%.4f mrr=%.4f", k, agg.NDCG[k], agg.MAP[k], agg.MRR[k])
	}
}
