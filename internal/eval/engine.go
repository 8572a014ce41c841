package eval

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docqa-dev/docqa/internal/metrics"
	"github.com/docqa-dev/docqa/internal/retrieval"
)

// Engine runs evaluation jobs against a retriever. Jobs execute on
// their own goroutine; callers poll job status through the store.
type Engine struct {
	store     *FileStore
	retriever retrieval.Retriever
	logger    *slog.Logger
}

// NewEngine creates an evaluation engine.
func NewEngine(store *FileStore, retriever retrieval.Retriever, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, retriever: retriever, logger: logger}
}

// Submit validates inputs, persists a queued job, and starts it in the
// background. The returned job snapshot carries the ID to poll with.
func (e *Engine) Submit(ctx context.Context, datasetID string, kValues []int) (*EvaluationJob, error) {
	if err := validateKValues(kValues); err != nil {
		return nil, err
	}

	dataset, err := e.store.GetDataset(datasetID)
	if err != nil {
		return nil, err
	}

	job := &EvaluationJob{
		ID:        uuid.NewString(),
		DatasetID: datasetID,
		Status:    JobQueued,
		KValues:   kValues,
		Progress:  Progress{Total: len(dataset.Queries)},
		CreatedAt: time.Now(),
	}
	if err := e.store.SaveJob(job); err != nil {
		return nil, err
	}

	go e.run(ctx, job, dataset)
	return job, nil
}

// Run executes a job synchronously. Used by the CLI where blocking is
// the point.
func (e *Engine) Run(ctx context.Context, datasetID string, kValues []int) (*EvaluationJob, error) {
	if err := validateKValues(kValues); err != nil {
		return nil, err
	}

	dataset, err := e.store.GetDataset(datasetID)
	if err != nil {
		return nil, err
	}

	job := &EvaluationJob{
		ID:        uuid.NewString(),
		DatasetID: datasetID,
		Status:    JobQueued,
		KValues:   kValues,
		Progress:  Progress{Total: len(dataset.Queries)},
		CreatedAt: time.Now(),
	}
	if err := e.store.SaveJob(job); err != nil {
		return nil, err
	}

	e.run(ctx, job, dataset)
	return e.store.GetJob(job.ID)
}

// run drives a job to completion, persisting progress after every
// query so pollers see incremental state.
func (e *Engine) run(ctx context.Context, job *EvaluationJob, dataset *TestDataset) {
	now := time.Now()
	job.Status = JobRunning
	job.StartedAt = &now
	if err := e.store.SaveJob(job); err != nil {
		e.logger.Error("job_persist_failed", slog.String("job_id", job.ID), slog.String("error", err.Error()))
		return
	}

	depth := maxK(job.KValues)
	perQuery := make([]QueryResult, 0, len(dataset.Queries))

	for _, q := range dataset.Queries {
		if ctx.Err() != nil {
			e.fail(job, ctx.Err().Error())
			return
		}

		retrieved, err := e.retrievedIDs(ctx, q.Query, depth)
		if err != nil {
			e.fail(job, err.Error())
			return
		}

		perQuery = append(perQuery, QueryResult{
			QueryID: q.ID,
			Query:   q.Query,
			Metrics: metrics.ComputeAll(retrieved, relevanceMap(q.Expected), job.KValues),
		})

		job.Progress.Current++
		if err := e.store.SaveJob(job); err != nil {
			e.logger.Warn("progress_persist_failed", slog.String("job_id", job.ID), slog.String("error", err.Error()))
		}
	}

	all := make([]metrics.PerQueryMetrics, len(perQuery))
	for i, r := range perQuery {
		all[i] = r.Metrics
	}

	done := time.Now()
	job.Status = JobCompleted
	job.CompletedAt = &done
	job.Result = &EvaluationResult{PerQuery: perQuery, Aggregate: metrics.Aggregate(all)}

	if err := e.store.SaveJob(job); err != nil {
		e.logger.Error("job_persist_failed", slog.String("job_id", job.ID), slog.String("error", err.Error()))
		return
	}

	e.logger.Info("evaluation_complete",
		slog.String("job_id", job.ID),
		slog.String("dataset_id", job.DatasetID),
		slog.Int("queries", len(perQuery)))
}

// retrievedIDs runs one retrieval and projects the result to ordered
// document IDs.
func (e *Engine) retrievedIDs(ctx context.Context, query string, k int) ([]string, error) {
	result, err := e.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Documents))
	for _, scored := range result.Documents {
		ids = append(ids, scored.Document.ID)
	}
	return ids, nil
}

func (e *Engine) fail(job *EvaluationJob, msg string) {
	now := time.Now()
	job.Status = JobFailed
	job.Error = msg
	job.CompletedAt = &now
	if err := e.store.SaveJob(job); err != nil {
		e.logger.Error("job_persist_failed", slog.String("job_id", job.ID), slog.String("error", err.Error()))
	}
}
