// Package eval runs information-retrieval quality evaluations against
// hand-labeled test datasets.
package eval

import (
	"strings"
	"time"

	"github.com/docqa-dev/docqa/internal/errors"
	"github.com/docqa-dev/docqa/internal/metrics"
)

// Dataset size limits. Oversized datasets point at a generation bug
// upstream, not a real benchmark.
const (
	maxQueriesPerDataset = 500
	maxExpectedPerQuery  = 100
	maxKValuesPerJob     = 10
)

// ExpectedDocument is one labeled relevance judgment.
type ExpectedDocument struct {
	DocID     string  `json:"doc_id"`
	Relevance float64 `json:"relevance"`
}

// TestQuery is one labeled query with its expected documents.
type TestQuery struct {
	ID       string             `json:"id"`
	Query    string             `json:"query"`
	Expected []ExpectedDocument `json:"expected"`
}

// TestDataset is an immutable collection of labeled queries.
type TestDataset struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Queries     []TestQuery `json:"queries"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Validate checks dataset integrity before it is stored.
func (d *TestDataset) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.ValidationError("dataset name must not be empty", nil)
	}
	if len(d.Queries) == 0 {
		return errors.ValidationError("dataset must contain at least one query", nil)
	}
	if len(d.Queries) > maxQueriesPerDataset {
		return errors.ValidationError("dataset exceeds the query limit", nil).
			WithDetail("limit", "500")
	}

	for _, q := range d.Queries {
		if strings.TrimSpace(q.Query) == "" {
			return errors.ValidationError("query text must not be empty", nil).
				WithDetail("query_id", q.ID)
		}
		if len(q.Expected) > maxExpectedPerQuery {
			return errors.ValidationError("query exceeds the expected-document limit", nil).
				WithDetail("query_id", q.ID)
		}
		for _, e := range q.Expected {
			if e.DocID == "" {
				return errors.ValidationError("expected document id must not be empty", nil).
					WithDetail("query_id", q.ID)
			}
			if e.Relevance < 0 || e.Relevance > 1 {
				return errors.ValidationError("relevance must be in [0, 1]", nil).
					WithDetail("query_id", q.ID).
					WithDetail("doc_id", e.DocID)
			}
		}
	}
	return nil
}

// relevanceMap converts the expected list to the metrics input shape.
func relevanceMap(expected []ExpectedDocument) map[string]float64 {
	m := make(map[string]float64, len(expected))
	for _, e := range expected {
		m[e.DocID] = e.Relevance
	}
	return m
}

// JobStatus is the evaluation job lifecycle state.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Progress reports incremental completion so callers can poll without
// blocking on the job.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// QueryResult pairs a query with its computed metrics.
type QueryResult struct {
	QueryID string                  `json:"query_id"`
	Query   string                  `json:"query"`
	Metrics metrics.PerQueryMetrics `json:"metrics"`
}

// EvaluationResult is a completed job's artifact.
type EvaluationResult struct {
	PerQuery  []QueryResult            `json:"per_query"`
	Aggregate metrics.AggregateMetrics `json:"aggregate"`
}

// EvaluationJob tracks one evaluation run end to end.
type EvaluationJob struct {
	ID          string            `json:"id"`
	DatasetID   string            `json:"dataset_id"`
	Status      JobStatus         `json:"status"`
	KValues     []int             `json:"k_values"`
	Progress    Progress          `json:"progress"`
	Result      *EvaluationResult `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// validateKValues checks the k list for a job.
func validateKValues(kValues []int) error {
	if len(kValues) == 0 {
		return errors.ValidationError("at least one k value is required", nil)
	}
	if len(kValues) > maxKValuesPerJob {
		return errors.ValidationError("too many k values", nil).
			WithDetail("limit", "10")
	}
	for _, k := range kValues {
		if k <= 0 {
			return errors.ValidationError("k values must be positive", nil)
		}
	}
	return nil
}

// maxK returns the largest requested k, used as the retrieval depth.
func maxK(kValues []int) int {
	max := 0
	for _, k := range kValues {
		if k > max {
			max = k
		}
	}
	return max
}
