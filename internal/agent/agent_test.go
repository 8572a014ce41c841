package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqa-dev/docqa/internal/embed"
	"github.com/docqa-dev/docqa/internal/retrieval"
	"github.com/docqa-dev/docqa/internal/store"
)

// routingLLM answers by prompt kind so one fake serves the
// classifier, expander, and answer generator at once.
type routingLLM struct {
	label     string
	answer    string
	answerErr error
}

func (r *routingLLM) Complete(ctx context.Context, prompt string) (string, error) {
	switch {
	case strings.HasPrefix(prompt, "Classify"):
		return r.label, nil
	case strings.HasPrefix(prompt, "Rewrite"):
		return "", fmt.Errorf("no rewrite in tests")
	default:
		return r.answer, r.answerErr
	}
}

func (r *routingLLM) Available(ctx context.Context) bool { return true }
func (r *routingLLM) ModelName() string                  { return "routing" }

func newTestAgent(t *testing.T, client *routingLLM, threshold float64, withCorpus bool) *Agent {
	t.Helper()

	vectors, err := store.NewHNSWStore(store.HNSWConfig{Dimensions: embed.StaticDimensions})
	require.NoError(t, err)
	t.Cleanup(func() { _ = vectors.Close() })

	docs, err := store.NewSQLiteDocumentStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = docs.Close() })

	r := retrieval.NewEmbeddingRetriever(embed.NewStaticEmbedder(), vectors, docs, slog.Default())
	if withCorpus {
		corpus := []*store.Document{
			{ID: "paris-0", Content: "Paris is the capital of France and home to the Eiffel Tower", Source: "paris.txt"},
			{ID: "tokyo-0", Content: "Tokyo is the capital of Japan", Source: "tokyo.txt"},
		}
		_, err = r.Add(context.Background(), corpus)
		require.NoError(t, err)
	}

	gate, err := retrieval.NewRelevanceGate(threshold)
	require.NoError(t, err)

	engine, err := retrieval.NewEngine(retrieval.EngineConfig{
		Similarity: retrieval.NewSimilarityRetriever(r),
		Gate:       gate,
	})
	require.NoError(t, err)

	return New(engine, client, NewSessionManager(5), Config{TopK: 2, MaxSources: 2}, slog.Default())
}

func TestAsk_FactualAnswersWithSources(t *testing.T) {
	client := &routingLLM{label: "factual", answer: "Paris is the capital of France."}
	a := newTestAgent(t, client, 0.05, true)

	answer, err := a.Ask(context.Background(), "", "What is the capital of France?")
	require.NoError(t, err)

	assert.Equal(t, CategoryFactual, answer.Category)
	assert.Equal(t, "Paris is the capital of France.", answer.Text)
	assert.Equal(t, retrieval.DecisionRelevant, answer.Decision.Decision)
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, "paris.txt", answer.Sources[0].Path)
	assert.NotEmpty(t, answer.SessionID)
}

func TestAsk_EmptyCorpusRespondsNoDocuments(t *testing.T) {
	client := &routingLLM{label: "factual", answer: "unused"}
	a := newTestAgent(t, client, 0.05, false)

	answer, err := a.Ask(context.Background(), "", "What is the capital of France?")
	require.NoError(t, err)

	assert.Equal(t, retrieval.DecisionNoDocuments, answer.Decision.Decision)
	assert.Equal(t, responseNoDocuments, answer.Text)
	assert.Empty(t, answer.Sources)
}

func TestAsk_BelowThresholdRespondsNotRelevant(t *testing.T) {
	client := &routingLLM{label: "factual", answer: "unused"}
	a := newTestAgent(t, client, 0.999, true)

	answer, err := a.Ask(context.Background(), "", "completely unrelated gibberish zzz")
	require.NoError(t, err)

	assert.Equal(t, retrieval.DecisionNotRelevant, answer.Decision.Decision)
	assert.Equal(t, responseNotRelevant, answer.Text)
}

func TestAsk_GenerationFailureSurfacesEvidence(t *testing.T) {
	client := &routingLLM{label: "factual", answerErr: fmt.Errorf("connection refused")}
	a := newTestAgent(t, client, 0.05, true)

	answer, err := a.Ask(context.Background(), "", "What is the capital of France?")
	require.NoError(t, err)

	assert.Equal(t, retrieval.DecisionBackendError, answer.Decision.Decision)
	assert.Equal(t, responseBackendError, answer.Text)
	assert.NotEmpty(t, answer.Sources)
}

func TestAsk_ConversationalSkipsRetrieval(t *testing.T) {
	client := &routingLLM{label: "conversational", answer: "You're welcome!"}
	a := newTestAgent(t, client, 0.05, false)

	answer, err := a.Ask(context.Background(), "", "Thanks!")
	require.NoError(t, err)

	assert.Equal(t, CategoryConversational, answer.Category)
	assert.Equal(t, "You're welcome!", answer.Text)
	assert.Empty(t, answer.Sources)
}

func TestAsk_AmbiguousAsksForClarification(t *testing.T) {
	client := &routingLLM{label: "no idea what this is", answer: "unused"}
	a := newTestAgent(t, client, 0.05, true)

	answer, err := a.Ask(context.Background(), "", "hmm?")
	require.NoError(t, err)

	assert.Equal(t, CategoryAmbiguous, answer.Category)
	assert.Equal(t, responseAmbiguous, answer.Text)
}

func TestAsk_SessionHistoryAccumulates(t *testing.T) {
	client := &routingLLM{label: "factual", answer: "Paris."}
	a := newTestAgent(t, client, 0.05, true)

	first, err := a.Ask(context.Background(), "", "What is the capital of France?")
	require.NoError(t, err)

	_, err = a.Ask(context.Background(), first.SessionID, "What about the Eiffel Tower location?")
	require.NoError(t, err)

	session := a.Sessions().Get(first.SessionID)
	require.NotNil(t, session)
	session.WithLock(func(h *History) {
		assert.Equal(t, 2, h.Len())
	})
}
