package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultWithScores(scores ...float64) *RetrievalResult {
	docs := make([]*ScoredDocument, len(scores))
	for i, s := range scores {
		docs[i] = &ScoredDocument{Score: s}
	}
	return &RetrievalResult{Documents: docs, TotalFound: len(docs)}
}

func TestRelevanceGate_Decisions(t *testing.T) {
	gate, err := NewRelevanceGate(0.5)
	require.NoError(t, err)

	tests := []struct {
		name   string
		result *RetrievalResult
		want   Decision
	}{
		{"nil result", nil, DecisionNoDocuments},
		{"empty result", resultWithScores(), DecisionNoDocuments},
		{"best below threshold", resultWithScores(0.4, 0.2), DecisionNotRelevant},
		{"best at threshold", resultWithScores(0.5), DecisionRelevant},
		{"best above threshold", resultWithScores(0.9, 0.1), DecisionRelevant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := gate.Check(tt.result)
			assert.Equal(t, tt.want, decision.Decision)
			assert.Equal(t, 0.5, decision.Threshold)
		})
	}
}

func TestRelevanceGate_ReportsBestScore(t *testing.T) {
	gate, err := NewRelevanceGate(0.5)
	require.NoError(t, err)

	decision := gate.Check(resultWithScores(0.87654321))
	assert.Equal(t, 0.8765, decision.BestScore)
}

func TestRelevanceGate_BackendError(t *testing.T) {
	gate, err := NewRelevanceGate(0.5)
	require.NoError(t, err)

	decision := gate.BackendError(resultWithScores(0.8), "llm unreachable")
	assert.Equal(t, DecisionBackendError, decision.Decision)
	assert.Equal(t, 0.8, decision.BestScore)
	assert.Equal(t, "llm unreachable", decision.Message)
}

func TestRelevanceGate_InvalidThreshold(t *testing.T) {
	_, err := NewRelevanceGate(-0.1)
	assert.Error(t, err)
	_, err = NewRelevanceGate(1.5)
	assert.Error(t, err)
}
