package retrieval

import "fmt"

// Decision is the outcome of the relevance gate.
type Decision string

const (
	// DecisionRelevant means retrieved evidence is sufficient to answer.
	DecisionRelevant Decision = "relevant"
	// DecisionNotRelevant means documents were found but none scored
	// above the threshold.
	DecisionNotRelevant Decision = "not_relevant"
	// DecisionNoDocuments means the result carried no documents at all.
	DecisionNoDocuments Decision = "no_documents"
	// DecisionBackendError means answer generation failed on a
	// populated result.
	DecisionBackendError Decision = "backend_error"
)

// RelevanceDecision is computed fresh per query, never cached.
type RelevanceDecision struct {
	Decision  Decision `json:"decision"`
	BestScore float64  `json:"best_score"`
	Threshold float64  `json:"threshold"`
	Message   string   `json:"message,omitempty"`
}

// RelevanceGate decides whether retrieved evidence is sufficient.
//
// Scores throughout this package are normalized similarity, higher is
// better; the gate compares best_score >= threshold for relevance.
// Every comparison site uses this single convention.
type RelevanceGate struct {
	threshold float64
}

// NewRelevanceGate creates a gate with the given similarity threshold.
func NewRelevanceGate(threshold float64) (*RelevanceGate, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("relevance threshold must be in [0,1], got %f", threshold)
	}
	return &RelevanceGate{threshold: threshold}, nil
}

// Check decides for one retrieval result.
func (g *RelevanceGate) Check(result *RetrievalResult) RelevanceDecision {
	if result == nil || len(result.Documents) == 0 {
		return RelevanceDecision{
			Decision:  DecisionNoDocuments,
			Threshold: g.threshold,
		}
	}

	best := result.BestScore()
	if best < g.threshold {
		return RelevanceDecision{
			Decision:  DecisionNotRelevant,
			BestScore: RoundScore(best),
			Threshold: g.threshold,
		}
	}

	return RelevanceDecision{
		Decision:  DecisionRelevant,
		BestScore: RoundScore(best),
		Threshold: g.threshold,
	}
}

// BackendError records an answer-generation failure on a populated
// result. The retrieved documents remain available as evidence.
func (g *RelevanceGate) BackendError(result *RetrievalResult, message string) RelevanceDecision {
	return RelevanceDecision{
		Decision:  DecisionBackendError,
		BestScore: RoundScore(result.BestScore()),
		Threshold: g.threshold,
		Message:   message,
	}
}

// Threshold returns the configured threshold.
func (g *RelevanceGate) Threshold() float64 {
	return g.threshold
}
