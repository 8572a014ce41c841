// Package agent answers user questions grounded in retrieved document
// passages, maintaining per-session conversation state.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docqa-dev/docqa/internal/llm"
	"github.com/docqa-dev/docqa/internal/retrieval"
)

const answerPrompt = `Answer the question using only the context passages below.
Cite the sources you used. If the context does not contain the answer, say so
plainly instead of guessing.

Context:
%s

Question: %s

Answer:`

const conversationalPrompt = `You are a helpful document question-answering assistant.
Reply briefly and naturally to this conversational message. Do not invent
information about documents.

Message: %s`

// Source identifies a passage that grounded an answer.
type Source struct {
	Path       string  `json:"path"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

// Answer is the agent's reply to one question.
type Answer struct {
	Text      string                      `json:"text"`
	Sources   []Source                    `json:"sources,omitempty"`
	Category  QueryCategory               `json:"category"`
	Decision  retrieval.RelevanceDecision `json:"decision"`
	SessionID string                      `json:"session_id"`
}

// Config bounds the agent's behavior.
type Config struct {
	Strategy   retrieval.Strategy
	TopK       int
	MaxSources int
}

// Agent orchestrates classification, context expansion, retrieval,
// relevance gating, and grounded answer generation.
type Agent struct {
	engine     *retrieval.Engine
	llm        llm.Client
	classifier *QueryClassifier
	expander   *ContextExpander
	sessions   *SessionManager
	cfg        Config
	logger     *slog.Logger
}

// New creates an agent. All collaborators are injected; the agent
// holds no global state.
func New(engine *retrieval.Engine, client llm.Client, sessions *SessionManager, cfg Config, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxSources <= 0 {
		cfg.MaxSources = 5
	}

	return &Agent{
		engine:     engine,
		llm:        client,
		classifier: NewQueryClassifier(client, logger),
		expander:   NewContextExpander(client, logger),
		sessions:   sessions,
		cfg:        cfg,
		logger:     logger,
	}
}

// Sessions exposes the session manager.
func (a *Agent) Sessions() *SessionManager {
	return a.sessions
}

// Ask answers one question within a session. An empty sessionID starts
// a new session; the answer carries the session ID to continue it.
func (a *Agent) Ask(ctx context.Context, sessionID, query string) (*Answer, error) {
	session := a.sessions.GetOrCreate(sessionID)

	category := a.classifier.Classify(ctx, query)
	a.logger.Debug("query_classified",
		slog.String("session_id", session.ID),
		slog.String("category", string(category)))

	var answer *Answer
	var err error

	switch category {
	case CategoryConversational:
		answer = a.answerConversational(ctx, query)
	case CategoryAmbiguous:
		answer = &Answer{Text: responseAmbiguous}
	default:
		answer, err = a.answerFactual(ctx, session, query)
		if err != nil {
			return nil, err
		}
	}

	answer.Category = category
	answer.SessionID = session.ID

	session.WithLock(func(h *History) {
		h.Push(query, answer.Text)
	})
	return answer, nil
}

// answerConversational replies without touching the corpus. LLM
// failure degrades to a canned acknowledgement rather than an error.
func (a *Agent) answerConversational(ctx context.Context, query string) *Answer {
	text, err := a.llm.Complete(ctx, fmt.Sprintf(conversationalPrompt, query))
	if err != nil {
		a.logger.Debug("conversational_reply_failed", slog.String("error", err.Error()))
		text = "You're welcome! Ask me anything about the ingested documents."
	}
	return &Answer{Text: strings.TrimSpace(text)}
}

// answerFactual runs expansion, retrieval, gating, and generation.
func (a *Agent) answerFactual(ctx context.Context, session *Session, query string) (*Answer, error) {
	var summary string
	session.WithLock(func(h *History) {
		summary = h.Summary()
	})

	expanded := a.expander.Expand(ctx, query, summary)

	result, decision, err := a.engine.Retrieve(ctx, expanded, a.cfg.Strategy, a.cfg.TopK)
	if err != nil {
		return nil, err
	}

	switch decision.Decision {
	case retrieval.DecisionNoDocuments:
		return &Answer{Text: responseNoDocuments, Decision: decision}, nil
	case retrieval.DecisionNotRelevant:
		return &Answer{Text: responseNotRelevant, Decision: decision}, nil
	}

	text, err := a.llm.Complete(ctx, fmt.Sprintf(answerPrompt, formatContext(result), expanded))
	if err != nil {
		a.logger.Warn("answer_generation_failed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()))
		return &Answer{
			Text:     responseBackendError,
			Sources:  a.sources(result),
			Decision: a.engine.Gate().BackendError(result, err.Error()),
		}, nil
	}

	return &Answer{
		Text:     strings.TrimSpace(text),
		Sources:  a.sources(result),
		Decision: decision,
	}, nil
}

// formatContext renders retrieved passages for the answer prompt.
func formatContext(result *retrieval.RetrievalResult) string {
	var b strings.Builder
	for i, scored := range result.Documents {
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", i+1, scored.Document.Source, scored.Document.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// sources lists the top retrieved passages, capped at MaxSources.
func (a *Agent) sources(result *retrieval.RetrievalResult) []Source {
	n := len(result.Documents)
	if n > a.cfg.MaxSources {
		n = a.cfg.MaxSources
	}

	sources := make([]Source, 0, n)
	for _, scored := range result.Documents[:n] {
		sources = append(sources, Source{
			Path:       scored.Document.Source,
			ChunkIndex: scored.Document.ChunkIndex,
			Score:      retrieval.RoundScore(scored.Score),
		})
	}
	return sources
}
