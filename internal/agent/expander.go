package agent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/docqa-dev/docqa/internal/llm"
)

// greetingPattern matches greetings and closings that never need
// expansion, regardless of history.
var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|good (morning|afternoon|evening)|thanks?( you| a lot)?|thank you|bye|goodbye|see you|ok(ay)?|great|cool|nice)\s*[!.?]*\s*$`)

// referencePatterns detect ambiguous referring expressions that only
// make sense given prior conversation turns.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(it|its|they|them|their|this|that|these|those|he|she|his|her)\b`),
	regexp.MustCompile(`(?i)\bthe (paper|document|article|author|section|chapter|file|report)\b`),
	regexp.MustCompile(`(?i)\b(mentioned|discussed|said|described) (earlier|before|above|previously)\b`),
	regexp.MustCompile(`(?i)\b(the (first|second|third|last|other) one|both of them|all of them|more about|what about|how about)\b`),
}

// answerLeakDenylist marks rewrites where the LLM answered instead of
// rephrasing.
var answerLeakDenylist = []string{
	"the answer is",
	"yes,",
	"no,",
	"according to",
	"based on the",
	"i think",
	"i believe",
	"certainly",
}

const (
	maxRewriteRatio = 3.0
	minRewriteRatio = 0.3
	shortQueryWords = 4
)

const rewritePrompt = `Rewrite the user's follow-up question so it stands alone without the conversation below.
Rules:
- Replace pronouns and vague references with the concrete entities they refer to.
- Keep the rewrite short and close to the original wording.
- If the question already stands alone, return it verbatim.
- Never answer the question. Output only the rewritten question.

Conversation:
%s

Follow-up question: %s`

// ContextExpander rewrites ambiguous follow-up queries using recent
// conversation history, with sanity checks that fall back to the
// original query whenever the rewrite looks corrupted.
type ContextExpander struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewContextExpander creates an expander.
func NewContextExpander(client llm.Client, logger *slog.Logger) *ContextExpander {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextExpander{llm: client, logger: logger}
}

// Expand returns the query rewritten against the history summary, or
// the query unchanged when no expansion is needed or the rewrite fails
// a sanity check.
func (e *ContextExpander) Expand(ctx context.Context, query, historySummary string) string {
	if greetingPattern.MatchString(query) {
		return query
	}
	if !e.needsExpansion(query, historySummary) {
		return query
	}
	if e.llm == nil {
		return query
	}

	rewrite, err := e.llm.Complete(ctx, fmt.Sprintf(rewritePrompt, historySummary, query))
	if err != nil {
		e.logger.Debug("rewrite_failed", slog.String("error", err.Error()))
		return query
	}

	rewrite = strings.TrimSpace(rewrite)
	if reason := rewriteRejection(query, rewrite); reason != "" {
		e.logger.Debug("rewrite_rejected",
			slog.String("reason", reason),
			slog.String("query", query))
		return query
	}

	e.logger.Debug("query_expanded",
		slog.String("original", query),
		slog.String("expanded", rewrite))
	return rewrite
}

// needsExpansion applies the trigger gate: non-empty history AND
// (ambiguous reference OR very short query).
func (e *ContextExpander) needsExpansion(query, historySummary string) bool {
	if strings.TrimSpace(historySummary) == "" {
		return false
	}
	for _, p := range referencePatterns {
		if p.MatchString(query) {
			return true
		}
	}
	return len(strings.Fields(query)) <= shortQueryWords
}

// rewriteRejection returns a non-empty reason when the rewrite must be
// discarded in favor of the original query.
func rewriteRejection(original, rewrite string) string {
	origLen := float64(len(original))

	if float64(len(rewrite)) > maxRewriteRatio*origLen {
		return "too_long"
	}
	if rewrite == "" || float64(len(rewrite)) < minRewriteRatio*origLen {
		return "too_short"
	}

	lower := strings.ToLower(rewrite)
	for _, phrase := range answerLeakDenylist {
		if strings.Contains(lower, phrase) {
			return "answer_leak"
		}
	}
	return ""
}
