package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/docqa-dev/docqa/internal/llm"
)

// QueryCategory drives which retrieval and response path executes.
type QueryCategory string

const (
	CategoryConversational QueryCategory = "conversational"
	CategoryFactual        QueryCategory = "factual"
	CategoryAmbiguous      QueryCategory = "ambiguous"
)

const classifyPrompt = `Classify the following user message into exactly one category:
- conversational: greetings, thanks, small talk, meta questions about the assistant
- factual: a question seeking information that documents could answer
- ambiguous: unclear intent, missing referent, or impossible to tell

Respond with only the category name, nothing else.

Message: %s`

// classifierCacheSize bounds the label cache. Repeated queries within
// a session are common and the label for a given string never changes.
const classifierCacheSize = 512

// QueryClassifier labels queries using the LLM with asymmetric
// fallbacks: unparseable responses become ambiguous (ask rather than
// answer wrong), LLM failures become factual (never drop a real
// question). Error fallbacks are not cached.
type QueryClassifier struct {
	llm    llm.Client
	cache  *lru.Cache[string, QueryCategory]
	logger *slog.Logger
}

// NewQueryClassifier creates a classifier.
func NewQueryClassifier(client llm.Client, logger *slog.Logger) *QueryClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	cache, _ := lru.New[string, QueryCategory](classifierCacheSize)
	return &QueryClassifier{llm: client, cache: cache, logger: logger}
}

// Classify categorizes a query.
func (c *QueryClassifier) Classify(ctx context.Context, query string) QueryCategory {
	if c.llm == nil {
		return CategoryFactual
	}

	key := strings.ToLower(strings.TrimSpace(query))
	if category, ok := c.cache.Get(key); ok {
		return category
	}

	response, err := c.llm.Complete(ctx, fmt.Sprintf(classifyPrompt, query))
	if err != nil {
		c.logger.Debug("classification_failed_defaulting_factual",
			slog.String("error", err.Error()))
		return CategoryFactual
	}

	category := coerceCategory(response)
	c.cache.Add(key, category)
	return category
}

// coerceCategory maps an LLM response to a category. Anything that is
// not exactly one of the three labels becomes ambiguous.
func coerceCategory(response string) QueryCategory {
	label := strings.ToLower(strings.TrimSpace(response))
	label = strings.Trim(label, ".\"'")

	switch QueryCategory(label) {
	case CategoryConversational, CategoryFactual, CategoryAmbiguous:
		return QueryCategory(label)
	default:
		return CategoryAmbiguous
	}
}
