package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docqa-dev/docqa/internal/llm"
)

// variantPrompt asks the LLM for alternate phrasings covering
// different aspects of the question.
const variantPrompt = `Generate %d alternative phrasings of the following question.
Each phrasing should cover a different aspect or use different vocabulary.
Return one phrasing per line, with no numbering and no extra text.

Question: %s`

// variantTemplates are the deterministic fallback phrasings used when
// the LLM is unavailable or returns an unusable response.
var variantTemplates = []string{
	"What is %s?",
	"Explain %s",
	"Information about %s",
	"Details on %s",
}

// MultiQueryExpander improves recall by retrieving once per query
// variant and merging results by best score.
type MultiQueryExpander struct {
	base        Retriever
	llm         llm.Client
	numVariants int
	threshold   float64
	logger      *slog.Logger
}

// NewMultiQueryExpander creates a multi-query retriever.
// numVariants counts the original query; values below 1 are rejected.
func NewMultiQueryExpander(base Retriever, client llm.Client, numVariants int, threshold float64, logger *slog.Logger) (*MultiQueryExpander, error) {
	if numVariants < 1 {
		return nil, fmt.Errorf("num_variants must be at least 1, got %d", numVariants)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiQueryExpander{
		base:        base,
		llm:         client,
		numVariants: numVariants,
		threshold:   threshold,
		logger:      logger,
	}, nil
}

// GenerateVariants returns the query variant list. The original query
// is always first, so it is never dropped even when the LLM returns
// fewer phrasings than requested.
func (m *MultiQueryExpander) GenerateVariants(ctx context.Context, query string) []string {
	variants := []string{query}
	if m.numVariants == 1 {
		return variants
	}

	generated := m.llmVariants(ctx, query, m.numVariants-1)
	if len(generated) == 0 {
		generated = templateVariants(query, m.numVariants-1)
	}

	seen := map[string]bool{strings.ToLower(query): true}
	for _, v := range generated {
		if len(variants) == m.numVariants {
			break
		}
		key := strings.ToLower(v)
		if !seen[key] {
			seen[key] = true
			variants = append(variants, v)
		}
	}

	return variants
}

// llmVariants asks the LLM for paraphrases. Returns nil on any
// failure; the caller falls back to templates.
func (m *MultiQueryExpander) llmVariants(ctx context.Context, query string, n int) []string {
	if m.llm == nil {
		return nil
	}

	response, err := m.llm.Complete(ctx, fmt.Sprintf(variantPrompt, n, query))
	if err != nil {
		m.logger.Debug("variant_generation_failed", slog.String("error", err.Error()))
		return nil
	}

	var variants []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line != "" {
			variants = append(variants, line)
		}
	}
	return variants
}

// templateVariants builds deterministic phrasings around the query.
func templateVariants(query string, n int) []string {
	subject := strings.TrimRight(strings.TrimSpace(query), "?!. ")

	variants := make([]string, 0, n)
	for i := 0; i < n && i < len(variantTemplates); i++ {
		variants = append(variants, fmt.Sprintf(variantTemplates[i], subject))
	}
	return variants
}

// Retrieve runs the base retriever once per variant in parallel and
// merges by best score. Merge-by-max is commutative, so parallel
// execution changes nothing observable.
//
// Results below the threshold are dropped, remaining entries are
// sorted by score descending with first-variant order on ties, and up
// to 2k documents are returned: this path intentionally over-returns
// to improve recall before the caller's final truncation.
func (m *MultiQueryExpander) Retrieve(ctx context.Context, query string, k int) (*RetrievalResult, error) {
	if err := validateK(k); err != nil {
		return nil, err
	}

	start := time.Now()
	variants := m.GenerateVariants(ctx, query)

	perVariant := make([]*RetrievalResult, len(variants))
	g, gctx := errgroup.WithContext(ctx)
	for i, variant := range variants {
		i, variant := i, variant
		g.Go(func() error {
			result, err := m.base.Retrieve(gctx, variant, k)
			if err != nil {
				m.logger.Warn("variant_retrieval_failed",
					slog.String("variant", variant),
					slog.String("error", err.Error()))
				return nil
			}
			perVariant[i] = result
			return nil
		})
	}
	_ = g.Wait()

	merged := m.merge(perVariant, k)

	return &RetrievalResult{
		Documents:        merged,
		QueryProcessed:   query,
		StrategyUsed:     StrategyMultiQuery,
		TotalFound:       len(merged),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}, nil
}

// mergeKey identifies a document across variants.
type mergeKey struct {
	source     string
	chunkIndex int
}

// merge deduplicates per-variant results keeping the best score seen
// for each (source, chunk index) pair, then filters by threshold and
// truncates to 2k.
func (m *MultiQueryExpander) merge(perVariant []*RetrievalResult, k int) []*ScoredDocument {
	type mergedEntry struct {
		doc  *ScoredDocument
		seen int
	}

	best := make(map[mergeKey]*mergedEntry)
	order := 0

	for _, result := range perVariant {
		if result == nil {
			continue
		}
		for _, scored := range result.Documents {
			if scored.Document == nil {
				continue
			}
			key := mergeKey{source: scored.Document.Source, chunkIndex: scored.Document.ChunkIndex}

			entry, ok := best[key]
			if !ok {
				best[key] = &mergedEntry{
					doc: &ScoredDocument{
						Document: scored.Document,
						Score:    scored.Score,
						Strategy: StrategyMultiQuery,
					},
					seen: order,
				}
				order++
				continue
			}
			if scored.Score > entry.doc.Score {
				entry.doc.Score = scored.Score
				entry.doc.Document = scored.Document
			}
		}
	}

	entries := make([]*mergedEntry, 0, len(best))
	for _, e := range best {
		if e.doc.Score >= m.threshold {
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].doc.Score != entries[j].doc.Score {
			return entries[i].doc.Score > entries[j].doc.Score
		}
		return entries[i].seen < entries[j].seen
	})

	if len(entries) > 2*k {
		entries = entries[:2*k]
	}

	docs := make([]*ScoredDocument, len(entries))
	for i, e := range entries {
		docs[i] = e.doc
	}
	return docs
}

var _ Retriever = (*MultiQueryExpander)(nil)
