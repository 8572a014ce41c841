package retrieval

import (
	"sort"

	"github.com/docqa-dev/docqa/internal/store"
)

// fingerprintLength is the content prefix used to deduplicate
// near-identical chunks across ranked lists.
const fingerprintLength = 100

// RankedList is one input list for fusion: documents best-first with
// the weight of the ranker that produced them.
type RankedList struct {
	Documents []*store.Document
	Weight    float64
}

// RankFuser merges ranked lists by positional scoring. Rank-based
// fusion is used because constituent rankers (BM25 and vector search)
// do not share a comparable score scale.
//
// An item at 0-indexed position p in list i contributes
// weight_i * (1 - p/len_i); contributions for the same content
// fingerprint are summed.
type RankFuser struct{}

// NewRankFuser creates a rank fuser.
func NewRankFuser() *RankFuser {
	return &RankFuser{}
}

// fusedEntry accumulates positional contributions for one fingerprint.
type fusedEntry struct {
	doc   *store.Document
	score float64
	seen  int // first-seen order for stable ties
}

// Fuse merges the lists into one ranked list of size at most k.
// Weights are renormalized to sum to 1 before scoring.
func (f *RankFuser) Fuse(lists []RankedList, k int) []*ScoredDocument {
	if len(lists) == 0 || k <= 0 {
		return []*ScoredDocument{}
	}

	var weightSum float64
	for _, l := range lists {
		weightSum += l.Weight
	}
	if weightSum == 0 {
		return []*ScoredDocument{}
	}

	entries := make(map[string]*fusedEntry)
	order := 0

	for _, list := range lists {
		weight := list.Weight / weightSum
		length := len(list.Documents)

		for pos, doc := range list.Documents {
			if doc == nil {
				continue
			}

			key := fingerprint(doc.Content)
			entry, ok := entries[key]
			if !ok {
				entry = &fusedEntry{doc: doc, seen: order}
				entries[key] = entry
				order++
			}

			entry.score += weight * (1 - float64(pos)/float64(length))
		}
	}

	results := make([]*fusedEntry, 0, len(entries))
	for _, e := range entries {
		results = append(results, e)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].seen < results[j].seen
	})

	if len(results) > k {
		results = results[:k]
	}

	fused := make([]*ScoredDocument, len(results))
	for i, e := range results {
		fused[i] = &ScoredDocument{
			Document: e.doc,
			Score:    e.score,
			Strategy: StrategyHybrid,
		}
	}
	return fused
}

// fingerprint keys a document by its content prefix so near-identical
// chunks from different rankers collapse into one entry.
func fingerprint(content string) string {
	if len(content) <= fingerprintLength {
		return content
	}
	return content[:fingerprintLength]
}
