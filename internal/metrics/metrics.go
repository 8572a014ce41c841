// Package metrics computes information-retrieval ranking quality
// metrics. All functions are pure: no state, no I/O.
package metrics

import (
	"math"
	"sort"
)

// DefaultBinaryThreshold binarizes graded relevance for MAP and MRR.
const DefaultBinaryThreshold = 0.5

// PerQueryMetrics maps each k value to the metric value at that k, for
// one evaluated query.
type PerQueryMetrics struct {
	NDCG map[int]float64 `json:"ndcg"`
	MAP  map[int]float64 `json:"map"`
	MRR  map[int]float64 `json:"mrr"`
}

// AggregateMetrics is the arithmetic mean of per-query metrics at each
// k across a dataset.
type AggregateMetrics struct {
	NDCG map[int]float64 `json:"ndcg"`
	MAP  map[int]float64 `json:"map"`
	MRR  map[int]float64 `json:"mrr"`
}

// NDCG computes normalized discounted cumulative gain at k.
//
// DCG sums relevance(retrieved[i]) / log2(i+2) over the first k
// retrieved documents. IDCG applies the same discount to the expected
// relevances sorted descending and truncated to k. Returns 0 when
// either input is empty or the expected list carries no relevance
// mass.
func NDCG(retrieved []string, expected map[string]float64, k int) float64 {
	if k <= 0 || len(retrieved) == 0 || len(expected) == 0 {
		return 0
	}

	dcg := 0.0
	for i, id := range retrieved {
		if i >= k {
			break
		}
		dcg += expected[id] / math.Log2(float64(i)+2)
	}

	ideal := make([]float64, 0, len(expected))
	for _, rel := range expected {
		ideal = append(ideal, rel)
	}
	sortDescending(ideal)

	idcg := 0.0
	for i, rel := range ideal {
		if i >= k {
			break
		}
		idcg += rel / math.Log2(float64(i)+2)
	}

	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// MAPAtK computes mean average precision at k for one query.
//
// Expected relevances are binarized at threshold. Walking the first k
// retrieved documents, each hit accumulates running-hits/position. The
// sum is divided by the total relevant set size, not the number of
// hits found, so missing relevant documents within k still cost score.
func MAPAtK(retrieved []string, expected map[string]float64, k int, threshold float64) float64 {
	relevant := binarize(expected, threshold)
	if k <= 0 || len(retrieved) == 0 || len(relevant) == 0 {
		return 0
	}

	hits := 0
	precisionSum := 0.0
	for i, id := range retrieved {
		if i >= k {
			break
		}
		if relevant[id] {
			hits++
			precisionSum += float64(hits) / float64(i+1)
		}
	}

	return precisionSum / float64(len(relevant))
}

// MRRAtK computes mean reciprocal rank at k for one query: 1 over the
// 1-indexed rank of the first relevant document, 0 if none appears
// within k.
func MRRAtK(retrieved []string, expected map[string]float64, k int, threshold float64) float64 {
	relevant := binarize(expected, threshold)
	if k <= 0 || len(retrieved) == 0 || len(relevant) == 0 {
		return 0
	}

	for i, id := range retrieved {
		if i >= k {
			break
		}
		if relevant[id] {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// ComputeAll evaluates all three metrics independently at each k. The
// k values need not be related to one another.
func ComputeAll(retrieved []string, expected map[string]float64, kValues []int) PerQueryMetrics {
	m := PerQueryMetrics{
		NDCG: make(map[int]float64, len(kValues)),
		MAP:  make(map[int]float64, len(kValues)),
		MRR:  make(map[int]float64, len(kValues)),
	}
	for _, k := range kValues {
		m.NDCG[k] = NDCG(retrieved, expected, k)
		m.MAP[k] = MAPAtK(retrieved, expected, k, DefaultBinaryThreshold)
		m.MRR[k] = MRRAtK(retrieved, expected, k, DefaultBinaryThreshold)
	}
	return m
}

// Aggregate averages per-query metrics across a dataset, per metric,
// per k. An empty input yields empty maps rather than an error.
func Aggregate(perQuery []PerQueryMetrics) AggregateMetrics {
	agg := AggregateMetrics{
		NDCG: map[int]float64{},
		MAP:  map[int]float64{},
		MRR:  map[int]float64{},
	}
	if len(perQuery) == 0 {
		return agg
	}

	agg.NDCG = meanByK(perQuery, func(m PerQueryMetrics) map[int]float64 { return m.NDCG })
	agg.MAP = meanByK(perQuery, func(m PerQueryMetrics) map[int]float64 { return m.MAP })
	agg.MRR = meanByK(perQuery, func(m PerQueryMetrics) map[int]float64 { return m.MRR })
	return agg
}

func meanByK(perQuery []PerQueryMetrics, pick func(PerQueryMetrics) map[int]float64) map[int]float64 {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, m := range perQuery {
		for k, v := range pick(m) {
			sums[k] += v
			counts[k]++
		}
	}

	means := make(map[int]float64, len(sums))
	for k, sum := range sums {
		means[k] = sum / float64(counts[k])
	}
	return means
}

func binarize(expected map[string]float64, threshold float64) map[string]bool {
	relevant := make(map[string]bool, len(expected))
	for id, rel := range expected {
		if rel >= threshold {
			relevant[id] = true
		}
	}
	return relevant
}

func sortDescending(vals []float64) {
	sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
}
