package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNDCG_PerfectOrder(t *testing.T) {
	retrieved := []string{"d1", "d2", "d3"}
	expected := map[string]float64{"d1": 1.0, "d2": 0.8, "d3": 0.6}

	assert.InDelta(t, 1.0, NDCG(retrieved, expected, 3), 0.01)
}

func TestNDCG_NoOverlap(t *testing.T) {
	retrieved := []string{"d4", "d5", "d6"}
	expected := map[string]float64{"d1": 1.0, "d2": 0.8}

	assert.Equal(t, 0.0, NDCG(retrieved, expected, 3))
}

func TestNDCG_Bounds(t *testing.T) {
	retrieved := []string{"d2", "d1", "d3"}
	expected := map[string]float64{"d1": 1.0, "d2": 0.3}

	for _, k := range []int{1, 2, 3, 10} {
		v := NDCG(retrieved, expected, k)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestNDCG_ImperfectOrderBelowOne(t *testing.T) {
	// Best document retrieved second.
	v := NDCG([]string{"d2", "d1"}, map[string]float64{"d1": 1.0, "d2": 0.5}, 2)
	assert.Greater(t, v, 0.0)
	assert.Less(t, v, 1.0)
}

func TestNDCG_ZeroRelevanceMass(t *testing.T) {
	assert.Equal(t, 0.0, NDCG([]string{"d1"}, map[string]float64{"d1": 0.0}, 3))
}

func TestMAP_PerfectOrder(t *testing.T) {
	retrieved := []string{"d1", "d2"}
	expected := map[string]float64{"d1": 1.0, "d2": 1.0}

	assert.InDelta(t, 1.0, MAPAtK(retrieved, expected, 3, DefaultBinaryThreshold), 1e-9)
}

func TestMAP_DegradesWithInterleavedIrrelevant(t *testing.T) {
	expected := map[string]float64{"d1": 1.0, "d2": 1.0}

	perfect := MAPAtK([]string{"d1", "d2", "d3"}, expected, 3, DefaultBinaryThreshold)
	degraded := MAPAtK([]string{"d1", "d3", "d2"}, expected, 3, DefaultBinaryThreshold)

	assert.Greater(t, degraded, 0.0)
	assert.Less(t, degraded, 1.0)
	assert.Less(t, degraded, perfect)
	// hits at ranks 1 and 3: (1/1 + 2/3) / 2
	assert.InDelta(t, (1.0+2.0/3.0)/2.0, degraded, 1e-9)
}

func TestMAP_DividesByFullRelevantSet(t *testing.T) {
	// Only one of three relevant documents found within k.
	expected := map[string]float64{"d1": 1.0, "d2": 1.0, "d3": 1.0}
	v := MAPAtK([]string{"d1", "x", "y"}, expected, 3, DefaultBinaryThreshold)
	assert.InDelta(t, 1.0/3.0, v, 1e-9)
}

func TestMAP_BinarizationThreshold(t *testing.T) {
	// 0.4 falls below the 0.5 threshold, so d2 is not relevant.
	expected := map[string]float64{"d1": 0.9, "d2": 0.4}
	v := MAPAtK([]string{"d2", "d1"}, expected, 2, DefaultBinaryThreshold)
	assert.InDelta(t, 0.5, v, 1e-9)
}

func TestMRR_FirstHitAtRankThree(t *testing.T) {
	retrieved := []string{"d1", "d2", "d3"}
	expected := map[string]float64{"d3": 1.0}

	assert.InDelta(t, 1.0/3.0, MRRAtK(retrieved, expected, 3, DefaultBinaryThreshold), 1e-9)
}

func TestMRR_NoHitWithinK(t *testing.T) {
	retrieved := []string{"d1", "d2", "d3"}
	expected := map[string]float64{"d3": 1.0}

	assert.Equal(t, 0.0, MRRAtK(retrieved, expected, 2, DefaultBinaryThreshold))
}

func TestEmptyInputClosure(t *testing.T) {
	for _, k := range []int{1, 5, 100} {
		assert.Equal(t, 0.0, NDCG(nil, nil, k))
		assert.Equal(t, 0.0, MAPAtK(nil, nil, k, DefaultBinaryThreshold))
		assert.Equal(t, 0.0, MRRAtK(nil, nil, k, DefaultBinaryThreshold))
	}
}

func TestComputeAll_IndependentPerK(t *testing.T) {
	retrieved := []string{"d2", "d1"}
	expected := map[string]float64{"d1": 1.0}

	m := ComputeAll(retrieved, expected, []int{1, 2})

	assert.Equal(t, 0.0, m.MRR[1])
	assert.InDelta(t, 0.5, m.MRR[2], 1e-9)
	assert.Equal(t, 0.0, m.NDCG[1])
	assert.Greater(t, m.NDCG[2], 0.0)
	assert.Len(t, m.MAP, 2)
}

func TestAggregate_MeanPerK(t *testing.T) {
	a := PerQueryMetrics{
		NDCG: map[int]float64{5: 1.0},
		MAP:  map[int]float64{5: 0.8},
		MRR:  map[int]float64{5: 1.0},
	}
	b := PerQueryMetrics{
		NDCG: map[int]float64{5: 0.0},
		MAP:  map[int]float64{5: 0.4},
		MRR:  map[int]float64{5: 0.5},
	}

	agg := Aggregate([]PerQueryMetrics{a, b})
	assert.Equal(t, 0.5, agg.NDCG[5])
	assert.InDelta(t, 0.6, agg.MAP[5], 1e-9)
	assert.InDelta(t, 0.75, agg.MRR[5], 1e-9)
}

func TestAggregate_EmptyInput(t *testing.T) {
	agg := Aggregate(nil)
	assert.Empty(t, agg.NDCG)
	assert.Empty(t, agg.MAP)
	assert.Empty(t, agg.MRR)
}
