package retrieval

import "math"

// NormalizeScore converts a raw backend distance into a similarity in
// [0,1] where 1 means identical. Distances already normalized to [0,1]
// invert directly; unbounded distances decay smoothly toward 0 without
// reaching it. Both backend conventions are handled without the caller
// knowing which is in effect.
func NormalizeScore(raw float64) float64 {
	if raw <= 1 {
		return 1 - raw
	}
	return 1 / (1 + raw)
}

// RoundScore rounds a score to 4 decimal places for presentation.
// Comparisons always use full precision.
func RoundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}
