package builder

import (
	"time"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// sampleDates picks n dates from pool without replacement, preserving pool
// order in the result. n >= len(pool) returns the whole pool.
func sampleDates(pool []time.Time, n int, src xrand.Source) []time.Time {
	if n >= len(pool) {
		return pool
	}
	idx := make([]int, n)
	sampleuv.WithoutReplacement(idx, len(pool), src)
	picked := make(map[int]bool, n)
	for _, i := range idx {
		picked[i] = true
	}
	out := make([]time.Time, 0, n)
	for i, d := range pool {
		if picked[i] {
			out = append(out, d)
		}
	}
	return out
}
