// Package analysis computes frequency, recency, and pattern statistics
// over normalized draw records. All functions are pure: every call builds
// its tables from scratch, so concurrent callers never share state.
package analysis

import (
	"fmt"
	"sort"

	"github.com/rdelaney/powerplay/internal/model"
)

// FrequencyTable maps a ball number to its accumulated weight. Numbers that
// never appear are absent; absent and zero are treated identically wherever
// ranked lists are built.
type FrequencyTable map[int]float64

// Frequencies builds uniform (weight 1 per record) frequency tables for
// white and red balls across all records.
func Frequencies(records []model.DrawRecord) (whites, reds FrequencyTable) {
	whites, reds, _ = WeightedFrequencies(records, nil)
	return whites, reds
}

// WeightedFrequencies builds frequency tables applying a per-record weight
// sequence aligned by index. A nil weight sequence means uniform weight 1.
func WeightedFrequencies(records []model.DrawRecord, weights []float64) (whites, reds FrequencyTable, err error) {
	if weights != nil && len(weights) != len(records) {
		return nil, nil, fmt.Errorf("weight count %d does not match record count %d", len(weights), len(records))
	}

	whites = make(FrequencyTable)
	reds = make(FrequencyTable)
	for i, rec := range records {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		for _, n := range rec.Whites {
			whites[n] += w
		}
		reds[rec.Red] += w
	}
	return whites, reds, nil
}

// TopN returns up to n numbers ranked by descending weight. Ties are broken
// by ascending number so the ranking is deterministic. A table with fewer
// than n entries yields all available entries rather than an error.
func TopN(table FrequencyTable, n int) []int {
	ranked := Ranking(table)
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Ranking returns every number in the table ordered by descending weight,
// ties broken by ascending number.
func Ranking(table FrequencyTable) []int {
	numbers := make([]int, 0, len(table))
	for n := range table {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool {
		wi, wj := table[numbers[i]], table[numbers[j]]
		if wi != wj {
			return wi > wj
		}
		return numbers[i] < numbers[j]
	})
	return numbers
}
