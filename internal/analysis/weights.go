package analysis

import (
	"math"
	"time"

	"github.com/rdelaney/powerplay/internal/model"
)

// DefaultDecayBase is the default per-step multiplier for exponential
// recency weighting.
const DefaultDecayBase = 0.995

// DefaultSchedule is the Powerball draw schedule: Monday, Wednesday, and
// Saturday (Monday=0 .. Sunday=6).
var DefaultSchedule = []int{0, 2, 5}

// UniformWeights returns n weights of 1.0.
func UniformWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1.0
	}
	return weights
}

// DecayWeights returns exponential recency weights for n records ordered
// oldest to newest: weight_i = base^(n-i-1), so the most recent record has
// weight 1.0 and older records decay geometrically. Weights are computed
// over the full sequence so relative weighting between any two draws is
// consistent regardless of dataset size. A base outside (0, 1) falls back
// to DefaultDecayBase.
func DecayWeights(n int, base float64) []float64 {
	if base <= 0 || base >= 1 {
		base = DefaultDecayBase
	}
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = math.Pow(base, float64(n-i-1))
	}
	return weights
}

// FilterWeekday returns the records drawn on the given weekday
// (Monday=0 .. Sunday=6). Non-matching records are excluded entirely, not
// weighted zero, so they do not count toward any subsequent ratio.
func FilterWeekday(records []model.DrawRecord, weekday int) []model.DrawRecord {
	var filtered []model.DrawRecord
	for _, rec := range records {
		if rec.Weekday() == weekday {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// NextDrawWeekday scans forward day by day from the day after `from` and
// returns the first weekday present in the draw schedule (Monday=0 ..
// Sunday=6). With a non-empty schedule it terminates within 7 iterations;
// an empty schedule falls back to DefaultSchedule.
func NextDrawWeekday(schedule []int, from time.Time) int {
	if len(schedule) == 0 {
		schedule = DefaultSchedule
	}
	valid := make(map[int]bool, len(schedule))
	for _, wd := range schedule {
		valid[wd] = true
	}
	for i := 1; i <= 7; i++ {
		wd := (int(from.AddDate(0, 0, i).Weekday()) + 6) % 7
		if valid[wd] {
			return wd
		}
	}
	// Unreachable with a non-empty schedule; keep the scan's last day.
	return (int(from.AddDate(0, 0, 7).Weekday()) + 6) % 7
}
