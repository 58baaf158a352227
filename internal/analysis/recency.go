package analysis

import (
	"sort"
	"time"

	"github.com/rdelaney/powerplay/internal/model"
)

// LastSeen maps every number in the valid range to the date it last
// appeared. Numbers never drawn are assigned the earliest record's date,
// treating them as maximally (not infinitely) overdue so sorting stays
// well-defined on short datasets.
type LastSeen struct {
	Whites map[int]time.Time
	Reds   map[int]time.Time
}

// TrackLastSeen computes last-seen dates from records ordered by ascending
// date. An empty input returns empty maps; callers fall back to the
// global-hot strategy rather than operate on empty data.
func TrackLastSeen(records []model.DrawRecord) LastSeen {
	seen := LastSeen{
		Whites: make(map[int]time.Time),
		Reds:   make(map[int]time.Time),
	}
	if len(records) == 0 {
		return seen
	}

	earliest := records[0].Date
	for n := 1; n <= model.MaxWhite; n++ {
		seen.Whites[n] = earliest
	}
	for n := 1; n <= model.MaxRed; n++ {
		seen.Reds[n] = earliest
	}

	for _, rec := range records {
		for _, w := range rec.Whites {
			if rec.Date.After(seen.Whites[w]) {
				seen.Whites[w] = rec.Date
			}
		}
		if rec.Date.After(seen.Reds[rec.Red]) {
			seen.Reds[rec.Red] = rec.Date
		}
	}
	return seen
}

// OverdueEntry pairs a number with the days elapsed since its last
// occurrence relative to a reference date.
type OverdueEntry struct {
	Number  int `json:"number"`
	GapDays int `json:"gap_days"`
}

// OverdueRanking ranks numbers by descending gap since last occurrence,
// ties broken by ascending number for deterministic output.
func OverdueRanking(lastSeen map[int]time.Time, reference time.Time) []OverdueEntry {
	entries := make([]OverdueEntry, 0, len(lastSeen))
	for n, last := range lastSeen {
		gap := int(reference.Sub(last).Hours() / 24)
		entries = append(entries, OverdueEntry{Number: n, GapDays: gap})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].GapDays != entries[j].GapDays {
			return entries[i].GapDays > entries[j].GapDays
		}
		return entries[i].Number < entries[j].Number
	})
	return entries
}
