package analysis

import (
	"testing"
	"time"

	"github.com/rdelaney/powerplay/internal/model"
)

func TestTrackLastSeen(t *testing.T) {
	records := []model.DrawRecord{
		mustRecord(t, 1, []int{1, 2, 3, 4, 5}, 10),
		mustRecord(t, 8, []int{1, 6, 7, 8, 9}, 11),
		mustRecord(t, 15, []int{2, 10, 11, 12, 13}, 10),
	}

	seen := TrackLastSeen(records)

	if len(seen.Whites) != model.MaxWhite {
		t.Fatalf("expected %d white entries, got %d", model.MaxWhite, len(seen.Whites))
	}
	if len(seen.Reds) != model.MaxRed {
		t.Fatalf("expected %d red entries, got %d", model.MaxRed, len(seen.Reds))
	}

	jan := func(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }

	if got := seen.Whites[1]; !got.Equal(jan(8)) {
		t.Errorf("last seen for 1 = %v, want %v", got, jan(8))
	}
	if got := seen.Whites[2]; !got.Equal(jan(15)) {
		t.Errorf("last seen for 2 = %v, want %v", got, jan(15))
	}
	// Never drawn: assigned the earliest record's date.
	if got := seen.Whites[42]; !got.Equal(jan(1)) {
		t.Errorf("last seen for unseen 42 = %v, want %v", got, jan(1))
	}
	if got := seen.Reds[10]; !got.Equal(jan(15)) {
		t.Errorf("last seen for red 10 = %v, want %v", got, jan(15))
	}
	if got := seen.Reds[26]; !got.Equal(jan(1)) {
		t.Errorf("last seen for unseen red 26 = %v, want %v", got, jan(1))
	}
}

func TestTrackLastSeenEmpty(t *testing.T) {
	seen := TrackLastSeen(nil)
	if len(seen.Whites) != 0 || len(seen.Reds) != 0 {
		t.Errorf("empty input should yield empty maps, got %d/%d entries",
			len(seen.Whites), len(seen.Reds))
	}
}

func TestOverdueRanking(t *testing.T) {
	jan := func(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }
	lastSeen := map[int]time.Time{
		5:  jan(1),
		3:  jan(1), // same gap as 5: tie broken by ascending number
		8:  jan(10),
		12: jan(15),
	}

	ranked := OverdueRanking(lastSeen, jan(15))

	wantNumbers := []int{3, 5, 8, 12}
	wantGaps := []int{14, 14, 5, 0}
	if len(ranked) != len(wantNumbers) {
		t.Fatalf("expected %d entries, got %d", len(wantNumbers), len(ranked))
	}
	for i := range wantNumbers {
		if ranked[i].Number != wantNumbers[i] || ranked[i].GapDays != wantGaps[i] {
			t.Errorf("ranked[%d] = {%d %d}, want {%d %d}",
				i, ranked[i].Number, ranked[i].GapDays, wantNumbers[i], wantGaps[i])
		}
	}
}

func TestOverdueUnseenGapSpansDataset(t *testing.T) {
	records := []model.DrawRecord{
		mustRecord(t, 1, []int{1, 2, 3, 4, 5}, 10),
		mustRecord(t, 22, []int{1, 2, 3, 4, 5}, 10),
	}

	seen := TrackLastSeen(records)
	ranked := OverdueRanking(seen.Whites, records[len(records)-1].Date)

	// Number 41 never appears: its gap equals the full dataset span.
	for _, entry := range ranked {
		if entry.Number == 41 {
			if entry.GapDays != 21 {
				t.Errorf("gap for unseen 41 = %d, want 21", entry.GapDays)
			}
			return
		}
	}
	t.Fatal("number 41 missing from overdue ranking")
}
