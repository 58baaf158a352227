package strategy

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/rdelaney/powerplay/internal/analysis"
	"github.com/rdelaney/powerplay/internal/model"
)

func mustRecord(t *testing.T, date time.Time, whites []int, red int) model.DrawRecord {
	t.Helper()
	rec, err := model.NewDrawRecord(date, whites, red, 0)
	if err != nil {
		t.Fatalf("bad test record: %v", err)
	}
	return rec
}

func jan(day int) time.Time {
	return time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC)
}

// scenarioRecords builds 10 draws spanning 3 weeks where number 7 appears
// in 8 of them, number 41 never appears, and the unseen whites are exactly
// {41, 45..69}.
func scenarioRecords(t *testing.T) []model.DrawRecord {
	t.Helper()

	// Every number in [1,44] except 7 and 41, ascending.
	var others []int
	for n := 1; n <= 44; n++ {
		if n != 7 && n != 41 {
			others = append(others, n)
		}
	}

	days := []int{1, 3, 5, 8, 10, 12, 15, 17, 19, 22}
	var records []model.DrawRecord
	idx := 0
	for i, day := range days {
		var whites []int
		if i < 8 {
			whites = append([]int{7}, others[idx:idx+4]...)
			idx += 4
		} else {
			whites = others[idx : idx+5]
			idx += 5
		}
		records = append(records, mustRecord(t, jan(day), whites, i%model.MaxRed+1))
	}
	return records
}

func seededEngine(seed int64) *Engine {
	opts := DefaultOptions()
	opts.Rand = rand.New(rand.NewSource(seed))
	opts.Now = func() time.Time { return jan(2) } // Tuesday: next draw is Wednesday
	return NewEngine(opts)
}

func assertValidPickSet(t *testing.T, ps model.PickSet) {
	t.Helper()
	if len(ps.Whites) != 5 {
		t.Fatalf("%s: expected 5 white picks, got %d", ps.Strategy, len(ps.Whites))
	}
	seen := make(map[int]bool)
	for i, w := range ps.Whites {
		if w < 1 || w > model.MaxWhite {
			t.Errorf("%s: white pick %d out of range", ps.Strategy, w)
		}
		if seen[w] {
			t.Errorf("%s: duplicate white pick %d", ps.Strategy, w)
		}
		seen[w] = true
		if i > 0 && ps.Whites[i-1] > w {
			t.Errorf("%s: whites not sorted ascending: %v", ps.Strategy, ps.Whites)
		}
	}
	if ps.Red < 1 || ps.Red > model.MaxRed {
		t.Errorf("%s: red pick %d out of range", ps.Strategy, ps.Red)
	}
}

func TestAllStrategiesProduceValidPickSets(t *testing.T) {
	records := scenarioRecords(t)
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			ps, err := seededEngine(1).Pick(records, name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertValidPickSet(t, ps)
		})
	}
}

func TestDeterminismUnderFixedSeed(t *testing.T) {
	records := scenarioRecords(t)

	first, err := seededEngine(42).Run(records, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := seededEngine(42).Run(records, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed produced different pick sets:\n%v\n%v", first, second)
	}
}

func TestGlobalHotPoolMembership(t *testing.T) {
	records := scenarioRecords(t)

	whites, _ := analysis.Frequencies(records)
	pool := analysis.TopN(whites, 15)
	inPool := make(map[int]bool)
	for _, n := range pool {
		inPool[n] = true
	}
	if !inPool[7] {
		t.Fatal("pool of 15 must include the hottest number 7")
	}
	if inPool[41] {
		t.Fatal("pool of 15 must never include the never-drawn 41")
	}

	// Picks always come from the pool; 41 can never be sampled.
	for seed := int64(0); seed < 20; seed++ {
		ps, err := seededEngine(seed).Pick(records, GlobalHot)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, w := range ps.Whites {
			if w == 41 {
				t.Fatalf("seed %d: global-hot picked never-drawn 41", seed)
			}
			if !inPool[w] {
				t.Fatalf("seed %d: pick %d outside the top-15 pool", seed, w)
			}
		}
	}
}

func TestOverduePicksMostOverdue(t *testing.T) {
	records := scenarioRecords(t)

	ps, err := seededEngine(3).Pick(records, Overdue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Unseen whites are {41, 45..69}, all with gap equal to the dataset
	// span; ties break by ascending number.
	want := []int{41, 45, 46, 47, 48}
	if !reflect.DeepEqual(ps.Whites, want) {
		t.Errorf("overdue whites = %v, want %v", ps.Whites, want)
	}
}

func TestRecencyWeightMonotonicity(t *testing.T) {
	weights := analysis.DecayWeights(100, analysis.DefaultDecayBase)
	for i := 1; i < len(weights); i++ {
		if weights[i] < weights[i-1] {
			t.Fatalf("weight at %d (%v) below weight at %d (%v)", i, weights[i], i-1, weights[i-1])
		}
	}
}

func TestDayOfWeekFallbackMatchesGlobalHot(t *testing.T) {
	// All draws on Mondays; the reference Tuesday targets Wednesday, so the
	// filtered subset is empty and the strategy must fall back entirely.
	records := []model.DrawRecord{
		mustRecord(t, jan(1), []int{1, 2, 3, 4, 5}, 10),
		mustRecord(t, jan(8), []int{1, 2, 6, 7, 8}, 11),
		mustRecord(t, jan(15), []int{1, 9, 10, 11, 12}, 12),
	}

	dow, err := seededEngine(99).Pick(records, DayOfWeek)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hot, err := seededEngine(99).Pick(records, GlobalHot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(dow, hot) {
		t.Errorf("fallback output differs from global-hot:\n%v\n%v", dow, hot)
	}
}

func TestDayOfWeekUsesMatchingSubset(t *testing.T) {
	// Wednesday draws use numbers 30-39 only; Monday draws use 1-10. The
	// reference Tuesday targets Wednesday, so picks come from 30-39.
	records := []model.DrawRecord{
		mustRecord(t, jan(1), []int{1, 2, 3, 4, 5}, 1),    // Monday
		mustRecord(t, jan(3), []int{30, 31, 32, 33, 34}, 20), // Wednesday
		mustRecord(t, jan(8), []int{6, 7, 8, 9, 10}, 2),   // Monday
		mustRecord(t, jan(10), []int{35, 36, 37, 38, 39}, 21), // Wednesday
	}

	ps, err := seededEngine(7).Pick(records, DayOfWeek)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, w := range ps.Whites {
		if w < 30 || w > 39 {
			t.Errorf("pick %d not from the Wednesday subset", w)
		}
	}
	if ps.Red != 20 && ps.Red != 21 {
		t.Errorf("red pick %d not from the Wednesday subset", ps.Red)
	}
}

func TestBalancedMinimalDataset(t *testing.T) {
	// A single draw yields exactly 5 distinct numbers; balanced must return
	// them all rather than error on its short bands.
	records := []model.DrawRecord{
		mustRecord(t, jan(1), []int{5, 17, 23, 42, 61}, 9),
	}

	ps, err := seededEngine(5).Pick(records, Balanced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertValidPickSet(t, ps)
	if !reflect.DeepEqual(ps.Whites, []int{5, 17, 23, 42, 61}) {
		t.Errorf("balanced whites = %v, want the 5 observed numbers", ps.Whites)
	}
}

func TestBalancedBands(t *testing.T) {
	records := scenarioRecords(t)

	ps, err := seededEngine(11).Pick(records, Balanced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertValidPickSet(t, ps)
}

func TestRunEmptyDataset(t *testing.T) {
	_, err := seededEngine(1).Run(nil, nil)
	if !errors.Is(err, model.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestRunAllInvalidRecords(t *testing.T) {
	// Records that fail validation are dropped during normalization; a
	// fully invalid batch is an empty dataset.
	records := []model.DrawRecord{
		{Date: jan(1), Whites: [5]int{1, 1, 2, 3, 4}, Red: 5},
	}
	_, err := seededEngine(1).Run(records, nil)
	if !errors.Is(err, model.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestRunPartialFailure(t *testing.T) {
	records := scenarioRecords(t)

	picks, err := seededEngine(1).Run(records, []string{GlobalHot, "no-such-strategy", Overdue})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picks) != 2 {
		t.Fatalf("expected 2 pick sets from a partially failing batch, got %d", len(picks))
	}
	if picks[0].Strategy != GlobalHot || picks[1].Strategy != Overdue {
		t.Errorf("unexpected strategies in batch: %v, %v", picks[0].Strategy, picks[1].Strategy)
	}
}

func TestRunAllStrategies(t *testing.T) {
	records := scenarioRecords(t)

	picks, err := seededEngine(8).Run(records, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picks) != len(Names()) {
		t.Fatalf("expected %d pick sets, got %d", len(Names()), len(picks))
	}
	for _, ps := range picks {
		assertValidPickSet(t, ps)
	}
}
