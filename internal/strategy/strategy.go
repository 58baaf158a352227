// Package strategy generates Powerball number recommendations from
// historical draw records under five heuristic strategies. Strategies are
// stateless: every invocation builds its own frequency and recency tables,
// and randomness comes from an injected source so fixed seeds reproduce
// identical picks.
package strategy

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/rdelaney/powerplay/internal/analysis"
	"github.com/rdelaney/powerplay/internal/model"
)

// Strategy names accepted by Engine.Pick and Engine.Run.
const (
	GlobalHot       = "global-hot"
	RecencyWeighted = "recency-weighted"
	DayOfWeek       = "day-of-week"
	Balanced        = "balanced"
	Overdue         = "overdue"
)

// descriptions hold the one-line rationale attached to every pick set.
var descriptions = map[string]string{
	GlobalHot:       "random sample from the most frequent numbers across all draws",
	RecencyWeighted: "frequencies weighted toward recent draws with exponential decay",
	DayOfWeek:       "frequencies restricted to draws on the next scheduled draw weekday",
	Balanced:        "mix of hot, middle-ranked, and cold numbers",
	Overdue:         "numbers with the longest gap since their last appearance",
}

// Names returns all strategy names in canonical order.
func Names() []string {
	return []string{GlobalHot, RecencyWeighted, DayOfWeek, Balanced, Overdue}
}

// Options configures the strategy engine. Zero values are replaced with
// defaults matching the Powerball schedule and the original tool's pools.
type Options struct {
	// DecayBase is the exponential recency weighting base in (0, 1).
	DecayBase float64

	// Schedule lists the lottery's draw weekdays (Monday=0 .. Sunday=6).
	Schedule []int

	// Pool sizes for the frequency-ranked strategies.
	HotWhitePool     int
	HotRedPool       int
	RecencyWhitePool int
	RecencyRedPool   int

	// Rand is the random source used for sampling. Inject a seeded source
	// for reproducible picks; nil uses a wall-clock seeded source.
	Rand *rand.Rand

	// Logger receives strategy fallback and failure events.
	Logger *slog.Logger

	// Now supplies the reference date for the day-of-week helper.
	Now func() time.Time
}

// DefaultOptions returns options matching the defaults in the original tool.
func DefaultOptions() *Options {
	return &Options{
		DecayBase:        analysis.DefaultDecayBase,
		Schedule:         analysis.DefaultSchedule,
		HotWhitePool:     15,
		HotRedPool:       5,
		RecencyWhitePool: 20,
		RecencyRedPool:   8,
	}
}

func (o *Options) withDefaults() *Options {
	out := *o
	def := DefaultOptions()
	if out.DecayBase <= 0 || out.DecayBase >= 1 {
		out.DecayBase = def.DecayBase
	}
	if len(out.Schedule) == 0 {
		out.Schedule = def.Schedule
	}
	if out.HotWhitePool <= 0 {
		out.HotWhitePool = def.HotWhitePool
	}
	if out.HotRedPool <= 0 {
		out.HotRedPool = def.HotRedPool
	}
	if out.RecencyWhitePool <= 0 {
		out.RecencyWhitePool = def.RecencyWhitePool
	}
	if out.RecencyRedPool <= 0 {
		out.RecencyRedPool = def.RecencyRedPool
	}
	if out.Rand == nil {
		out.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return &out
}

// Engine runs recommendation strategies over draw records.
type Engine struct {
	opts *Options
}

// NewEngine creates an engine. A nil options value uses DefaultOptions.
func NewEngine(opts *Options) *Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Engine{opts: opts.withDefaults()}
}

// Run computes one pick set per requested strategy. Empty names means all
// five. Records are normalized defensively (invalid rows dropped, sorted by
// date); an empty normalized dataset returns ErrEmptyDataset. A failing
// strategy is logged and skipped, so the batch returns 0..N pick sets.
func (e *Engine) Run(records []model.DrawRecord, names []string) ([]model.PickSet, error) {
	records = model.Normalize(records, e.opts.Logger)
	if len(records) == 0 {
		return nil, model.ErrEmptyDataset
	}
	if len(names) == 0 {
		names = Names()
	}

	picks := make([]model.PickSet, 0, len(names))
	for _, name := range names {
		ps, err := e.pick(records, name)
		if err != nil {
			e.opts.Logger.Error("strategy failed", "strategy", name, "error", err)
			continue
		}
		picks = append(picks, ps)
	}
	return picks, nil
}

// Pick runs a single strategy over normalized records.
func (e *Engine) Pick(records []model.DrawRecord, name string) (model.PickSet, error) {
	records = model.Normalize(records, e.opts.Logger)
	return e.pick(records, name)
}

func (e *Engine) pick(records []model.DrawRecord, name string) (model.PickSet, error) {
	if len(records) == 0 {
		return model.PickSet{}, model.ErrEmptyDataset
	}
	switch name {
	case GlobalHot:
		return e.globalHot(records), nil
	case RecencyWeighted:
		return e.recencyWeighted(records), nil
	case DayOfWeek:
		return e.dayOfWeek(records), nil
	case Balanced:
		return e.balanced(records), nil
	case Overdue:
		return e.overdue(records), nil
	default:
		return model.PickSet{}, fmt.Errorf("unknown strategy %q", name)
	}
}

// globalHot samples 5 whites from the top 15 by uniform frequency and a red
// from the top 5.
func (e *Engine) globalHot(records []model.DrawRecord) model.PickSet {
	whites, reds := analysis.Frequencies(records)
	return model.PickSet{
		Strategy:    GlobalHot,
		Description: descriptions[GlobalHot],
		Whites:      e.sampleWhites(analysis.TopN(whites, e.opts.HotWhitePool), 5),
		Red:         e.chooseRed(analysis.TopN(reds, e.opts.HotRedPool)),
	}
}

// recencyWeighted samples 5 whites from the top 20 by decay-weighted
// frequency and a red from the top 8.
func (e *Engine) recencyWeighted(records []model.DrawRecord) model.PickSet {
	weights := analysis.DecayWeights(len(records), e.opts.DecayBase)
	whites, reds, _ := analysis.WeightedFrequencies(records, weights)
	return model.PickSet{
		Strategy:    RecencyWeighted,
		Description: descriptions[RecencyWeighted],
		Whites:      e.sampleWhites(analysis.TopN(whites, e.opts.RecencyWhitePool), 5),
		Red:         e.chooseRed(analysis.TopN(reds, e.opts.RecencyRedPool)),
	}
}

// dayOfWeek restricts the frequency tables to draws on the next scheduled
// draw weekday. When no draw matches that weekday it falls back entirely to
// global-hot on the unfiltered records: same pools, same random draws.
func (e *Engine) dayOfWeek(records []model.DrawRecord) model.PickSet {
	target := analysis.NextDrawWeekday(e.opts.Schedule, e.opts.Now())
	subset := analysis.FilterWeekday(records, target)
	if len(subset) == 0 {
		e.opts.Logger.Info("no draws on target weekday, falling back to global-hot",
			"strategy", DayOfWeek, "weekday", target)
		return e.globalHot(records)
	}

	whites, reds := analysis.Frequencies(subset)
	return model.PickSet{
		Strategy:    DayOfWeek,
		Description: descriptions[DayOfWeek],
		Whites:      e.sampleWhites(analysis.TopN(whites, e.opts.HotWhitePool), 5),
		Red:         e.chooseRed(analysis.TopN(reds, e.opts.HotRedPool)),
	}
}

// balanced picks 3 whites from the hot band (rank [0,30)), 1 from the
// middle band, and 1 from the coldest 15. The middle band is [30,45) when
// at least 45 distinct numbers exist, else [30,n-10) when non-empty, else
// [30,n). With fewer than 5 distinct numbers observed it falls back to
// global-hot.
func (e *Engine) balanced(records []model.DrawRecord) model.PickSet {
	whites, reds := analysis.Frequencies(records)
	ranking := analysis.Ranking(whites)
	n := len(ranking)
	if n < 5 {
		e.opts.Logger.Info("too few distinct numbers for balanced bands, falling back to global-hot",
			"strategy", Balanced, "distinct", n)
		return e.globalHot(records)
	}

	hotBand := ranking[:min(30, n)]
	var middleBand []int
	switch {
	case n >= 45:
		middleBand = ranking[30:45]
	case n-10 > 30:
		middleBand = ranking[30 : n-10]
	case n > 30:
		middleBand = ranking[30:n]
	default:
		// No ranks past 30: the middle pick draws from the full ranking.
		middleBand = ranking
	}
	coldBand := ranking[max(0, n-15):]

	seen := make(map[int]bool, 5)
	picks := make([]int, 0, 5)
	take := func(band []int, k int) {
		for _, i := range e.opts.Rand.Perm(len(band)) {
			if k == 0 {
				return
			}
			if !seen[band[i]] {
				seen[band[i]] = true
				picks = append(picks, band[i])
				k--
			}
		}
	}
	take(hotBand, 3)
	take(middleBand, 1)
	take(coldBand, 1)
	if len(picks) < 5 {
		take(ranking, 5-len(picks))
	}
	picks = e.backfillWhites(picks, seen)

	redRanking := analysis.Ranking(reds)
	redPool := analysis.TopN(reds, max(1, len(redRanking)/3)+3)

	return model.PickSet{
		Strategy:    Balanced,
		Description: descriptions[Balanced],
		Whites:      picks,
		Red:         e.chooseRed(redPool),
	}
}

// overdue picks the 5 whites with the longest gap since last appearance
// (ties by ascending number) and the single most overdue red.
func (e *Engine) overdue(records []model.DrawRecord) model.PickSet {
	lastSeen := analysis.TrackLastSeen(records)
	reference := records[len(records)-1].Date

	ranked := analysis.OverdueRanking(lastSeen.Whites, reference)
	picks := make([]int, 0, 5)
	for i := 0; i < len(ranked) && i < 5; i++ {
		picks = append(picks, ranked[i].Number)
	}
	picks = e.backfillWhites(picks, toSet(picks))

	red := e.opts.Rand.Intn(model.MaxRed) + 1
	if redRanked := analysis.OverdueRanking(lastSeen.Reds, reference); len(redRanked) > 0 {
		red = redRanked[0].Number
	}

	return model.PickSet{
		Strategy:    Overdue,
		Description: descriptions[Overdue],
		Whites:      picks,
		Red:         red,
	}
}

// sampleWhites draws 5 distinct numbers from the pool without replacement,
// backfilling when the pool cannot supply 5, and returns them ascending.
func (e *Engine) sampleWhites(pool []int, k int) []int {
	seen := make(map[int]bool, k)
	picks := make([]int, 0, k)
	for _, i := range e.opts.Rand.Perm(len(pool)) {
		if len(picks) == k {
			break
		}
		if !seen[pool[i]] {
			seen[pool[i]] = true
			picks = append(picks, pool[i])
		}
	}
	return e.backfillWhites(picks, seen)
}

// backfillWhites tops a pick list up to 5 distinct whites with uniform
// random draws from the full valid range, then sorts ascending. This keeps
// the 5-distinct-picks invariant even on degenerate datasets.
func (e *Engine) backfillWhites(picks []int, seen map[int]bool) []int {
	for len(picks) < 5 {
		n := e.opts.Rand.Intn(model.MaxWhite) + 1
		if !seen[n] {
			seen[n] = true
			picks = append(picks, n)
		}
	}
	sort.Ints(picks)
	return picks
}

// chooseRed picks one number from the pool, or a uniform random red when
// the pool is empty.
func (e *Engine) chooseRed(pool []int) int {
	if len(pool) == 0 {
		return e.opts.Rand.Intn(model.MaxRed) + 1
	}
	return pool[e.opts.Rand.Intn(len(pool))]
}

func toSet(numbers []int) map[int]bool {
	set := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		set[n] = true
	}
	return set
}
