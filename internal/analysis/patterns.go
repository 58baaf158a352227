package analysis

import (
	"math"

	"github.com/rdelaney/powerplay/internal/model"
)

// chiSquareCritical is the 0.05 critical value of the chi-square
// distribution with 68 degrees of freedom (69 white balls - 1).
const chiSquareCritical = 88.25

// NumberPattern summarizes one white ball's draw history.
type NumberPattern struct {
	Number int     `json:"number"`
	Count  int     `json:"count"`
	Pct    float64 `json:"pct"`
	Hot    bool    `json:"hot"`
	Cold   bool    `json:"cold"`
}

// PatternReport holds frequency and variability statistics plus a
// chi-square uniformity check across the full white ball range.
type PatternReport struct {
	Whites []NumberPattern `json:"whites"`

	WhiteMean   float64 `json:"white_mean"`
	WhiteStdDev float64 `json:"white_std_dev"`
	RedMean     float64 `json:"red_mean"`
	RedStdDev   float64 `json:"red_std_dev"`

	// ChiSquare is the goodness-of-fit statistic of observed white ball
	// counts against the uniform expectation over 1-69. Uniform reports
	// whether the statistic stays below the 0.05 critical value for df=68.
	ChiSquare float64 `json:"chi_square"`
	Uniform   bool    `json:"uniform"`
}

// Patterns computes per-number frequency statistics, hot/cold flags for the
// top and bottom 10 by rank, and the chi-square uniformity statistic.
func Patterns(records []model.DrawRecord) (*PatternReport, error) {
	if len(records) == 0 {
		return nil, model.ErrEmptyDataset
	}

	var (
		whiteSum, whiteSqSum float64
		redSum, redSqSum     float64
	)
	counts := make(map[int]int, model.MaxWhite)
	for _, rec := range records {
		for _, w := range rec.Whites {
			counts[w]++
			whiteSum += float64(w)
			whiteSqSum += float64(w) * float64(w)
		}
		redSum += float64(rec.Red)
		redSqSum += float64(rec.Red) * float64(rec.Red)
	}

	totalWhites := float64(len(records) * model.WhiteCount)
	totalReds := float64(len(records))
	whiteMean := whiteSum / totalWhites
	redMean := redSum / totalReds

	// Hot/cold flags follow the frequency ranking over observed numbers.
	table := make(FrequencyTable, len(counts))
	for n, c := range counts {
		table[n] = float64(c)
	}
	ranking := Ranking(table)
	hot := make(map[int]bool, 10)
	cold := make(map[int]bool, 10)
	for i, n := range ranking {
		if i < 10 {
			hot[n] = true
		}
		if i >= len(ranking)-10 {
			cold[n] = true
		}
	}

	report := &PatternReport{
		WhiteMean:   whiteMean,
		WhiteStdDev: math.Sqrt(whiteSqSum/totalWhites - whiteMean*whiteMean),
		RedMean:     redMean,
		RedStdDev:   math.Sqrt(redSqSum/totalReds - redMean*redMean),
	}

	expected := totalWhites / float64(model.MaxWhite)
	for n := 1; n <= model.MaxWhite; n++ {
		c := counts[n]
		report.Whites = append(report.Whites, NumberPattern{
			Number: n,
			Count:  c,
			Pct:    float64(c) / totalWhites * 100,
			Hot:    hot[n],
			Cold:   cold[n],
		})
		diff := float64(c) - expected
		report.ChiSquare += diff * diff / expected
	}
	report.Uniform = report.ChiSquare < chiSquareCritical

	return report, nil
}
