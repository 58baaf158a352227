package analysis

import (
	"fmt"
	"time"

	"github.com/rdelaney/powerplay/internal/model"
)

// TrendSeries tracks one white ball's rolling occurrence sum per draw.
type TrendSeries struct {
	Number int       `json:"number"`
	Counts []float64 `json:"counts"`
}

// TrendReport holds rolling frequency trends for the overall top-N white
// balls, one data point per draw date.
type TrendReport struct {
	Window int            `json:"window"`
	Dates  []time.Time    `json:"dates"`
	Series []*TrendSeries `json:"series"`
}

// RollingTrends computes, for each of the overall top-N white balls, the
// rolling sum of its occurrences across the trailing window of draws.
// Records must be ordered by ascending date.
func RollingTrends(records []model.DrawRecord, topN, window int) (*TrendReport, error) {
	if len(records) == 0 {
		return nil, model.ErrEmptyDataset
	}
	if topN < 1 || window < 1 {
		return nil, fmt.Errorf("topN and window must be positive, got %d and %d", topN, window)
	}

	whites, _ := Frequencies(records)
	top := TopN(whites, topN)

	report := &TrendReport{Window: window}
	for _, rec := range records {
		report.Dates = append(report.Dates, rec.Date)
	}

	for _, number := range top {
		// Per-draw indicator: 1 when the ball appeared in that draw.
		hits := make([]float64, len(records))
		for i, rec := range records {
			for _, w := range rec.Whites {
				if w == number {
					hits[i] = 1
					break
				}
			}
		}

		series := &TrendSeries{Number: number, Counts: make([]float64, len(records))}
		var sum float64
		for i := range hits {
			sum += hits[i]
			if i >= window {
				sum -= hits[i-window]
			}
			series.Counts[i] = sum
		}
		report.Series = append(report.Series, series)
	}

	return report, nil
}
