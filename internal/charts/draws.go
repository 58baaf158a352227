package charts

import (
	"fmt"
	"io"

	"github.com/rdelaney/powerplay/internal/analysis"
	"github.com/rdelaney/powerplay/internal/model"
)

// FrequencyChart renders a bar chart of white ball frequencies across the
// full 1-69 range. The subtitle carries the expected per-ball count under a
// uniform distribution for visual comparison.
func FrequencyChart(w io.Writer, records []model.DrawRecord) error {
	if len(records) == 0 {
		return model.ErrEmptyDataset
	}

	whites, _ := analysis.Frequencies(records)

	expected := float64(len(records)*model.WhiteCount) / float64(model.MaxWhite)

	data := make([]DataPoint, 0, model.MaxWhite)
	for n := 1; n <= model.MaxWhite; n++ {
		data = append(data, DataPoint{
			Label: fmt.Sprintf("%d", n),
			Value: whites[n],
		})
	}

	config := DefaultChartConfig()
	config.Title = "White Ball Frequency"
	config.Subtitle = fmt.Sprintf("%d draws, expected %.1f per ball if uniform", len(records), expected)
	config.ShowLegend = false

	return RenderBarChart(w, "Occurrences", data, config)
}

// RedFrequencyChart renders a bar chart of red ball frequencies across the
// 1-26 range.
func RedFrequencyChart(w io.Writer, records []model.DrawRecord) error {
	if len(records) == 0 {
		return model.ErrEmptyDataset
	}

	_, reds := analysis.Frequencies(records)

	data := make([]DataPoint, 0, model.MaxRed)
	for n := 1; n <= model.MaxRed; n++ {
		data = append(data, DataPoint{
			Label: fmt.Sprintf("%d", n),
			Value: reds[n],
		})
	}

	config := DefaultChartConfig()
	config.Title = "Red Ball Frequency"
	config.Subtitle = fmt.Sprintf("%d draws", len(records))
	config.ShowLegend = false
	config.Colors = []string{"#EE6666"}

	return RenderBarChart(w, "Occurrences", data, config)
}

// TrendChart renders rolling occurrence trends for the overall hottest
// white balls, one line per ball.
func TrendChart(w io.Writer, report *analysis.TrendReport) error {
	if report == nil || len(report.Series) == 0 {
		return model.ErrEmptyDataset
	}

	labels := make([]string, len(report.Dates))
	for i, d := range report.Dates {
		labels[i] = d.Format("2006-01-02")
	}

	series := make([]SeriesData, 0, len(report.Series))
	for _, s := range report.Series {
		points := make([]DataPoint, len(s.Counts))
		for i, c := range s.Counts {
			points[i] = DataPoint{Label: labels[i], Value: c}
		}
		series = append(series, SeriesData{
			Name:   fmt.Sprintf("Ball %d", s.Number),
			Points: points,
		})
	}

	config := DefaultChartConfig()
	config.Title = "Rolling Frequency Trends"
	config.Subtitle = fmt.Sprintf("occurrences per trailing %d draws", report.Window)

	return RenderMultiLineChart(w, series, config)
}
