// Package charts renders interactive HTML charts of draw statistics.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string   // Chart title
	Subtitle   string   // Chart subtitle
	Width      string   // Chart width (e.g., "900px")
	Height     string   // Chart height (e.g., "500px")
	Theme      string   // Chart theme
	ShowLegend bool     // Show legend
	Smooth     bool     // Smooth line (for line charts)
	Colors     []string // Custom colors
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		Smooth:     true,
		Colors:     []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// DataPoint represents a single data point in a chart.
type DataPoint struct {
	Label string
	Value float64
}

// SeriesData represents a data series for multi-series charts.
type SeriesData struct {
	Name   string
	Points []DataPoint
}

// RenderBarChart writes an interactive bar chart as HTML.
func RenderBarChart(w io.Writer, seriesName string, data []DataPoint, config ChartConfig) error {
	bar := charts.NewBar()

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
		charts.WithColorsOpts(opts.Colors{
			config.Colors[0],
		}),
	)

	xLabels := make([]string, len(data))
	yData := make([]opts.BarData, len(data))
	for i, point := range data {
		xLabels[i] = point.Label
		yData[i] = opts.BarData{Value: point.Value}
	}

	bar.SetXAxis(xLabels).
		AddSeries(seriesName, yData).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

// RenderMultiLineChart writes a multi-series line chart as HTML. All series
// share the X-axis labels of the first series.
func RenderMultiLineChart(w io.Writer, series []SeriesData, config ChartConfig) error {
	if len(series) == 0 {
		return fmt.Errorf("no data series provided")
	}

	line := charts.NewLine()

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
	)

	xLabels := make([]string, len(series[0].Points))
	for i, point := range series[0].Points {
		xLabels[i] = point.Label
	}
	line.SetXAxis(xLabels)

	for i, s := range series {
		yData := make([]opts.LineData, len(s.Points))
		for j, point := range s.Points {
			yData[j] = opts.LineData{Value: point.Value}
		}

		color := config.Colors[i%len(config.Colors)]
		line.AddSeries(s.Name, yData).
			SetSeriesOptions(
				charts.WithLineChartOpts(opts.LineChart{
					Smooth: opts.Bool(config.Smooth),
				}),
				charts.WithLabelOpts(opts.Label{
					Show: opts.Bool(false),
				}),
				charts.WithItemStyleOpts(opts.ItemStyle{
					Color: color,
				}),
			)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render line chart: %w", err)
	}
	return nil
}

// RenderToFile renders a chart into an HTML file using the given render
// function.
func RenderToFile(outputPath string, render func(io.Writer) error) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()
	return render(f)
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("resolve chart path: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
