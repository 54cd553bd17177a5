package core

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
)

type ChartOptions struct {
	Title  string
	Width  int
	Height int
	// Format is "png" (default) or "svg".
	Format string
}

func (o ChartOptions) withDefaults() ChartOptions {
	if o.Title == "" {
		o.Title = "Traffic Count Over Time"
	}
	if o.Width <= 0 {
		o.Width = 1000
	}
	if o.Height <= 0 {
		o.Height = 500
	}
	if o.Format == "" {
		o.Format = "png"
	}
	return o
}

// RenderChart plots count against timestamp in the order given.
func RenderChart(w io.Writer, records []Record, opts ChartOptions) error {
	opts = opts.withDefaults()

	var renderer chart.RendererProvider
	switch strings.ToLower(opts.Format) {
	case "png":
		renderer = chart.PNG
	case "svg":
		renderer = chart.SVG
	default:
		return fmt.Errorf("%w: chart format %q", ErrInvalidInput, opts.Format)
	}

	xs := make([]time.Time, len(records))
	ys := make([]float64, len(records))
	var maxY float64
	distinct := map[int64]bool{}
	for i, r := range records {
		xs[i] = r.Timestamp
		ys[i] = float64(r.Count)
		if ys[i] > maxY {
			maxY = ys[i]
		}
		distinct[r.Timestamp.Unix()] = true
	}
	if len(distinct) < 2 {
		return ErrNotEnoughPoints
	}
	if maxY == 0 {
		maxY = 1
	}

	grid := chart.Style{StrokeColor: chart.ColorAlternateGray, StrokeWidth: 1.0}
	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Timestamp",
			ValueFormatter: chart.TimeValueFormatterWithFormat("01-02 15:04"),
			GridMajorStyle: grid,
		},
		YAxis: chart.YAxis{
			Name:           "Traffic Count",
			Range:          &chart.ContinuousRange{Min: 0, Max: maxY * 1.1},
			GridMajorStyle: grid,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: "Traffic",
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 2,
					DotColor:    chart.ColorBlue,
					DotWidth:    3,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	if err := graph.Render(renderer, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// WritePlotData writes "YYYY-MM-DD HH:MM:SS count" lines, the input format
// gnuplot reads with timefmt '%Y-%m-%d %H:%M:%S'.
func WritePlotData(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := fmt.Fprintf(bw, "%s %d\n", DisplayTimestamp(r.Timestamp), r.Count); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
