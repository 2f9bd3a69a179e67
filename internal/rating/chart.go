package rating

import (
	"bytes"
	"time"

	"github.com/jason-s-yu/volei/internal/models"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	lineColor       = drawing.ColorFromHex("1e6fd9")
	dotColor        = drawing.ColorFromHex("f2a900")
	backgroundColor = drawing.ColorWhite
)

// HistoryChart renders a player's rating history as a PNG line chart. An empty
// history renders a small placeholder image instead.
func HistoryChart(history []models.RatingChange) ([]byte, error) {
	if len(history) == 0 {
		return placeholder("No rating history")
	}

	// the first point is the rating before the first change
	xs := make([]time.Time, 0, len(history)+1)
	ys := make([]float64, 0, len(history)+1)
	xs = append(xs, history[0].ChangedAt.Add(-time.Hour))
	ys = append(ys, history[0].OldRating)
	for _, h := range history {
		xs = append(xs, h.ChangedAt)
		ys = append(ys, h.NewRating)
	}

	graph := chart.Chart{
		Width:      800,
		Height:     400,
		Background: chart.Style{FillColor: backgroundColor},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
		},
		YAxis: chart.YAxis{
			Name:  "Rating",
			Range: &chart.ContinuousRange{Min: MinAttribute, Max: MaxAttribute},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Rating",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
					DotWidth:    4,
					DotColor:    dotColor,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func placeholder(msg string) ([]byte, error) {
	graph := chart.Chart{
		Title:      msg,
		Width:      400,
		Height:     200,
		Background: chart.Style{FillColor: backgroundColor},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: MinAttribute, Max: MaxAttribute},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{0, 1},
				YValues: []float64{0, 0},
				Style:   chart.Style{StrokeColor: lineColor},
			},
		},
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
