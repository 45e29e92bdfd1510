package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
)

// Generator renders summary charts for the analytics view
type Generator struct{}

// NewGenerator creates a new chart generator
func NewGenerator() *Generator {
	return &Generator{}
}

// RenderSummary renders revenue, expenses and profit as a PNG bar chart.
// Returns nil when there is no data to plot.
func (g *Generator) RenderSummary(revenue, expenses, profit float64) ([]byte, error) {
	if revenue == 0 && expenses == 0 {
		return nil, nil
	}

	graph := chart.BarChart{
		Title:    "Revenue vs Expenses",
		Width:    800,
		Height:   400,
		BarWidth: 120,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("RM %.2f", v.(float64))
			},
		},
		Bars: []chart.Value{
			{Label: "Revenue", Value: revenue, Style: chart.Style{FillColor: chart.ColorGreen, StrokeColor: chart.ColorGreen}},
			{Label: "Expenses", Value: expenses, Style: chart.Style{FillColor: chart.ColorRed, StrokeColor: chart.ColorRed}},
			{Label: "Profit", Value: profit, Style: chart.Style{FillColor: chart.ColorBlue, StrokeColor: chart.ColorBlue}},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering chart: %w", err)
	}
	return buf.Bytes(), nil
}
