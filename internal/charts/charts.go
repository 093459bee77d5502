package charts

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"projects-dashboard/internal/models"
)

const (
	chartHeight   = 360
	minChartWidth = 560
	barWidth      = 48
	barSpacing    = 24
)

var ErrUnknownChart = errors.New("unknown chart")

type Spec struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	XLabel string `json:"x_label"`
	YLabel string `json:"y_label"`
}

type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

const (
	Cashflow          = "cashflow"
	ActivityByManager = "activity-by-manager"
	ActivityByMarket  = "activity-by-market"
	SalesByManager    = "sales-by-manager"
	RevenueForecast   = "revenue-forecast"
	ComplianceByType  = "compliance-by-type"
	MarketTurnover    = "market-turnover"
)

var specs = []Spec{
	{Cashflow, "Projected Monthly Cashflow", "Month", "Projected Revenue ($)"},
	{ActivityByManager, "Activities by Manager", "PM", "Activities"},
	{ActivityByMarket, "Activities by Market", "Market", "Activities"},
	{SalesByManager, "Sales Revenue by Manager", "PM", "Revenue ($)"},
	{RevenueForecast, "Revenue Forecast", "Month", "Forecast Revenue ($)"},
	{ComplianceByType, "Compliance Tasks by Type", "Task Type", "Tasks"},
	{MarketTurnover, "Average Market Turnover", "Market", "Days"},
}

func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

func Lookup(name string) (Spec, error) {
	for _, s := range specs {
		if s.Name == name {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w: %q", ErrUnknownChart, name)
}

func FromMonthly(data []models.MonthlyData) []Bar {
	bars := make([]Bar, 0, len(data))
	for _, d := range data {
		bars = append(bars, Bar{Label: d.Month, Value: d.Value})
	}
	return bars
}

func FromCounts(data []models.CategoryCount) []Bar {
	bars := make([]Bar, 0, len(data))
	for _, d := range data {
		bars = append(bars, Bar{Label: d.Category, Value: float64(d.Count)})
	}
	return bars
}

func FromValues(data []models.CategoryValue) []Bar {
	bars := make([]Bar, 0, len(data))
	for _, d := range data {
		bars = append(bars, Bar{Label: d.Category, Value: d.Value})
	}
	return bars
}

// RenderSVG writes a bar chart. An empty series renders a placeholder.
func RenderSVG(w io.Writer, spec Spec, bars []Bar) error {
	if len(bars) == 0 {
		return renderEmpty(w, spec)
	}

	top := 0.0
	values := make([]chart.Value, 0, len(bars))
	for _, b := range bars {
		if math.IsNaN(b.Value) || math.IsInf(b.Value, 0) {
			return fmt.Errorf("render %s: invalid value for %q", spec.Name, b.Label)
		}
		top = math.Max(top, b.Value)
		values = append(values, chart.Value{
			Label: b.Label,
			Value: b.Value,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("4f6bed"),
				StrokeColor: drawing.ColorFromHex("3b52c4"),
				StrokeWidth: 1,
			},
		})
	}
	if top <= 0 {
		top = 1
	}

	graph := chart.BarChart{
		Title:      spec.Title,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 36}},
		Width:      max(minChartWidth, len(bars)*(barWidth+barSpacing)+160),
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		XAxis:      chart.Style{FontSize: 9},
		YAxis: chart.YAxis{
			Name:           spec.YLabel,
			Range:          &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: axisFormatter,
		},
		Bars:     values,
		Elements: []chart.Renderable{xAxisName(spec.XLabel)},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return fmt.Errorf("render %s: %w", spec.Name, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// xAxisName draws the x label centred under the tick labels. BarChart has no
// XAxis name of its own.
func xAxisName(label string) chart.Renderable {
	return func(r chart.Renderer, canvas chart.Box, defaults chart.Style) {
		if label == "" {
			return
		}
		chart.Style{FontSize: 10, FontColor: drawing.ColorFromHex("555555")}.
			InheritFrom(defaults).
			GetTextOptions().
			WriteToRenderer(r)
		tb := r.MeasureText(label)
		r.Text(label, canvas.Left+(canvas.Width()-tb.Width())/2, chartHeight-12)
	}
}

func axisFormatter(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	switch {
	case f >= 1_000_000:
		return fmt.Sprintf("%.1fM", f/1_000_000)
	case f >= 10_000:
		return fmt.Sprintf("%.0fk", f/1_000)
	default:
		return fmt.Sprintf("%.0f", f)
	}
}

func renderEmpty(w io.Writer, spec Spec) error {
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><text x="50%%" y="40" text-anchor="middle" font-size="16">%s</text><text x="50%%" y="50%%" text-anchor="middle" fill="#888">No data</text><text x="50%%" y="%d" text-anchor="middle" font-size="10" fill="#555">%s</text></svg>`,
		minChartWidth, chartHeight, html.EscapeString(spec.Title), chartHeight-12, html.EscapeString(spec.XLabel))
	return err
}
