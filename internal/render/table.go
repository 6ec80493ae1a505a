package render

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/rzzdr/option-scenario-engine/internal/scenario"
	"github.com/rzzdr/option-scenario-engine/internal/volatility"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
)

// TableRenderer draws surfaces and term structures as text tables
type TableRenderer struct{}

// NewTableRenderer creates a new TableRenderer
func NewTableRenderer() *TableRenderer {
	return &TableRenderer{}
}

// RenderSurface prints the grid with the highest vol row on top, like a heatmap
func (r *TableRenderer) RenderSurface(w io.Writer, surface scenario.Surface) error {
	if _, err := fmt.Fprintf(w, "%s\n", surface.Title); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	header := make([]string, 0, models.GridSize+1)
	header = append(header, surface.YLabel+" \\ "+surface.XLabel)
	header = append(header, surface.SpotLabels[:]...)
	table.SetHeader(header)

	for i := models.GridSize - 1; i >= 0; i-- {
		row := make([]string, 0, models.GridSize+1)
		row = append(row, surface.VolLabels[i])
		for _, v := range surface.Grid[i] {
			row = append(row, money(v))
		}
		table.Append(row)
	}
	table.Render()

	s := surface.Summary
	_, err := fmt.Fprintf(w, "min %s  max %s  mean %s  centre %s  palette %s\n",
		money(s.Min), money(s.Max), money(s.Mean), money(s.Center), s.Palette)
	return err
}

// RenderTermStructure prints spot and forward vols side by side, one row per day
func (r *TableRenderer) RenderTermStructure(w io.Writer, ts volatility.TermStructure) error {
	if _, err := fmt.Fprintf(w, "%s\n", ts.Title); err != nil {
		return err
	}

	spot := make(map[int]float64, len(ts.Spot))
	forward := make(map[int]float64, len(ts.Forward))
	seen := make(map[int]struct{})
	var days []int
	add := func(day int) {
		if _, ok := seen[day]; !ok {
			seen[day] = struct{}{}
			days = append(days, day)
		}
	}
	for _, p := range ts.Spot {
		spot[p.Day] = p.ImpliedVol
		add(p.Day)
	}
	for _, p := range ts.Forward {
		forward[p.Day] = p.ImpliedVol
		add(p.Day)
	}
	sort.Ints(days)

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader([]string{"Days", "Spot IV", "Forward IV"})

	for _, d := range days {
		row := []string{fmt.Sprint(d), "", ""}
		if v, ok := spot[d]; ok {
			row[1] = percent(v)
		}
		if v, ok := forward[d]; ok {
			row[2] = percent(v)
		}
		table.Append(row)
	}
	table.Render()
	return nil
}

func money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).Shift(2).StringFixed(1) + "%"
}

// RenderPrice prints one labelled price rounded to cents
func (r *TableRenderer) RenderPrice(w io.Writer, label string, price float64) error {
	_, err := fmt.Fprintf(w, "%s: %s\n", label, money(price))
	return err
}

// RenderGreeks prints the Greeks as a two column table
func (r *TableRenderer) RenderGreeks(w io.Writer, title string, g models.Greeks) error {
	if _, err := fmt.Fprintf(w, "%s\n", title); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader([]string{"Greek", "Value"})
	for _, row := range []struct {
		name  string
		value float64
	}{
		{"Delta", g.Delta},
		{"Gamma", g.Gamma},
		{"Vega", g.Vega},
		{"Theta", g.Theta},
		{"Rho", g.Rho},
		{"Vanna", g.Vanna},
		{"Charm", g.Charm},
		{"Volga", g.Volga},
	} {
		table.Append([]string{row.name, greek(row.value)})
	}
	table.Render()
	return nil
}

func greek(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(6)
}
