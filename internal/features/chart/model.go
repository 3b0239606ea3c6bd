package chart

import "sort"

type ChartType string

const (
	ChartTypeBar        ChartType = "bar"
	ChartTypeLine       ChartType = "line"
	ChartTypePie        ChartType = "pie"
	ChartTypeDonut      ChartType = "donut"
	ChartTypeArea       ChartType = "area"
	ChartTypeStackedBar ChartType = "stacked_bar"
)

var chartTypes = map[ChartType]bool{
	ChartTypeBar:        true,
	ChartTypeLine:       true,
	ChartTypePie:        true,
	ChartTypeDonut:      true,
	ChartTypeArea:       true,
	ChartTypeStackedBar: true,
}

type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Chart is a pre-aggregated series set. Nothing here recomputes values.
type Chart struct {
	Key    string    `json:"key"`
	Title  string    `json:"title"`
	Type   ChartType `json:"type"`
	Series []Series  `json:"series"`
}

// Normalized falls back to a bar chart for types the widgets cannot draw.
func (c Chart) Normalized() Chart {
	if !chartTypes[c.Type] {
		c.Type = ChartTypeBar
	}
	if c.Title == "" {
		c.Title = c.Key
	}
	if c.Series == nil {
		c.Series = []Series{}
	}
	return c
}

// Labels returns the union of point labels across series, in first-seen order.
func (c Chart) Labels() []string {
	seen := map[string]bool{}
	var labels []string
	for _, s := range c.Series {
		for _, p := range s.Points {
			if !seen[p.Label] {
				seen[p.Label] = true
				labels = append(labels, p.Label)
			}
		}
	}
	return labels
}

type Card struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value any    `json:"value"`
}

var cardLabels = map[string]string{
	"totalMachines":    "Total Machines",
	"activeMachines":   "Active Machines",
	"faultyMachines":   "Faulty Machines",
	"lowStockMachines": "Low Stock Machines",
	"totalSchools":     "Schools Covered",
	"totalDispensed":   "Pads Dispensed",
	"totalRefilled":    "Pads Refilled",
}

var cardOrder = []string{"totalMachines", "activeMachines", "faultyMachines", "lowStockMachines", "totalSchools", "totalDispensed", "totalRefilled"}

// Cards orders the stat cards: known cards first in their fixed order, the rest by key.
func Cards(values map[string]any) []Card {
	cards := make([]Card, 0, len(values))
	for _, key := range cardOrder {
		if v, ok := values[key]; ok {
			cards = append(cards, Card{Key: key, Label: cardLabels[key], Value: v})
		}
	}
	var extra []string
	for key := range values {
		if _, known := cardLabels[key]; !known {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		cards = append(cards, Card{Key: key, Label: key, Value: values[key]})
	}
	return cards
}
