package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChartNormalized(t *testing.T) {
	c := Chart{Key: "dispenseTrend", Type: "sunburst"}.Normalized()
	assert.Equal(t, ChartTypeBar, c.Type)
	assert.Equal(t, "dispenseTrend", c.Title)
	assert.NotNil(t, c.Series)

	line := Chart{Key: "k", Title: "Trend", Type: ChartTypeLine}.Normalized()
	assert.Equal(t, ChartTypeLine, line.Type)
}

func TestChartLabels(t *testing.T) {
	c := Chart{Series: []Series{
		{Name: "coin", Points: []Point{{"Jan", 1}, {"Feb", 2}}},
		{Name: "card", Points: []Point{{"Feb", 3}, {"Mar", 4}}},
	}}
	assert.Equal(t, []string{"Jan", "Feb", "Mar"}, c.Labels())
}

func TestCards(t *testing.T) {
	cards := Cards(map[string]any{
		"zeta":           1.0,
		"totalDispensed": 1200.0,
		"totalMachines":  40.0,
		"alpha":          2.0,
	})
	keys := make([]string, len(cards))
	for i, c := range cards {
		keys[i] = c.Key
	}
	assert.Equal(t, []string{"totalMachines", "totalDispensed", "alpha", "zeta"}, keys)
	assert.Equal(t, "Pads Dispensed", cards[1].Label)
}
