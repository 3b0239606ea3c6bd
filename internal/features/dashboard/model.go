package dashboard

import "padtracker-console/internal/features/chart"

// Stats is the pre-aggregated payload of the stats endpoint.
type Stats struct {
	Cards  map[string]any `json:"cards"`
	Charts []chart.Chart  `json:"charts"`
}

type WidgetPosition struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Widget struct {
	Chart    chart.Chart    `json:"chart"`
	Position WidgetPosition `json:"position"`
}

// Screen is the dashboard view model.
type Screen struct {
	Cards   []chart.Card `json:"cards"`
	Widgets []Widget     `json:"widgets"`
}

const (
	gridColumns  = 12
	widgetWidth  = 6
	widgetHeight = 4
)

// Layout places widgets two per row in a 12-column grid. Pie and donut charts take half a
// row, everything else a full row when it is the last of an odd count.
func Layout(charts []chart.Chart) []Widget {
	widgets := make([]Widget, 0, len(charts))
	x, y := 0, 0
	for i, c := range charts {
		c = c.Normalized()
		width := widgetWidth
		last := i == len(charts)-1
		if last && x == 0 && c.Type != chart.ChartTypePie && c.Type != chart.ChartTypeDonut {
			width = gridColumns
		}
		widgets = append(widgets, Widget{Chart: c, Position: WidgetPosition{X: x, Y: y, Width: width, Height: widgetHeight}})
		x += width
		if x >= gridColumns {
			x = 0
			y += widgetHeight
		}
	}
	return widgets
}
