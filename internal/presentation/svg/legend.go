package svg

import (
	"github.com/penwyp/go-wesgr/internal/core/model"
	"github.com/penwyp/go-wesgr/internal/util"
)

const (
	legendSwatch  = 12
	legendSpacing = 16
)

type legendEntry struct {
	key  model.LabelKey
	text string
	x    float64 // left edge relative to the plot
	row  int
}

func legendText(key model.LabelKey) string {
	if key.Kind == model.EventAnnotation {
		return "annotation"
	}
	return key.Label
}

// layoutLegend flows the entries left to right across the plot width,
// wrapping onto a new row when an entry would cross the right edge
func layoutLegend(labels []model.LabelKey, f *frame) ([]legendEntry, int) {
	if len(labels) == 0 {
		return nil, 0
	}
	font := float64(f.style.Font.Size)
	avail := f.plotRight - f.plotLeft

	entries := make([]legendEntry, 0, len(labels))
	x, row := 0.0, 0
	for _, key := range labels {
		text := util.TruncateToWidth(legendText(key), font, avail-legendSwatch-4)
		w := legendSwatch + 4 + util.EstimateTextWidth(text, font)
		if x > 0 && x+w > avail {
			x = 0
			row++
		}
		entries = append(entries, legendEntry{key: key, text: text, x: x, row: row})
		x += w + legendSpacing
	}
	return entries, row + 1
}

func (f *frame) drawLegend(d *document) {
	if len(f.legend) == 0 {
		return
	}
	st := f.style
	rowHeight := float64(st.LegendRowHeight)

	d.open("g", kv("class", "legend"))
	d.text("text", "legend", kv("class", "legend-title"),
		kvf("x", f.plotLeft-6), kvf("y", f.legendTop+rowHeight/2+float64(st.Font.Size)*0.35),
		kv("text-anchor", "end"), kv("fill", st.Colors.Text))

	for _, e := range f.legend {
		x := f.plotLeft + e.x
		mid := f.legendTop + float64(e.row)*rowHeight + rowHeight/2
		d.open("g", kv("class", "legend-entry"), kv("data-kind", e.key.Kind.String()))

		switch e.key.Kind {
		case model.EventInterval:
			d.empty("rect", kv("class", "swatch"),
				kvf("x", x), kvf("y", mid-legendSwatch/2), kvf("width", legendSwatch), kvf("height", legendSwatch),
				kv("fill", f.colors[e.key]))
		case model.EventInstant:
			d.empty("polygon", kv("class", "swatch"),
				kv("points", diamond(x+legendSwatch/2, mid, legendSwatch/2)),
				kv("fill", f.colors[e.key]), kv("stroke", st.Colors.Outline))
		case model.EventAnnotation:
			d.empty("line", kv("class", "swatch"),
				kvf("x1", x+legendSwatch/2), kvf("y1", mid-legendSwatch/2),
				kvf("x2", x+legendSwatch/2), kvf("y2", mid+legendSwatch/2),
				kv("stroke", st.Colors.Annotation))
		}

		fill := st.Colors.Text
		style := ""
		if e.key.Kind == model.EventAnnotation {
			fill = st.Colors.Annotation
			style = "italic"
		}
		attrs := []attr{
			kv("class", "legend-label"),
			kvf("x", x+legendSwatch+4), kvf("y", mid+float64(st.Font.Size)*0.35),
			kv("fill", fill),
		}
		if style != "" {
			attrs = append(attrs, kv("font-style", style))
		}
		d.text("text", e.text, attrs...)
		d.close("g")
	}
	d.close("g")
}
