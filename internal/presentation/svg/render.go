// Package svg lays out a finalized timeline graph and renders it as an SVG
// document: one horizontal lane per entity, a millisecond axis on top and a
// legend below.
package svg

import (
	"io"
	"strconv"

	"github.com/penwyp/go-wesgr/internal/core/model"
	"github.com/penwyp/go-wesgr/internal/errs"
	"github.com/penwyp/go-wesgr/internal/util"
)

// Renderer turns a graph into SVG using a fixed Style
type Renderer struct {
	style Style
}

// NewRenderer validates style and returns a renderer using it
func NewRenderer(style Style) (*Renderer, error) {
	if err := style.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{style: style}, nil
}

// Style returns the style in use
func (r *Renderer) Style() Style {
	return r.style
}

// Render writes the SVG document for g clipped to window. The document is
// built completely in memory and written to out with a single call, so a
// failure never leaves a partial document behind in out.
func (r *Renderer) Render(g *model.Graph, window model.TimeWindow, out io.Writer) error {
	data, err := r.Build(g, window)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return errs.Sink("write svg", err)
	}
	return nil
}

// Render renders g with the default style
func Render(g *model.Graph, window model.TimeWindow, out io.Writer) error {
	r := &Renderer{style: DefaultStyle()}
	return r.Render(g, window, out)
}

// frame holds the resolved geometry of one document
type frame struct {
	style      Style
	scale      timeScale
	plotLeft   float64
	plotRight  float64
	lanesTop   float64
	lanesBot   float64
	legendTop  float64
	width      float64
	height     float64
	colors     map[model.LabelKey]string
	legend     []legendEntry
	legendRows int
}

// Build returns the SVG document for g clipped to window. g is only read.
func (r *Renderer) Build(g *model.Graph, window model.TimeWindow) ([]byte, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if g == nil {
		g = model.NewGraph()
	}

	st := r.style
	from, to := window.Resolve(g)

	f := &frame{
		style:     st,
		plotLeft:  float64(st.MarginLeft),
		plotRight: float64(st.MarginLeft + st.plotWidth()),
		width:     float64(st.Width),
	}
	f.scale = newTimeScale(from, to, f.plotLeft, float64(st.plotWidth()))

	views := g.EntitiesInDisplayOrder()
	lanes := make([]laneLayout, len(views))
	for i, v := range views {
		lanes[i] = layoutLane(i, v, f.scale)
	}

	labels := g.Labels()
	f.colors = make(map[model.LabelKey]string, len(labels))
	for i, l := range labels {
		f.colors[l] = st.Palette[i%len(st.Palette)]
	}
	f.legend, f.legendRows = layoutLegend(labels, f)

	f.lanesTop = float64(st.MarginTop + st.AxisHeight)
	f.lanesBot = f.lanesTop + float64(len(lanes)*st.LaneHeight)
	f.legendTop = f.lanesBot
	if f.legendRows > 0 {
		f.legendTop += float64(st.LegendGap)
	}
	f.height = f.legendTop + float64(f.legendRows*st.LegendRowHeight+st.MarginBottom)

	util.LogDebugf("Render window [%d, %d] with %d lanes, %d legend entries, %gx%g px",
		from, to, len(lanes), len(f.legend), f.width, f.height)

	d := &document{}
	d.raw(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	d.open("svg",
		kv("xmlns", "http://www.w3.org/2000/svg"),
		kvf("width", f.width),
		kvf("height", f.height),
		kv("viewBox", "0 0 "+num(f.width)+" "+num(f.height)),
		kv("font-family", st.Font.Family),
		kv("font-size", strconv.Itoa(st.Font.Size)),
	)
	d.empty("rect", kv("class", "background"), kv("x", "0"), kv("y", "0"),
		kvf("width", f.width), kvf("height", f.height), kv("fill", st.Colors.Background))

	f.drawAxis(d, len(lanes) > 0)
	d.open("g", kv("class", "lanes"))
	for _, lane := range lanes {
		f.drawLane(d, lane)
	}
	d.close("g")
	f.drawLegend(d)
	d.close("svg")

	return d.Bytes(), nil
}

func (f *frame) drawAxis(d *document, grid bool) {
	st := f.style
	small := st.smallFont()
	y := f.lanesTop

	d.open("g", kv("class", "axis"))
	d.empty("line", kv("class", "axis-line"),
		kvf("x1", f.plotLeft), kvf("y1", y), kvf("x2", f.plotRight), kvf("y2", y),
		kv("stroke", st.Colors.Axis))
	d.text("text", "ms", kv("class", "axis-title"),
		kvf("x", f.plotLeft-6), kvf("y", y-8), kv("text-anchor", "end"),
		kvf("font-size", small), kv("fill", st.Colors.Text))

	for _, t := range ticks(f.scale.from, f.scale.to, st.MaxTicks) {
		x := f.scale.X(t)
		if grid {
			d.empty("line", kv("class", "grid"),
				kvf("x1", x), kvf("y1", y), kvf("x2", x), kvf("y2", f.lanesBot),
				kv("stroke", st.Colors.Grid))
		}
		d.empty("line", kv("class", "tick"),
			kvf("x1", x), kvf("y1", y-5), kvf("x2", x), kvf("y2", y),
			kv("stroke", st.Colors.Axis))
		d.text("text", strconv.FormatInt(t, 10), kv("class", "tick-label"),
			kvf("x", x), kvf("y", y-8), kv("text-anchor", "middle"),
			kvf("font-size", small), kv("fill", st.Colors.Text))
	}
	d.close("g")
}

func (f *frame) drawLane(d *document, lane laneLayout) {
	st := f.style
	small := st.smallFont()
	top := f.lanesTop + float64(lane.index*st.LaneHeight)
	height := float64(st.LaneHeight)
	pad := float64(st.LanePadding)
	mid := top + height/2

	fill := st.Colors.LaneEven
	if lane.index%2 == 1 {
		fill = st.Colors.LaneOdd
	}

	d.open("g", kv("class", "lane"), kv("data-entity", string(lane.view.Key)))
	d.empty("rect", kv("class", "lane-background"),
		kvf("x", f.plotLeft), kvf("y", top), kvf("width", f.plotRight-f.plotLeft), kvf("height", height),
		kv("fill", fill))

	name := util.TruncateToWidth(lane.view.DisplayName(), float64(st.Font.Size), f.plotLeft-12)
	if name != "" {
		d.text("text", name, kv("class", "entity-label"),
			kvf("x", f.plotLeft-6), kvf("y", mid+float64(st.Font.Size)*0.35),
			kv("text-anchor", "end"), kv("fill", st.Colors.Text))
	}

	inner := height - 2*pad
	subHeight := inner / float64(lane.depth)
	for _, iv := range lane.intervals {
		x1 := f.scale.X(iv.begin)
		x2 := f.scale.X(iv.end)
		w := x2 - x1
		if w < 1 {
			w = 1
		}
		y := top + pad + float64(iv.sub)*subHeight

		class := "interval"
		if iv.event.Open {
			class += " open"
		}
		if iv.clipped {
			class += " clipped"
		}
		attrs := []attr{
			kv("class", class),
			kvf("x", x1), kvf("y", y), kvf("width", w), kvf("height", subHeight),
			kv("fill", f.colors[model.LabelKey{Kind: model.EventInterval, Label: iv.event.Label}]),
		}
		if iv.event.Open {
			attrs = append(attrs, kv("stroke", st.Colors.Outline), kv("stroke-dasharray", "4 2"))
		}
		attrs = append(attrs,
			kv("data-label", iv.event.Label),
			kv("data-begin", strconv.FormatInt(iv.event.Begin, 10)),
			kv("data-end", strconv.FormatInt(iv.event.End, 10)),
		)
		d.empty("rect", attrs...)

		if subHeight >= small+2 && util.EstimateTextWidth(iv.event.Label, small)+4 <= w {
			d.text("text", iv.event.Label, kv("class", "interval-label"),
				kvf("x", x1+2), kvf("y", y+subHeight/2+small*0.35),
				kvf("font-size", small), kv("fill", st.Colors.Text))
		}
	}

	for _, ev := range lane.points {
		x := f.scale.X(ev.At())
		switch ev.Kind {
		case model.EventInstant:
			f.drawInstant(d, ev, x, mid)
		case model.EventAnnotation:
			f.drawAnnotation(d, ev, x, top+pad, top+height-pad)
		}
	}
	d.close("g")
}

func (f *frame) drawInstant(d *document, ev model.Event, x, y float64) {
	st := f.style
	s := float64(st.MarkerSize)
	d.empty("polygon", kv("class", "instant"),
		kv("points", diamond(x, y, s)),
		kv("fill", f.colors[model.LabelKey{Kind: model.EventInstant, Label: ev.Label}]),
		kv("stroke", st.Colors.Outline),
		kv("data-label", ev.Label),
		kv("data-at", strconv.FormatInt(ev.At(), 10)),
	)
}

func (f *frame) drawAnnotation(d *document, ev model.Event, x, top, bottom float64) {
	st := f.style
	small := st.smallFont()
	d.empty("line", kv("class", "annotation-mark"),
		kvf("x1", x), kvf("y1", top), kvf("x2", x), kvf("y2", bottom),
		kv("stroke", st.Colors.Annotation), kv("data-at", strconv.FormatInt(ev.At(), 10)))

	// Text runs right of the mark unless there is more room on the left
	anchor, tx, room := "start", x+3, f.plotRight-x-3
	if left := x - 3 - f.plotLeft; left > room {
		anchor, tx, room = "end", x-3, left
	}
	text := util.TruncateToWidth(ev.Label, small, room)
	if text == "" {
		return
	}
	d.text("text", text, kv("class", "annotation"),
		kvf("x", tx), kvf("y", top+small), kv("text-anchor", anchor),
		kvf("font-size", small), kv("font-style", "italic"), kv("fill", st.Colors.Annotation))
}

func diamond(x, y, s float64) string {
	return num(x) + "," + num(y-s) + " " +
		num(x+s) + "," + num(y) + " " +
		num(x) + "," + num(y+s) + " " +
		num(x-s) + "," + num(y)
}
