package svg

import (
	"sort"

	"github.com/penwyp/go-wesgr/internal/core/model"
)

// placedInterval is an interval clipped to the window with its sub-lane
type placedInterval struct {
	event   model.Event
	begin   int64 // clipped
	end     int64 // clipped
	clipped bool
	sub     int
	order   int // arrival index within the entity
}

// laneLayout is the visible content of one entity lane
type laneLayout struct {
	view      model.EntityView
	index     int
	intervals []placedInterval
	points    []model.Event // instants and annotations inside the window
	depth     int           // number of sub-lanes, at least 1
}

// layoutLane clips the events of one entity to the window and stacks
// overlapping intervals into sub-lanes. Intervals are placed first-fit in
// (begin, end, arrival) order; an interval may start where the previous one
// in its sub-lane ends, unless both are zero-length at the same instant.
func layoutLane(index int, view model.EntityView, scale timeScale) laneLayout {
	lane := laneLayout{view: view, index: index, depth: 1}

	for i, ev := range view.Events {
		switch ev.Kind {
		case model.EventInterval:
			b, e, ok := scale.clip(ev.Begin, ev.End)
			if !ok {
				continue
			}
			lane.intervals = append(lane.intervals, placedInterval{
				event:   ev,
				begin:   b,
				end:     e,
				clipped: b != ev.Begin || e != ev.End,
				order:   i,
			})
		default:
			if scale.contains(ev.At()) {
				lane.points = append(lane.points, ev)
			}
		}
	}

	sort.SliceStable(lane.intervals, func(i, j int) bool {
		a, b := lane.intervals[i], lane.intervals[j]
		if a.begin != b.begin {
			return a.begin < b.begin
		}
		if a.end != b.end {
			return a.end < b.end
		}
		return a.order < b.order
	})

	type subLane struct{ begin, end int64 }
	var subs []subLane
	for i := range lane.intervals {
		iv := &lane.intervals[i]
		placed := false
		for s := range subs {
			last := subs[s]
			free := last.end < iv.begin || (last.end == iv.begin && (last.begin < last.end || iv.begin < iv.end))
			if free {
				iv.sub = s
				subs[s] = subLane{iv.begin, iv.end}
				placed = true
				break
			}
		}
		if !placed {
			iv.sub = len(subs)
			subs = append(subs, subLane{iv.begin, iv.end})
		}
	}
	if len(subs) > lane.depth {
		lane.depth = len(subs)
	}
	return lane
}
