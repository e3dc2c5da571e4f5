package model

import (
	"sort"

	"github.com/penwyp/go-wesgr/internal/errs"
)

type entity struct {
	key    EntityKey
	name   string
	events []Event
}

// Graph holds the event history of every entity plus the observed time bounds.
// It is built by a single writer and is read-only once finalized.
type Graph struct {
	entities  map[EntityKey]*entity
	order     []*entity // first appearance until Finalize, display order after
	min       int64
	max       int64
	hasBounds bool
	finalized bool
}

// PendingInterval is an interval whose begin has been seen but not its end.
// It is owned by whoever opened it; the graph keeps no record of it.
type PendingInterval struct {
	Entity EntityKey
	Begin  int64
	Label  string
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		entities: make(map[EntityKey]*entity),
	}
}

func (g *Graph) mutable(op string) error {
	if g.finalized {
		return errs.New(errs.KindMalformed, op, errs.ErrFinalized)
	}
	return nil
}

func (g *Graph) lookup(op string, key EntityKey) (*entity, error) {
	if err := g.mutable(op); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, errs.Malformed(op, "empty entity key")
	}
	if e, ok := g.entities[key]; ok {
		return e, nil
	}
	e := &entity{key: key}
	g.entities[key] = e
	g.order = append(g.order, e)
	return e, nil
}

func (g *Graph) observe(ts int64) {
	if !g.hasBounds {
		g.min, g.max = ts, ts
		g.hasBounds = true
		return
	}
	if ts < g.min {
		g.min = ts
	}
	if ts > g.max {
		g.max = ts
	}
}

// DeclareEntity registers an entity and sets its display name when non-empty
func (g *Graph) DeclareEntity(key EntityKey, name string) error {
	e, err := g.lookup("declare entity", key)
	if err != nil {
		return err
	}
	if name != "" {
		e.name = name
	}
	return nil
}

// InsertInstant appends a point event
func (g *Graph) InsertInstant(key EntityKey, at int64, label string) error {
	e, err := g.lookup("insert instant", key)
	if err != nil {
		return err
	}
	e.events = append(e.events, Event{Kind: EventInstant, Label: label, Begin: at, End: at})
	g.observe(at)
	return nil
}

// InsertAnnotation appends free-form text at a timestamp
func (g *Graph) InsertAnnotation(key EntityKey, at int64, text string) error {
	e, err := g.lookup("insert annotation", key)
	if err != nil {
		return err
	}
	e.events = append(e.events, Event{Kind: EventAnnotation, Label: text, Begin: at, End: at})
	g.observe(at)
	return nil
}

// OpenInterval registers the entity and the begin timestamp and returns the
// pending half of the interval. Nothing is appended until it is closed.
func (g *Graph) OpenInterval(key EntityKey, begin int64, label string) (PendingInterval, error) {
	if _, err := g.lookup("open interval", key); err != nil {
		return PendingInterval{}, err
	}
	g.observe(begin)
	return PendingInterval{Entity: key, Begin: begin, Label: label}, nil
}

// CloseInterval appends the interval [p.Begin, end]. An end before the begin
// is malformed input.
func (g *Graph) CloseInterval(p PendingInterval, end int64) error {
	if end < p.Begin {
		return errs.Malformed("close interval", "%s %q ends at %d before its begin %d", p.Entity, p.Label, end, p.Begin)
	}
	return g.appendInterval("close interval", p, end, false)
}

// CloseOpenEnded appends p as an interval running to the observed maximum
func (g *Graph) CloseOpenEnded(p PendingInterval) error {
	end := p.Begin
	if g.hasBounds && g.max > end {
		end = g.max
	}
	return g.appendInterval("close open-ended interval", p, end, true)
}

func (g *Graph) appendInterval(op string, p PendingInterval, end int64, open bool) error {
	e, err := g.lookup(op, p.Entity)
	if err != nil {
		return err
	}
	e.events = append(e.events, Event{Kind: EventInterval, Label: p.Label, Begin: p.Begin, End: end, Open: open})
	g.observe(p.Begin)
	g.observe(end)
	return nil
}

// ObservedBounds returns the minimum and maximum timestamp seen so far.
// ok is false when nothing with a timestamp has been recorded.
func (g *Graph) ObservedBounds() (min, max int64, ok bool) {
	return g.min, g.max, g.hasBounds
}

// Finalize fixes the display order: class priority first, first appearance second.
// Further mutation fails.
func (g *Graph) Finalize() {
	if g.finalized {
		return
	}
	sort.SliceStable(g.order, func(i, j int) bool {
		return ClassPriority(g.order[i].key.Class()) < ClassPriority(g.order[j].key.Class())
	})
	g.finalized = true
}

// Finalized reports whether Finalize has been called
func (g *Graph) Finalized() bool {
	return g.finalized
}

// Len returns the number of entities
func (g *Graph) Len() int {
	return len(g.order)
}

// EventCount returns the number of events across all entities
func (g *Graph) EventCount() int {
	n := 0
	for _, e := range g.order {
		n += len(e.events)
	}
	return n
}

// Entity returns the view of a single entity
func (g *Graph) Entity(key EntityKey) (EntityView, bool) {
	e, ok := g.entities[key]
	if !ok {
		return EntityView{}, false
	}
	return e.view(), true
}

// EntitiesInDisplayOrder returns a view of every entity. Before Finalize the
// order is first appearance.
func (g *Graph) EntitiesInDisplayOrder() []EntityView {
	views := make([]EntityView, 0, len(g.order))
	for _, e := range g.order {
		views = append(views, e.view())
	}
	return views
}

// Labels returns the distinct legend entries in display order. Interval and
// instant labels are listed individually; annotations share one entry with an
// empty label.
func (g *Graph) Labels() []LabelKey {
	seen := make(map[LabelKey]bool)
	var labels []LabelKey
	for _, e := range g.order {
		for _, ev := range e.events {
			key := LabelKey{Kind: ev.Kind, Label: ev.Label}
			if ev.Kind == EventAnnotation {
				key.Label = ""
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			labels = append(labels, key)
		}
	}
	return labels
}

func (e *entity) view() EntityView {
	events := make([]Event, len(e.events))
	copy(events, e.events)
	return EntityView{Key: e.key, Name: e.name, Events: events}
}
