package model

import (
	"fmt"

	"github.com/penwyp/go-wesgr/internal/errs"
)

// TimeWindow is an optional [From, To] millisecond range. A nil bound means
// "use the observed bound of the graph".
type TimeWindow struct {
	From *int64
	To   *int64
}

// Ms returns a pointer to v, for building windows
func Ms(v int64) *int64 {
	return &v
}

// Validate rejects a window whose given bounds are inverted
func (w TimeWindow) Validate() error {
	if w.From != nil && w.To != nil && *w.From > *w.To {
		return errs.Config("time window", fmt.Errorf("%w: %d > %d", errs.ErrInvertedWindow, *w.From, *w.To))
	}
	return nil
}

// Resolve substitutes unset bounds with the observed bounds of g (0 for an
// empty graph). When a single given bound lands outside the observed range,
// the missing bound collapses onto it so that from <= to always holds.
func (w TimeWindow) Resolve(g *Graph) (from, to int64) {
	if g != nil {
		from, to, _ = g.ObservedBounds()
	}
	if w.From != nil {
		from = *w.From
	}
	if w.To != nil {
		to = *w.To
	}
	if from > to {
		if w.From != nil && w.To == nil {
			to = from
		} else {
			from = to
		}
	}
	return from, to
}

func (w TimeWindow) String() string {
	bound := func(v *int64) string {
		if v == nil {
			return "auto"
		}
		return fmt.Sprintf("%d", *v)
	}
	return fmt.Sprintf("[%s, %s]", bound(w.From), bound(w.To))
}
