package svg

import "math"

// timeScale maps milliseconds in [from, to] onto [left, left+width] pixels
type timeScale struct {
	from  int64
	to    int64
	left  float64
	width float64
	scale float64
}

func newTimeScale(from, to int64, left, width float64) timeScale {
	span := 1.0
	if to > from {
		span = float64(spanOf(from, to))
	}
	return timeScale{
		from:  from,
		to:    to,
		left:  left,
		width: width,
		scale: width / span,
	}
}

// X returns the pixel column of t
func (s timeScale) X(t int64) float64 {
	return s.left + (float64(t)-float64(s.from))*s.scale
}

// contains reports whether t lies inside the window
func (s timeScale) contains(t int64) bool {
	return t >= s.from && t <= s.to
}

// clip truncates [begin, end] to the window. ok is false when nothing of the
// interval is visible.
func (s timeScale) clip(begin, end int64) (b, e int64, ok bool) {
	if end < s.from || begin > s.to {
		return 0, 0, false
	}
	if begin < s.from {
		begin = s.from
	}
	if end > s.to {
		end = s.to
	}
	return begin, end, true
}

// spanOf returns to - from for to >= from without overflowing int64
func spanOf(from, to int64) uint64 {
	return uint64(to) - uint64(from)
}

// tickStep returns the smallest step of the form {1,2,5}·10^k milliseconds
// that keeps the tick count of a span within maxTicks
func tickStep(span uint64, maxTicks int) uint64 {
	if maxTicks < 2 {
		maxTicks = 2
	}
	for mag := uint64(1); ; mag *= 10 {
		for _, m := range [...]uint64{1, 2, 5} {
			step := m * mag
			if span/step+1 <= uint64(maxTicks) {
				return step
			}
		}
	}
}

// ticks returns the tick positions of [from, to]: one tick for an empty span,
// otherwise every multiple of the chosen step inside the window
func ticks(from, to int64, maxTicks int) []int64 {
	if to <= from {
		return []int64{from}
	}
	step := tickStep(spanOf(from, to), maxTicks)
	if step > math.MaxInt64 {
		return []int64{from, to}
	}
	s := int64(step)
	// truncation rounds toward zero, which is already >= from when from < 0
	first := (from / s) * s
	if first < from {
		if first > math.MaxInt64-s {
			return nil
		}
		first += s
	}
	var out []int64
	for t := first; t <= to; t += s {
		out = append(out, t)
		if spanOf(t, to) < step {
			break
		}
	}
	return out
}
