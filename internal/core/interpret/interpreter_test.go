package interpret

import (
	"bytes"
	"errors"
	"testing"

	"github.com/penwyp/go-wesgr/internal/core/model"
	"github.com/penwyp/go-wesgr/internal/data/source"
	"github.com/penwyp/go-wesgr/internal/errs"
	"github.com/penwyp/go-wesgr/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interpret(t *testing.T, opts Options, records ...fixtures.Record) (*model.Graph, error) {
	t.Helper()
	data, err := fixtures.Encode(records)
	require.NoError(t, err)
	g, _, err := Interpret(source.NewStream("test", bytes.NewReader(data)), opts)
	return g, err
}

func interpretRaw(t *testing.T, opts Options, input string) (*model.Graph, error) {
	t.Helper()
	g, _, err := Interpret(source.NewStream("test", bytes.NewReader([]byte(input))), opts)
	return g, err
}

func events(t *testing.T, g *model.Graph, key model.EntityKey) []model.Event {
	t.Helper()
	view, ok := g.Entity(key)
	require.True(t, ok, "entity %s missing", key)
	return view.Events
}

func TestInterpretSingleInterval(t *testing.T) {
	g, err := interpret(t, Options{},
		fixtures.Begin("output.0", 1, 0, "repaint"),
		fixtures.EndOn("output.0", 1, 16),
	)
	require.NoError(t, err)
	require.True(t, g.Finalized())

	evs := events(t, g, "output.0")
	require.Len(t, evs, 1)
	assert.Equal(t, model.EventInterval, evs[0].Kind)
	assert.Equal(t, "repaint", evs[0].Label)
	assert.Equal(t, int64(0), evs[0].Begin)
	assert.Equal(t, int64(16), evs[0].End)
	assert.False(t, evs[0].Open)

	min, max, ok := g.ObservedBounds()
	require.True(t, ok)
	assert.Equal(t, int64(0), min)
	assert.Equal(t, int64(16), max)
}

func TestInterpretCompositorFrame(t *testing.T) {
	gen := fixtures.NewTestDataGenerator(t.TempDir(), 1)
	g, err := interpret(t, Options{}, gen.GenerateCompositorFrame(100)...)
	require.NoError(t, err)

	views := g.EntitiesInDisplayOrder()
	require.Len(t, views, 3)
	assert.Equal(t, model.EntityKey("output.0"), views[0].Key)
	assert.Equal(t, "HDMI-A-1", views[0].DisplayName())
	assert.Equal(t, model.EntityKey("surface.3"), views[1].Key)
	assert.Equal(t, model.EntityKey("surface.7"), views[2].Key)

	out := views[0].Events
	require.Len(t, out, 3)
	assert.Equal(t, model.EventAnnotation, out[0].Kind)
	assert.Equal(t, "mode 1920x1080@60", out[0].Label)
	assert.Equal(t, model.EventInterval, out[1].Kind)
	assert.Equal(t, int64(100), out[1].Begin)
	assert.Equal(t, int64(116), out[1].End)
	assert.Equal(t, model.EventInstant, out[2].Kind)

	min, max, _ := g.ObservedBounds()
	assert.Equal(t, int64(100), min)
	assert.Equal(t, int64(116), max)
}

func TestInterpretInterleavedIntervals(t *testing.T) {
	g, err := interpret(t, Options{},
		fixtures.Begin("surface.1", "a", 0, "commit"),
		fixtures.Begin("surface.1", "b", 3, "commit"),
		fixtures.Begin("surface.2", "c", 4, "attach"),
		fixtures.End("a", 10),
		fixtures.End("c", 6),
		fixtures.End("b", 8),
	)
	require.NoError(t, err)

	s1 := events(t, g, "surface.1")
	require.Len(t, s1, 2)
	assert.Equal(t, [2]int64{0, 10}, [2]int64{s1[0].Begin, s1[0].End})
	assert.Equal(t, [2]int64{3, 8}, [2]int64{s1[1].Begin, s1[1].End})

	s2 := events(t, g, "surface.2")
	require.Len(t, s2, 1)
	assert.Equal(t, [2]int64{4, 6}, [2]int64{s2[0].Begin, s2[0].End})
}

func TestInterpretTokenTypesNormalize(t *testing.T) {
	g, err := interpret(t, Options{},
		fixtures.Begin("output.0", 7, 1, "repaint"),
		fixtures.End("7", 2),
	)
	require.NoError(t, err)
	assert.Len(t, events(t, g, "output.0"), 1)
}

func TestInterpretTokenReuseAfterEnd(t *testing.T) {
	g, err := interpret(t, Options{},
		fixtures.Begin("output.0", 1, 0, "repaint"),
		fixtures.End(1, 5),
		fixtures.Begin("output.0", 1, 16, "repaint"),
		fixtures.End(1, 21),
	)
	require.NoError(t, err)
	assert.Len(t, events(t, g, "output.0"), 2)
}

func TestInterpretCompositeEntity(t *testing.T) {
	g, err := interpret(t, Options{},
		fixtures.Instant(fixtures.Composite("surface", 7), 3, "frame"),
		fixtures.Instant(fixtures.Composite("client", "weston"), 4, "frame"),
	)
	require.NoError(t, err)
	assert.Len(t, events(t, g, "surface.7"), 1)
	assert.Len(t, events(t, g, "client.weston"), 1)
}

func TestInterpretMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"begin missing token", `{"kind":"begin","entity":"output.0","ts":0,"label":"repaint"}`},
		{"begin missing entity", `{"kind":"begin","token":1,"ts":0,"label":"repaint"}`},
		{"begin missing label", `{"kind":"begin","entity":"output.0","token":1,"ts":0}`},
		{"begin fractional ts", `{"kind":"begin","entity":"output.0","token":1,"ts":1.5,"label":"x"}`},
		{"begin string ts", `{"kind":"begin","entity":"output.0","token":1,"ts":"5","label":"x"}`},
		{"empty token", `{"kind":"begin","entity":"output.0","token":"","ts":0,"label":"x"}`},
		{"boolean token", `{"kind":"begin","entity":"output.0","token":true,"ts":0,"label":"x"}`},
		{"end missing ts", `{"kind":"end","token":1}`},
		{"instant missing label", `{"kind":"instant","entity":"output.0","ts":3}`},
		{"info missing text", `{"kind":"info","entity":"output.0","ts":3}`},
		{"entity wrong name type", `{"kind":"entity","entity":"output.0","name":3}`},
		{"composite without type", `{"kind":"instant","entity":{"id":3},"ts":3,"label":"x"}`},
		{"composite without id", `{"kind":"instant","entity":{"type":"surface"},"ts":3,"label":"x"}`},
		{"missing kind", `{"entity":"output.0","ts":3}`},
		{"numeric kind", `{"kind":3}`},
		{"array value", `[1,2,3]`},
		{"string value", `"begin"`},
		{"number value", `42`},
		{"duplicate open token", `{"kind":"begin","entity":"output.0","token":1,"ts":0,"label":"a"}
{"kind":"begin","entity":"output.0","token":1,"ts":2,"label":"b"}`},
		{"end on another entity", `{"kind":"begin","entity":"output.0","token":1,"ts":0,"label":"a"}
{"kind":"end","entity":"output.1","token":1,"ts":2}`},
		{"end before begin", `{"kind":"begin","entity":"output.0","token":1,"ts":10,"label":"a"}
{"kind":"end","token":1,"ts":9}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := interpretRaw(t, Options{}, tt.input)
			require.Error(t, err)
			assert.Nil(t, g)
			assert.True(t, errs.Is(err, errs.KindMalformed), "got %v", err)
			assert.True(t, errors.Is(err, errs.ErrMalformed), "got %v", err)
		})
	}
}

func TestInterpretMalformedNamesRecord(t *testing.T) {
	_, err := interpretRaw(t, Options{}, `{"kind":"instant","entity":"a","ts":1,"label":"x"}
{"kind":"begin","entity":"output.0","ts":0,"label":"repaint"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 2")
	assert.Contains(t, err.Error(), `"token"`)
}

func TestInterpretDecodeErrorPassesThrough(t *testing.T) {
	_, err := interpretRaw(t, Options{}, `{"kind":"instant","entity":"a","ts":1,"label":"x"} {"kind":`)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindDecode), "got %v", err)
}

func TestRecordKindNames(t *testing.T) {
	for _, name := range []string{"begin", "end", "instant", "info", "entity"} {
		k := ClassifyKind(name)
		assert.NotEqual(t, RecordUnknown, k, name)
		assert.Equal(t, name, k.String())
	}
	assert.Equal(t, RecordUnknown, ClassifyKind("vsync-stats"))
	assert.Equal(t, RecordUnknown, ClassifyKind(""))
	assert.Equal(t, "unknown", RecordUnknown.String())
	assert.Equal(t, "unknown", RecordKind(42).String())
}

func TestInterpretUnknownKindIgnored(t *testing.T) {
	in := New(Options{})
	require.NoError(t, in.Process(map[string]interface{}{"kind": "vsync-stats", "whatever": 1}))
	require.NoError(t, in.Process(map[string]interface{}{"kind": "instant", "entity": "output.0", "ts": 4.0, "label": "x"}))

	g, err := in.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 1, g.EventCount())

	s := in.Stats()
	assert.Equal(t, 2, s.Records)
	assert.Equal(t, 1, s.UnknownKinds)
	assert.Equal(t, 1, s.Kinds["instant"])
	assert.NotContains(t, s.Kinds, "vsync-stats")
}

func TestInterpretUnmatchedEnd(t *testing.T) {
	records := []fixtures.Record{
		fixtures.Instant("output.0", 5, "vblank"),
		fixtures.End(99, 1000),
	}

	t.Run("ignore", func(t *testing.T) {
		data, err := fixtures.Encode(records)
		require.NoError(t, err)
		g, stats, err := Interpret(source.NewStream("test", bytes.NewReader(data)), Options{UnmatchedEnd: UnmatchedEndIgnore})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.UnmatchedEnds)
		assert.Equal(t, 2, stats.Records)

		min, max, ok := g.ObservedBounds()
		require.True(t, ok)
		assert.Equal(t, int64(5), min)
		assert.Equal(t, int64(5), max, "ignored end does not move the bounds")
	})

	t.Run("error", func(t *testing.T) {
		_, err := interpret(t, Options{UnmatchedEnd: UnmatchedEndError}, records...)
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindMalformed))
		assert.True(t, errors.Is(err, errs.ErrUnmatchedEnd))
	})
}

func TestInterpretOpenIntervals(t *testing.T) {
	records := []fixtures.Record{
		fixtures.Begin("output.0", 1, 5, "repaint"),
		fixtures.Begin("surface.2", 2, 8, "commit"),
		fixtures.Instant("surface.2", 20, "frame"),
	}

	t.Run("open", func(t *testing.T) {
		in := New(Options{OpenInterval: OpenIntervalRender})
		for _, r := range records {
			require.NoError(t, in.Process(decoded(t, r)))
		}
		assert.Equal(t, 2, in.Pending())

		g, err := in.Finalize()
		require.NoError(t, err)
		assert.Equal(t, 0, in.Pending())
		assert.Equal(t, 2, in.Stats().RenderedOpen)

		out := events(t, g, "output.0")
		require.Len(t, out, 1)
		assert.True(t, out[0].Open)
		assert.Equal(t, int64(5), out[0].Begin)
		assert.Equal(t, int64(20), out[0].End)

		surf := events(t, g, "surface.2")
		require.Len(t, surf, 2)
		assert.Equal(t, model.EventInstant, surf[0].Kind)
		assert.Equal(t, model.EventInterval, surf[1].Kind, "open intervals are appended at finalize")
		assert.True(t, surf[1].Open)
		assert.Equal(t, int64(20), surf[1].End)

		_, max, _ := g.ObservedBounds()
		assert.Equal(t, int64(20), max)
	})

	t.Run("drop", func(t *testing.T) {
		in := New(Options{OpenInterval: OpenIntervalDrop})
		for _, r := range records {
			require.NoError(t, in.Process(decoded(t, r)))
		}
		g, err := in.Finalize()
		require.NoError(t, err)
		assert.Equal(t, 2, in.Stats().DroppedOpen)
		assert.Equal(t, 1, g.EventCount())
		assert.Empty(t, events(t, g, "output.0"))
	})

	t.Run("error", func(t *testing.T) {
		_, err := interpret(t, Options{OpenInterval: OpenIntervalError}, records...)
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindMalformed))
		assert.True(t, errors.Is(err, errs.ErrOpenInterval))
		assert.Contains(t, err.Error(), `"repaint"`, "names the earliest open interval")
	})
}

func TestInterpretOpenIntervalAfterLastEvent(t *testing.T) {
	g, err := interpret(t, Options{},
		fixtures.Instant("output.0", 3, "vblank"),
		fixtures.Begin("output.0", 1, 3, "repaint"),
	)
	require.NoError(t, err)
	evs := events(t, g, "output.0")
	require.Len(t, evs, 2)
	assert.Equal(t, int64(3), evs[1].Begin)
	assert.Equal(t, int64(3), evs[1].End)
	assert.True(t, evs[1].Open)
}

func TestInterpreterFinalizeOnce(t *testing.T) {
	in := New(Options{})
	require.NoError(t, in.Process(decoded(t, fixtures.Instant("output.0", 1, "x"))))

	g1, err := in.Finalize()
	require.NoError(t, err)
	g2, err := in.Finalize()
	require.NoError(t, err)
	assert.Same(t, g1, g2)

	err = in.Process(decoded(t, fixtures.Instant("output.0", 2, "x")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrFinalized))
}

func TestInterpretEmptyStream(t *testing.T) {
	g, err := interpretRaw(t, Options{}, "  \n")
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
	_, _, ok := g.ObservedBounds()
	assert.False(t, ok)
}

func TestInterpretRandomTraces(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		gen := fixtures.NewTestDataGenerator(t.TempDir(), seed)
		trace := gen.GenerateRandomTrace(200, 6)

		g, err := interpret(t, Options{UnmatchedEnd: UnmatchedEndError, OpenInterval: OpenIntervalError}, trace.Records...)
		require.NoError(t, err, "seed %d", seed)

		min, max, ok := g.ObservedBounds()
		require.True(t, ok)
		assert.Equal(t, trace.Min, min, "seed %d", seed)
		assert.Equal(t, trace.Max, max, "seed %d", seed)
		assert.Equal(t, trace.Intervals+trace.Instants+trace.Annotations, g.EventCount(), "seed %d", seed)
		assert.Equal(t, len(trace.Entities), g.Len(), "seed %d", seed)

		intervals := 0
		prio := -1
		for _, v := range g.EntitiesInDisplayOrder() {
			p := model.ClassPriority(v.Class())
			assert.GreaterOrEqual(t, p, prio, "seed %d: display order groups classes", seed)
			prio = p
			for _, ev := range v.Events {
				assert.True(t, ev.At() >= min && ev.At() <= max)
				if ev.Kind == model.EventInterval {
					intervals++
					assert.LessOrEqual(t, ev.Begin, ev.End)
					assert.False(t, ev.Open)
				}
			}
		}
		assert.Equal(t, trace.Intervals, intervals, "seed %d", seed)
	}
}

// decoded round-trips r through the stream decoder so numbers arrive as json.Number
func decoded(t *testing.T, r fixtures.Record) interface{} {
	t.Helper()
	data, err := fixtures.Encode([]fixtures.Record{r})
	require.NoError(t, err)
	v, err := source.NewStream("test", bytes.NewReader(data)).Next()
	require.NoError(t, err)
	return v
}
