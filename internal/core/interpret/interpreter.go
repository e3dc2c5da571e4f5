// Package interpret turns decoded JSON records into a timeline graph.
//
// Records are classified by their "kind" field into a closed set of shapes:
//
//	begin    {"kind":"begin","entity":E,"token":T,"ts":MS,"label":L}
//	end      {"kind":"end","token":T,"ts":MS[,"entity":E]}
//	instant  {"kind":"instant","entity":E,"ts":MS,"label":L}
//	info     {"kind":"info","entity":E,"ts":MS,"text":S}
//	entity   {"kind":"entity","entity":E[,"name":S]}
//
// Any other kind is ignored. A record of a known kind that does not match its
// shape fails the whole run.
package interpret

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/penwyp/go-wesgr/internal/core/model"
	"github.com/penwyp/go-wesgr/internal/errs"
	"github.com/penwyp/go-wesgr/internal/util"
)

// RecordKind is the closed set of recognized record shapes
type RecordKind int

const (
	RecordUnknown RecordKind = iota
	RecordBegin
	RecordEnd
	RecordInstant
	RecordInfo
	RecordEntity
)

var recordKinds = map[string]RecordKind{
	"begin":   RecordBegin,
	"end":     RecordEnd,
	"instant": RecordInstant,
	"info":    RecordInfo,
	"entity":  RecordEntity,
}

// ClassifyKind maps a "kind" value to its record shape
func ClassifyKind(kind string) RecordKind {
	return recordKinds[kind]
}

// String returns the string representation of RecordKind
func (k RecordKind) String() string {
	switch k {
	case RecordBegin:
		return "begin"
	case RecordEnd:
		return "end"
	case RecordInstant:
		return "instant"
	case RecordInfo:
		return "info"
	case RecordEntity:
		return "entity"
	default:
		return "unknown"
	}
}

// Stats counts what the interpreter did with its input
type Stats struct {
	Records        int
	Kinds          map[string]int
	UnknownKinds   int
	UnmatchedEnds  int
	DroppedOpen    int
	RenderedOpen   int
	ClosedInterval int
}

type inFlight struct {
	model.PendingInterval
	token string
	seq   int
}

// Interpreter is the stateful half of event interpretation. It owns the graph
// under construction and the in-flight intervals keyed by correlation token.
type Interpreter struct {
	graph     *model.Graph
	opts      Options
	pending   map[string]inFlight
	stats     Stats
	finalized bool
}

// New creates an Interpreter with an empty graph
func New(opts Options) *Interpreter {
	return &Interpreter{
		graph:   model.NewGraph(),
		opts:    opts,
		pending: make(map[string]inFlight),
		stats:   Stats{Kinds: make(map[string]int)},
	}
}

// Stats returns a snapshot of the counters
func (in *Interpreter) Stats() Stats {
	s := in.stats
	s.Kinds = make(map[string]int, len(in.stats.Kinds))
	for k, v := range in.stats.Kinds {
		s.Kinds[k] = v
	}
	return s
}

// Pending returns the number of intervals waiting for their end record
func (in *Interpreter) Pending() int {
	return len(in.pending)
}

// Process interprets one top-level value. Values must arrive in stream order.
func (in *Interpreter) Process(value interface{}) error {
	if in.finalized {
		return errs.New(errs.KindMalformed, "interpret", errs.ErrFinalized)
	}
	in.stats.Records++
	n := in.stats.Records

	obj, ok := value.(map[string]interface{})
	if !ok {
		return errs.Malformed("interpret", "record %d is a %s, want object", n, typeName(value))
	}
	rec := record(obj)

	kind, err := rec.requireString(fieldKind)
	if err != nil {
		return errs.Malformed("interpret", "record %d: %v", n, err)
	}

	rk := ClassifyKind(kind)
	if rk == RecordUnknown {
		in.stats.UnknownKinds++
		util.LogDebugf("Skip record %d with unknown kind %q", n, kind)
		return nil
	}
	in.stats.Kinds[kind]++

	op := "interpret " + kind
	switch rk {
	case RecordBegin:
		err = in.begin(rec)
	case RecordEnd:
		err = in.end(rec)
	case RecordInstant:
		err = in.instant(rec)
	case RecordInfo:
		err = in.info(rec)
	case RecordEntity:
		err = in.declare(rec)
	}
	if err != nil {
		if _, classified := errs.KindOf(err); classified {
			return fmt.Errorf("record %d: %w", n, err)
		}
		return errs.Malformed(op, "record %d: %v", n, err)
	}
	return nil
}

func (in *Interpreter) begin(rec record) error {
	key, err := rec.entity()
	if err != nil {
		return err
	}
	token, err := rec.token()
	if err != nil {
		return err
	}
	ts, err := rec.requireInt(fieldTS)
	if err != nil {
		return err
	}
	label, err := rec.requireString(fieldLabel)
	if err != nil {
		return err
	}
	if open, ok := in.pending[token]; ok {
		return fmt.Errorf("token %s is already open on %s since %d", token, open.Entity, open.Begin)
	}

	p, err := in.graph.OpenInterval(key, ts, label)
	if err != nil {
		return err
	}
	in.pending[token] = inFlight{PendingInterval: p, token: token, seq: in.stats.Records}
	return nil
}

func (in *Interpreter) end(rec record) error {
	token, err := rec.token()
	if err != nil {
		return err
	}
	ts, err := rec.requireInt(fieldTS)
	if err != nil {
		return err
	}
	var key model.EntityKey
	if _, ok := rec[fieldEntity]; ok {
		if key, err = rec.entity(); err != nil {
			return err
		}
	}

	open, ok := in.pending[token]
	if !ok {
		if in.opts.UnmatchedEnd == UnmatchedEndError {
			return errs.MalformedCause("interpret end", errs.ErrUnmatchedEnd, "token %s at %d", token, ts)
		}
		in.stats.UnmatchedEnds++
		util.LogWarnf("Ignore end record for token %s at %d: no matching begin", token, ts)
		return nil
	}
	if key != "" && key != open.Entity {
		return fmt.Errorf("token %s was opened on %s but ended on %s", token, open.Entity, key)
	}

	delete(in.pending, token)
	if err := in.graph.CloseInterval(open.PendingInterval, ts); err != nil {
		return err
	}
	in.stats.ClosedInterval++
	return nil
}

func (in *Interpreter) instant(rec record) error {
	key, err := rec.entity()
	if err != nil {
		return err
	}
	ts, err := rec.requireInt(fieldTS)
	if err != nil {
		return err
	}
	label, err := rec.requireString(fieldLabel)
	if err != nil {
		return err
	}
	return in.graph.InsertInstant(key, ts, label)
}

func (in *Interpreter) info(rec record) error {
	key, err := rec.entity()
	if err != nil {
		return err
	}
	ts, err := rec.requireInt(fieldTS)
	if err != nil {
		return err
	}
	text, err := rec.requireString(fieldText)
	if err != nil {
		return err
	}
	return in.graph.InsertAnnotation(key, ts, text)
}

func (in *Interpreter) declare(rec record) error {
	key, err := rec.entity()
	if err != nil {
		return err
	}
	name, err := rec.optionalString(fieldName)
	if err != nil {
		return err
	}
	return in.graph.DeclareEntity(key, name)
}

// Finalize resolves the intervals still in flight according to the
// open-interval policy, fixes the display order and returns the graph.
// Calling it again returns the same graph.
func (in *Interpreter) Finalize() (*model.Graph, error) {
	if in.finalized {
		return in.graph, nil
	}

	open := make([]inFlight, 0, len(in.pending))
	for _, p := range in.pending {
		open = append(open, p)
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].Begin != open[j].Begin {
			return open[i].Begin < open[j].Begin
		}
		return open[i].seq < open[j].seq
	})

	if len(open) > 0 {
		switch in.opts.OpenInterval {
		case OpenIntervalError:
			first := open[0]
			return nil, errs.MalformedCause("finalize", errs.ErrOpenInterval,
				"%d interval(s) without end, first %q token %s on %s at %d",
				len(open), first.Label, first.token, first.Entity, first.Begin)
		case OpenIntervalDrop:
			in.stats.DroppedOpen += len(open)
			util.LogWarnf("Drop %d interval(s) still open at end of stream", len(open))
		default:
			for _, p := range open {
				if err := in.graph.CloseOpenEnded(p.PendingInterval); err != nil {
					return nil, err
				}
			}
			in.stats.RenderedOpen += len(open)
			util.LogDebugf("Render %d interval(s) still open at end of stream as open-ended", len(open))
		}
	}
	in.pending = make(map[string]inFlight)

	in.graph.Finalize()
	in.finalized = true
	return in.graph, nil
}

// ValueSource yields decoded top-level values and io.EOF at the end of the stream
type ValueSource interface {
	Next() (interface{}, error)
}

// Interpret drives src to completion and returns the finalized graph with
// the run's statistics. Any error from the source or the interpreter aborts
// the run.
func Interpret(src ValueSource, opts Options) (*model.Graph, Stats, error) {
	in := New(opts)
	for {
		value, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, in.Stats(), err
		}
		if err := in.Process(value); err != nil {
			return nil, in.Stats(), err
		}
	}

	g, err := in.Finalize()
	s := in.Stats()
	if err != nil {
		return nil, s, err
	}

	util.LogDebugf("Interpreted %d records into %d entities and %d events (unknown kinds %d, unmatched ends %d, open intervals rendered %d, dropped %d)",
		s.Records, g.Len(), g.EventCount(), s.UnknownKinds, s.UnmatchedEnds, s.RenderedOpen, s.DroppedOpen)
	return g, s, nil
}
