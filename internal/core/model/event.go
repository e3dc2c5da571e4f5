package model

import (
	"fmt"
	"strings"
)

// EventKind discriminates the variants of a timeline event
type EventKind int

const (
	EventInstant EventKind = iota
	EventInterval
	EventAnnotation
)

// String returns the string representation of EventKind
func (k EventKind) String() string {
	switch k {
	case EventInstant:
		return "instant"
	case EventInterval:
		return "interval"
	case EventAnnotation:
		return "annotation"
	default:
		return "unknown"
	}
}

// Event is one fact attached to an entity. Instants and annotations use Begin
// as their timestamp and leave End equal to it.
type Event struct {
	Kind  EventKind
	Label string // instant label, interval kind or annotation text
	Begin int64  // milliseconds
	End   int64  // milliseconds, End >= Begin
	Open  bool   // interval closed at end of stream instead of by an end record
}

// At returns the timestamp of a point event
func (e Event) At() int64 {
	return e.Begin
}

// Duration returns End - Begin in milliseconds
func (e Event) Duration() int64 {
	return e.End - e.Begin
}

func (e Event) String() string {
	if e.Kind == EventInterval {
		suffix := ""
		if e.Open {
			suffix = " open"
		}
		return fmt.Sprintf("%s[%d,%d]%s", e.Label, e.Begin, e.End, suffix)
	}
	return fmt.Sprintf("%s@%d(%s)", e.Kind, e.Begin, e.Label)
}

// EntityKey identifies a tracked actor such as "output.0" or "surface.12"
type EntityKey string

// Class returns the key prefix before the first dot
func (k EntityKey) Class() string {
	s := string(k)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// Entity classes with a fixed display priority
const (
	ClassOutput  = "output"
	ClassSurface = "surface"
)

// ClassPriority orders outputs before surfaces before everything else
func ClassPriority(class string) int {
	switch class {
	case ClassOutput:
		return 0
	case ClassSurface:
		return 1
	default:
		return 2
	}
}

// EntityView is a read-only view of one entity and its events
type EntityView struct {
	Key    EntityKey
	Name   string
	Events []Event
}

// Class returns the entity class
func (v EntityView) Class() string {
	return v.Key.Class()
}

// DisplayName returns the declared name, or the key when none was declared
func (v EntityView) DisplayName() string {
	if v.Name != "" {
		return v.Name
	}
	return string(v.Key)
}

// LabelKey identifies a legend entry
type LabelKey struct {
	Kind  EventKind
	Label string
}
