// Package interaction tells clicks from drags on the calendar grid.
//
// The machine is a pure transition function over explicit states so gesture
// handling can be exercised without a pointer device.
package interaction

import (
	"math"
	"time"
)

// Defaults for Config.
const (
	DefaultDragThreshold   = 5.0
	DefaultDuplicateWindow = 500 * time.Millisecond
)

// Config holds the tunable gesture parameters.
type Config struct {
	DragThreshold   float64       // movement above this distance is a drag
	DuplicateWindow time.Duration // repeat clicks on one date inside this window stay silent
}

// DefaultConfig returns the stock gesture parameters.
func DefaultConfig() Config {
	return Config{DragThreshold: DefaultDragThreshold, DuplicateWindow: DefaultDuplicateWindow}
}

// Point is a pointer position in grid coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Phase enumerates machine states.
type Phase int

// Phases
const (
	Idle Phase = iota
	Armed
	Dragging
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	}
	return "unknown"
}

// State is the machine state. Start and StartDate are meaningful only when Armed.
type State struct {
	Phase     Phase
	Start     Point
	StartDate string
}

// EventKind enumerates pointer events.
type EventKind int

// Event kinds
const (
	PointerDown EventKind = iota
	PointerMove
	PointerEnter
	PointerUp
	PointerLeaveGrid
)

// Event is a pointer event. Pos is used by down/move/up, Date by down/enter.
type Event struct {
	Kind EventKind
	Pos  Point
	Date string
}

// EffectKind enumerates side effects the machine asks its driver to perform.
type EffectKind int

// Effect kinds
const (
	EffectMarkRange EffectKind = iota
	EffectOpenEditor
)

// Effect is a requested side effect. NavigateMonth is set on OpenEditor when
// the date belongs to a month other than the visible one.
type Effect struct {
	Kind          EffectKind
	Date          string
	NavigateMonth bool
}

// Transition computes the next state and effects for ev.
// inMonth reports whether a date belongs to the visible month; nil treats every date as visible.
// PRE: none
// POST: effects are only emitted for the transitions that define them; unknown pairs are no-ops
func Transition(st State, ev Event, cfg Config, inMonth func(date string) bool) (State, []Effect) {
	switch st.Phase {
	case Idle:
		if ev.Kind == PointerDown {
			return State{Phase: Armed, Start: ev.Pos, StartDate: ev.Date}, nil
		}
		return st, nil

	case Armed:
		switch ev.Kind {
		case PointerMove:
			if ev.Pos.Distance(st.Start) > cfg.DragThreshold {
				return State{Phase: Dragging}, []Effect{{Kind: EffectMarkRange, Date: st.StartDate}}
			}
			return st, nil
		case PointerUp:
			if ev.Pos.Distance(st.Start) > cfg.DragThreshold {
				// Moved far without a move event in between: a drag that ended immediately.
				return State{Phase: Idle}, []Effect{{Kind: EffectMarkRange, Date: st.StartDate}}
			}
			navigate := inMonth != nil && !inMonth(st.StartDate)
			return State{Phase: Idle}, []Effect{{Kind: EffectOpenEditor, Date: st.StartDate, NavigateMonth: navigate}}
		case PointerLeaveGrid:
			return State{Phase: Idle}, nil
		case PointerDown:
			return State{Phase: Armed, Start: ev.Pos, StartDate: ev.Date}, nil
		}
		return st, nil

	case Dragging:
		switch ev.Kind {
		case PointerEnter:
			return st, []Effect{{Kind: EffectMarkRange, Date: ev.Date}}
		case PointerUp, PointerLeaveGrid:
			return State{Phase: Idle}, nil
		}
		return st, nil
	}
	return State{Phase: Idle}, nil
}
