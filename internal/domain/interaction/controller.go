package interaction

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"orchestra/internal/domain/availability"
	"orchestra/internal/domain/calendar"
)

// NotificationGate drops the user-facing notice for a click replayed on the
// same date within the window. It never blocks the state change itself.
// A gate may outlive one controller and is safe for concurrent use.
type NotificationGate struct {
	mu       sync.Mutex
	window   time.Duration
	lastDate string
	lastAt   time.Time
}

// NewNotificationGate creates a gate with the given window.
func NewNotificationGate(window time.Duration) *NotificationGate {
	return &NotificationGate{window: window}
}

// Allow reports whether a notification for date at now should be shown.
// PRE: now is not before the previous call's now
// POST: the gate remembers (date, now) either way
func (g *NotificationGate) Allow(date string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	dup := date == g.lastDate && !g.lastAt.IsZero() && now.Sub(g.lastAt) < g.window
	g.lastDate = date
	g.lastAt = now
	return !dup
}

// Outcome summarises what one driver call did.
type Outcome struct {
	Marked    []string // dates newly marked by this call
	Opened    string   // date whose editor opened, "" if none
	Navigated bool     // visible month changed to show Opened
}

// Controller binds the gesture machine to an availability store and the
// visible month grid.
// Not safe for concurrent use.
type Controller struct {
	cfg   Config
	store *availability.Store
	grid  calendar.Grid
	state State
	gate  *NotificationGate
	drag  map[string]bool // distinct cells marked by the current drag
}

// NewController creates a controller showing grid.
func NewController(store *availability.Store, grid calendar.Grid, cfg Config) *Controller {
	return &Controller{
		cfg:   cfg,
		store: store,
		grid:  grid,
		gate:  NewNotificationGate(cfg.DuplicateWindow),
		drag:  make(map[string]bool),
	}
}

// UseGate replaces the controller's notification gate, so repeat clicks are
// recognised across controllers built for the same member.
func (c *Controller) UseGate(g *NotificationGate) *Controller {
	c.gate = g
	return c
}

// State returns the current machine state.
func (c *Controller) State() State {
	return c.state
}

// Grid returns the visible month.
func (c *Controller) Grid() calendar.Grid {
	return c.grid
}

// DragCells returns the distinct cells marked by the most recent drag, sorted.
func (c *Controller) DragCells() []string {
	out := make([]string, 0, len(c.drag))
	for d := range c.drag {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Handle feeds one pointer event through the machine and applies its effects.
// PRE: ev.Date, when required by ev.Kind, is an ISO date
// POST: the store is only mutated by MarkRange effects
func (c *Controller) Handle(ev Event) (Outcome, error) {
	if ev.Kind == PointerDown || ev.Kind == PointerEnter {
		if _, err := calendar.ParseISODate(ev.Date); err != nil {
			return Outcome{}, fmt.Errorf("pointer event: %w", err)
		}
	}
	if ev.Kind == PointerDown && c.state.Phase == Idle {
		c.drag = make(map[string]bool)
	}

	next, effects := Transition(c.state, ev, c.cfg, c.grid.Contains)
	c.state = next

	var out Outcome
	for _, eff := range effects {
		date, err := calendar.ParseISODate(eff.Date)
		if err != nil {
			return out, fmt.Errorf("effect: %w", err)
		}
		switch eff.Kind {
		case EffectMarkRange:
			if !c.store.IsSelected(date) {
				out.Marked = append(out.Marked, eff.Date)
			}
			c.drag[eff.Date] = true
			c.store.MarkRange(date)
		case EffectOpenEditor:
			if eff.NavigateMonth {
				c.grid = calendar.GridFor(date)
				out.Navigated = true
			}
			out.Opened = eff.Date
		}
	}
	return out, nil
}

// Toggle flips date from the editor and reports whether to show a notice.
// The toggle always happens; only the notice is deduplicated.
func (c *Controller) Toggle(date time.Time, now time.Time) (availability.Snapshot, bool) {
	snap := c.store.Toggle(date)
	return snap, c.gate.Allow(calendar.FormatISODate(date), now)
}

// SaveMemo applies the editor's memo text for date.
func (c *Controller) SaveMemo(date time.Time, text string) availability.Snapshot {
	return c.store.SetMemo(date, text)
}

// CancelDate removes date from the selection, purging its memo.
func (c *Controller) CancelDate(date time.Time) availability.Snapshot {
	if c.store.IsSelected(date) {
		return c.store.Toggle(date)
	}
	return c.store.Snapshot()
}
