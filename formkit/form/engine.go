package form

import (
	"fmt"
	"log"
	"sort"
	"time"
)

// Facet is one of the independent field states driven by conditions.
type Facet string

const (
	FacetDisable Facet = "disable"
	FacetHide    Facet = "hide"
	FacetCheck   Facet = "check"
)

// facetOrder is the order pending facets are evaluated in after a value
// change.  It matches the order condition sets are registered in.
var facetOrder = []Facet{FacetDisable, FacetHide, FacetCheck}

// maxPasses bounds the facet passes run for one settled burst of changes.
// Condition graphs that keep changing values on every pass are cut off here.
const maxPasses = 64

// Predicate decides a facet for one field from a snapshot of all values.
// For FacetCheck the result means "valid".
type Predicate func(v Values) bool

// Conditions maps field names to the predicate deciding a facet for them.
type Conditions map[string]Predicate

// Observer receives engine activity.  Implementations must not call back
// into the form.
type Observer interface {
	Reevaluated(facet Facet, elapsed time.Duration)
	PredicateFault(facet Facet, field string)
	Rejected(missing, invalid int)
}

type nopObserver struct{}

func (nopObserver) Reevaluated(Facet, time.Duration) {}
func (nopObserver) PredicateFault(Facet, string)     {}
func (nopObserver) Rejected(int, int)                {}

type subscription struct {
	control   *Control
	predicate Predicate
}

// engine owns the condition table and keeps facet state consistent with the
// current values.  It is not safe for concurrent use.
type engine struct {
	flat     *table
	subs     map[Facet][]subscription
	logger   *log.Logger
	observer Observer

	pending map[Facet]bool
	busy    bool
	hold    int
	cancels []func()
}

func newEngine(flat *table, logger *log.Logger, observer Observer) *engine {
	if observer == nil {
		observer = nopObserver{}
	}
	return &engine{
		flat:     flat,
		subs:     make(map[Facet][]subscription),
		logger:   logger,
		observer: observer,
		pending:  make(map[Facet]bool),
	}
}

// register turns the condition set for a facet into subscriptions, in
// rendered field order, and hooks the facet to every leaf's value changes.
// Unknown names and nil predicates are skipped with a warning, or rejected
// in strict mode.
func (e *engine) register(conds Conditions, facet Facet, strict bool) error {
	if conds == nil {
		return nil
	}
	unknown := make([]string, 0)
	for name, p := range conds {
		if _, ok := e.flat.get(name); !ok {
			unknown = append(unknown, name)
			continue
		}
		if p == nil {
			if strict {
				return fmt.Errorf("%s condition for %s: %w", facet, name, ErrNilPredicate)
			}
			e.logger.Printf("Warning: %s condition for %s is not a function", facet, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		if strict {
			return fmt.Errorf("%s condition: %w: %s", facet, ErrUnknownField, name)
		}
		e.logger.Printf("Warning: %s condition for %s: not a field of the form", facet, name)
	}

	subs := make([]subscription, 0, len(conds))
	e.flat.each(func(c *Control) {
		if p, ok := conds[c.Name]; ok && p != nil {
			subs = append(subs, subscription{control: c, predicate: p})
		}
	})
	e.subs[facet] = subs

	// Any predicate may read any value, so every leaf triggers the facet.
	e.flat.each(func(c *Control) {
		cancel := c.Subscribe(func(_, _ interface{}) {
			e.pending[facet] = true
			e.flush()
		})
		e.cancels = append(e.cancels, cancel)
	})
	return nil
}

// reevaluate queues a facet pass and runs it unless a pass or a batch is
// already in progress, in which case the outer call runs it.
func (e *engine) reevaluate(facet Facet) {
	e.pending[facet] = true
	e.flush()
}

// batch holds facet passes until fn returns, then runs each pending facet
// once.
func (e *engine) batch(fn func()) {
	e.hold++
	defer func() {
		e.hold--
		e.flush()
	}()
	fn()
}

func (e *engine) flush() {
	if e.busy || e.hold > 0 {
		return
	}
	e.busy = true
	defer func() { e.busy = false }()

	for passes := 0; ; passes++ {
		facet, ok := e.nextPending()
		if !ok {
			return
		}
		if passes >= maxPasses {
			e.logger.Printf("Warning: conditions did not settle after %d passes; stopping", maxPasses)
			e.pending = make(map[Facet]bool)
			return
		}
		delete(e.pending, facet)
		e.evaluate(facet)
	}
}

func (e *engine) nextPending() (Facet, bool) {
	for _, facet := range facetOrder {
		if e.pending[facet] {
			return facet, true
		}
	}
	return "", false
}

// evaluate runs every predicate of the facet against a fresh snapshot.  A
// failing predicate leaves its field unchanged and does not stop the pass.
func (e *engine) evaluate(facet Facet) {
	start := time.Now()
	snapshot := e.snapshot()
	for _, sub := range e.subs[facet] {
		result, err := callPredicate(sub.predicate, snapshot.copy())
		if err != nil {
			e.logger.Printf("Error updating %s state for %s: %v", facet, sub.control.Label, err)
			e.observer.PredicateFault(facet, sub.control.Name)
			continue
		}
		apply(facet, sub.control, result)
	}
	e.observer.Reevaluated(facet, time.Since(start))
}

func apply(facet Facet, c *Control, result bool) {
	switch facet {
	case FacetDisable:
		c.setDisabled(result)
	case FacetHide:
		c.setHidden(result)
	case FacetCheck:
		c.setInvalid(!result)
	}
}

// snapshot collects the current value of every leaf that has one.
func (e *engine) snapshot() Values {
	values := make(Values, len(e.flat.order))
	e.flat.each(func(c *Control) {
		if c.Kind.HasValue() {
			values[c.Name] = c.Value()
		}
	})
	return values
}

func (e *engine) predicate(facet Facet, c *Control) (Predicate, bool) {
	for _, sub := range e.subs[facet] {
		if sub.control == c {
			return sub.predicate, true
		}
	}
	return nil, false
}

func (e *engine) close() {
	for _, cancel := range e.cancels {
		cancel()
	}
	e.cancels = nil
}

func (v Values) copy() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// callPredicate runs p, converting a panic into an error.
func callPredicate(p Predicate, v Values) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = fmt.Errorf("%T: %w", r, rerr)
			} else {
				err = fmt.Errorf("%T: %v", r, r)
			}
		}
	}()
	return p(v), nil
}
