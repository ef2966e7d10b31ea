// Package scope orders the lifecycle of stateful subsystems.
//
// A Component is a named subsystem that may declare the names of other
// Components it depends on. A DynamicScope is an open registry of
// Components: Setup validates the declaration immediately, InitAll calls
// Init in an order consistent with the dependency partial order (ties
// broken by registration order), and StopAll calls Stop in the exact
// reverse of that order.
//
// Each test can build its own DynamicScope; there is no package-level
// registry.
package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Component is a named stateful subsystem.
type Component interface {
	Name() string
}

// Dependent is implemented by Components that require others.
type Dependent interface {
	Component
	Dependencies() []string
}

// Initializer is implemented by Components that need setup at start.
type Initializer interface {
	Component
	Init(ctx context.Context) error
}

// Stopper is implemented by Components that must release resources.
type Stopper interface {
	Component
	Stop() error
}

// Ticker is implemented by Components that advance once per control tick.
type Ticker interface {
	Component
	Tick(now time.Time)
}

// FaultHandler is called when a Ticker panics. faults counts the
// contained faults of c so far.
type FaultHandler func(c Component, faults uint64, err error)

// Option configures a DynamicScope.
type Option func(*DynamicScope)

// WithFaultHandler overrides the default tick fault handler, which logs
// through slog.Default.
func WithFaultHandler(h FaultHandler) Option {
	return func(s *DynamicScope) { s.onFault = h }
}

// DynamicScope is the dependency-ordered registry of Components.
type DynamicScope struct {
	mu sync.RWMutex

	// registration order
	components []Component
	byName     map[string]Component
	deps       map[string][]string

	// order used by InitAll, nil until then
	initOrder   []Component
	initialized bool

	onFault FaultHandler
	faults  map[string]uint64
}

// New creates an empty DynamicScope.
func New(opts ...Option) *DynamicScope {
	s := &DynamicScope{
		byName:  make(map[string]Component),
		deps:    make(map[string][]string),
		faults:  make(map[string]uint64),
		onFault: defaultFaultHandler,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultFaultHandler(c Component, faults uint64, err error) {
	slog.Default().Error("tick fault contained", "component", c.Name(), "faults", faults, "error", err)
}

// Setup registers c. Every declared dependency must already be set up.
// Dependencies is read once, here; since every dependency precedes c, no
// later Setup can close a cycle through it.
func (s *DynamicScope) Setup(c Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return ErrAlreadyInitialized
	}

	name := c.Name()
	if _, exists := s.byName[name]; exists {
		return &DuplicateComponentError{Component: name}
	}

	deps := dependenciesOf(c)
	for _, dep := range deps {
		if dep == name {
			return &CyclicDependencyError{Cycle: []string{name, name}}
		}
		if _, ok := s.byName[dep]; !ok {
			return &MissingDependencyError{Component: name, Dependency: dep}
		}
	}

	s.byName[name] = c
	s.deps[name] = deps
	s.components = append(s.components, c)
	return nil
}

// MustSetup registers c and panics on a configuration error.
func (s *DynamicScope) MustSetup(c Component) {
	if err := s.Setup(c); err != nil {
		panic(err)
	}
}

// Lookup returns the Component registered under name.
func (s *DynamicScope) Lookup(name string) (Component, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byName[name]
	return c, ok
}

// Find returns the Component registered under name as a T.
func Find[T Component](s *DynamicScope, name string) (T, bool) {
	c, ok := s.Lookup(name)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}

// Len returns the number of registered Components.
func (s *DynamicScope) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.components)
}

// Components returns the Components in init order once InitAll has run,
// registration order before.
func (s *DynamicScope) Components() []Component {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.components
	if s.initOrder != nil {
		src = s.initOrder
	}
	result := make([]Component, len(src))
	copy(result, src)
	return result
}

// Order returns a topological order of the registered Components.
func (s *DynamicScope) Order() ([]Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order()
}

// InitAll calls Init on every Component exactly once, dependencies first.
// If an Init fails, the Components already initialized are stopped in
// reverse order and the Init error is returned joined with any Stop errors.
func (s *DynamicScope) InitAll(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	order, err := s.order()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.initialized = true
	s.mu.Unlock()

	done := make([]Component, 0, len(order))
	for _, c := range order {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, stopReverse(done))
		}
		if in, ok := c.(Initializer); ok {
			if err := in.Init(ctx); err != nil {
				initErr := &LifecycleError{Component: c.Name(), Phase: "init", Err: err}
				return errors.Join(initErr, stopReverse(done))
			}
		}
		done = append(done, c)
	}

	s.mu.Lock()
	s.initOrder = done
	s.mu.Unlock()
	return nil
}

// StopAll calls Stop in the exact reverse of the init order. Every
// Component is stopped even if some fail; the errors are joined.
func (s *DynamicScope) StopAll() error {
	s.mu.Lock()
	order := s.initOrder
	s.initOrder = nil
	s.mu.Unlock()

	return stopReverse(order)
}

// TickAll advances every Ticker in init order. A panicking Ticker is
// reported to the FaultHandler and keeps its last state; the remaining
// Tickers still tick.
func (s *DynamicScope) TickAll(now time.Time) {
	for _, c := range s.Components() {
		if t, ok := c.(Ticker); ok {
			if err := tick(t, now); err != nil {
				s.fault(c, err)
			}
		}
	}
}

// Faults returns the number of contained tick faults of the named
// Component.
func (s *DynamicScope) Faults(name string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.faults[name]
}

func tick(t Ticker, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrTickPanic, t.Name(), r)
		}
	}()
	t.Tick(now)
	return nil
}

func (s *DynamicScope) fault(c Component, err error) {
	s.mu.Lock()
	s.faults[c.Name()]++
	n := s.faults[c.Name()]
	s.mu.Unlock()

	s.onFault(c, n, err)
}

func stopReverse(order []Component) error {
	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		st, ok := order[i].(Stopper)
		if !ok {
			continue
		}
		if err := st.Stop(); err != nil {
			errs = append(errs, &LifecycleError{Component: order[i].Name(), Phase: "stop", Err: err})
		}
	}
	return errors.Join(errs...)
}

func dependenciesOf(c Component) []string {
	if d, ok := c.(Dependent); ok {
		return d.Dependencies()
	}
	return nil
}

// order computes a topological order with Kahn's algorithm, picking the
// earliest registered ready Component at every step.
func (s *DynamicScope) order() ([]Component, error) {
	index := make(map[string]int, len(s.components))
	for i, c := range s.components {
		index[c.Name()] = i
	}

	pending := make([]int, len(s.components))
	dependents := make([][]int, len(s.components))
	for i, c := range s.components {
		for _, dep := range s.deps[c.Name()] {
			j, ok := index[dep]
			if !ok {
				return nil, &MissingDependencyError{Component: c.Name(), Dependency: dep}
			}
			pending[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	result := make([]Component, 0, len(s.components))
	placed := make([]bool, len(s.components))
	for len(result) < len(s.components) {
		next := -1
		for i := range s.components {
			if !placed[i] && pending[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, &CyclicDependencyError{Cycle: s.unplaced(placed)}
		}
		placed[next] = true
		result = append(result, s.components[next])
		for _, d := range dependents[next] {
			pending[d]--
		}
	}
	return result, nil
}

// unplaced names the Components left over by an incomplete sort.
func (s *DynamicScope) unplaced(placed []bool) []string {
	var names []string
	for i, c := range s.components {
		if !placed[i] {
			names = append(names, c.Name())
		}
	}
	return names
}
