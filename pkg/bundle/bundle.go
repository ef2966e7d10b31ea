package bundle

import (
	"errors"
	"fmt"
	"math"
)

// MaxEntries is the number of identifiers available; identifiers are single
// bytes on the wire.
const MaxEntries = math.MaxUint8 + 1

// Bundle errors.
var (
	// ErrConfiguration is matched by every declaration error.
	ErrConfiguration = errors.New("bundle configuration error")

	// ErrTooManyEntries is returned when more than MaxEntries are declared.
	ErrTooManyEntries = fmt.Errorf("%w: more than %d entries", ErrConfiguration, MaxEntries)

	// ErrEmptyName is returned for entries declared without a name.
	ErrEmptyName = fmt.Errorf("%w: empty device name", ErrConfiguration)
)

// DuplicateEntryError reports a (group, name, kind) declared twice.
type DuplicateEntryError struct {
	Group string
	Name  string
	Kind  Kind
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("duplicate %s %q in group %q", e.Kind, e.Name, e.Group)
}

// Is matches ErrConfiguration.
func (e *DuplicateEntryError) Is(target error) bool {
	return target == ErrConfiguration
}

// Entry is one declared device.
type Entry struct {
	// ID is assigned in declaration order from a bundle-wide counter.
	ID    uint8
	Group string
	Name  string
	Spec  Spec
}

// Kind returns the kind of the entry's spec.
func (e Entry) Kind() Kind {
	return e.Spec.Kind()
}

// Path returns the hierarchical name, e.g. "chassis.LF". This is the name
// the hardware map is queried with.
func (e Entry) Path() string {
	if e.Group == "" {
		return e.Name
	}
	return e.Group + "." + e.Name
}

// Key returns a name unique within the bundle, e.g. "dumper.am/encoder".
func (e Entry) Key() string {
	return e.Path() + "/" + e.Kind().String()
}

// Accept dispatches the entry to the Visitor method matching its kind.
func (e Entry) Accept(v Visitor) {
	e.Spec.accept(e, v)
}

type entryKey struct {
	group string
	name  string
	kind  Kind
}

// Bundle is the declarative builder of device entries.
//
//	b := bundle.New()
//	b.Group("chassis", func(g *bundle.Group) {
//	    g.Motor("LF", bundle.Reversed)
//	    g.Motor("RF")
//	})
//	mapping, err := b.Build()
type Bundle struct {
	entries []Entry
	keys    map[entryKey]struct{}
	errs    []error
}

// New creates an empty Bundle.
func New() *Bundle {
	return &Bundle{keys: make(map[entryKey]struct{})}
}

// Group declares the entries added by fn under the group name.
func (b *Bundle) Group(name string, fn func(g *Group)) *Bundle {
	fn(&Group{bundle: b, name: name})
	return b
}

// Len returns the number of entries declared so far.
func (b *Bundle) Len() int {
	return len(b.entries)
}

func (b *Bundle) declare(group, name string, spec Spec) {
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("group %q: %w", group, ErrEmptyName))
		return
	}
	key := entryKey{group: group, name: name, kind: spec.Kind()}
	if _, exists := b.keys[key]; exists {
		b.errs = append(b.errs, &DuplicateEntryError{Group: group, Name: name, Kind: spec.Kind()})
		return
	}
	b.keys[key] = struct{}{}
	b.entries = append(b.entries, Entry{
		ID:    uint8(len(b.entries)), // wraps past MaxEntries; Build rejects that
		Group: group,
		Name:  name,
		Spec:  spec,
	})
}

// Build finalizes the declarations into a Mapping. Declaration errors are
// reported here, joined.
func (b *Bundle) Build() (*Mapping, error) {
	errs := append([]error(nil), b.errs...)
	if len(b.entries) > MaxEntries {
		errs = append(errs, ErrTooManyEntries)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return newMapping(b.entries), nil
}

// MustBuild is like Build but panics on error. For static declarations.
func (b *Bundle) MustBuild() *Mapping {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

// Group declares typed entries within one named group.
type Group struct {
	bundle *Bundle
	name   string
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.name
}

// Motor declares a DC motor. The direction defaults to Forward.
func (g *Group) Motor(name string, direction ...Direction) {
	d := Forward
	if len(direction) > 0 {
		d = direction[0]
	}
	g.bundle.declare(g.name, name, MotorSpec{Direction: d})
}

// Servo declares a positional servo. The range defaults to DefaultServoRange.
func (g *Group) Servo(name string, r ...Range) {
	rng := DefaultServoRange
	if len(r) > 0 {
		rng = r[0]
	}
	g.bundle.declare(g.name, name, ServoSpec{Range: rng})
}

// ContinuousServo declares a continuous-rotation servo.
func (g *Group) ContinuousServo(name string) {
	g.bundle.declare(g.name, name, ContinuousServoSpec{})
}

// Encoder declares an encoder with the given counts per revolution.
func (g *Group) Encoder(name string, cpr float64) {
	g.bundle.declare(g.name, name, EncoderSpec{CountsPerRevolution: cpr})
}

// ColorSensor declares a color sensor.
func (g *Group) ColorSensor(name string) {
	g.bundle.declare(g.name, name, ColorSensorSpec{})
}

// TouchSensor declares a touch sensor.
func (g *Group) TouchSensor(name string) {
	g.bundle.declare(g.name, name, TouchSensorSpec{})
}
