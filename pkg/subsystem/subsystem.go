package subsystem

import (
	"github.com/standalonetc/teleop/pkg/link"
	"github.com/standalonetc/teleop/pkg/robot"
	"github.com/standalonetc/teleop/pkg/scope"
	"github.com/standalonetc/teleop/pkg/statemachine"
)

// Group names of the Unicorn bundle.
const (
	ChassisGroup   = "chassis"
	DumperGroup    = "dumper"
	DustpanGroup   = "dustpan"
	ExpanderGroup  = "expander"
	LifterGroup    = "lifter"
	CollectorGroup = "collector"
)

// Config tunes the subsystems.
type Config struct {
	// ExpanderPower is the matrix motor power while expanding or shrinking.
	ExpanderPower float64 `yaml:"expander_power"`

	// ArmPower is the collector arm power while lifting or dropping.
	ArmPower float64 `yaml:"arm_power"`

	// CorePower is the collector core power while collecting or spitting.
	CorePower float64 `yaml:"core_power"`

	// LifterPower is the lifter motor power while lifting or landing.
	LifterPower float64 `yaml:"lifter_power"`

	// StrokeTicks is the number of ticks a servo holds each half of a
	// push or dump stroke.
	StrokeTicks int `yaml:"stroke_ticks"`

	// SadAreaStart and SadAreaEnd bound, in encoder revolutions, the
	// stretch of the dumper arm that needs the boosted power.
	SadAreaStart float64 `yaml:"sad_area_start"`
	SadAreaEnd   float64 `yaml:"sad_area_end"`
}

// DefaultConfig returns the tuning used on the competition robot.
func DefaultConfig() Config {
	return Config{
		ExpanderPower: 1.0,
		ArmPower:      0.6,
		CorePower:     1.0,
		LifterPower:   1.0,
		StrokeTicks:   15,
		SadAreaStart:  0.15,
		SadAreaEnd:    0.35,
	}
}

// Option configures a subsystem.
type Option func(*base)

// WithLinkOptions passes opts to every Link the subsystem creates, e.g. a
// shared fault handler.
func WithLinkOptions(opts ...link.Option) Option {
	return func(b *base) { b.linkOpts = append(b.linkOpts, opts...) }
}

// Subsystem is the common surface of all subsystems.
type Subsystem interface {
	Name() string
	Dependencies() []string
	// Machines returns the state machines to observe for transitions.
	Machines() []statemachine.Observable
}

type claimer interface {
	Claim(owner string) error
}

// base holds the Component bookkeeping shared by every subsystem.
type base struct {
	name     string
	deps     []string
	links    *link.Group
	linkOpts []link.Option
}

func newBase(name string, opts []Option, parts ...robot.Part) base {
	b := base{name: name, links: link.NewGroup()}
	for _, p := range parts {
		b.deps = append(b.deps, p.Name())
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) Name() string { return b.name }

func (b *base) Dependencies() []string {
	return append([]string(nil), b.deps...)
}

// Links returns the live Links created by Init.
func (b *base) Links() *link.Group { return b.links }

func (b *base) claim(devices ...claimer) error {
	for _, d := range devices {
		if err := d.Claim(b.name); err != nil {
			return err
		}
	}
	return nil
}

// opts returns the Link options for the Link labelled label.
func (b *base) opts(label string) []link.Option {
	opts := make([]link.Option, 0, len(b.linkOpts)+1)
	opts = append(opts, link.WithName(b.name+"."+label))
	return append(opts, b.linkOpts...)
}

func (b *base) track(l *link.Link) {
	b.links.Track(l)
}

func (b *base) disposeLinks() {
	b.links.DisposeAll()
}

// powerOf returns the signed power for a three-way state.
func powerOf[S comparable](s, forward, backward S, power float64) float64 {
	switch s {
	case forward:
		return power
	case backward:
		return -power
	default:
		return 0
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Subsystem         = (*Expander)(nil)
	_ Subsystem         = (*Collector)(nil)
	_ Subsystem         = (*Dumper)(nil)
	_ Subsystem         = (*Dustpan)(nil)
	_ Subsystem         = (*Lifter)(nil)
	_ Subsystem         = (*MecanumChassis)(nil)
	_ scope.Initializer = (*Expander)(nil)
	_ scope.Stopper     = (*Collector)(nil)
	_ scope.Ticker      = (*Dumper)(nil)
	_ scope.Ticker      = (*Dustpan)(nil)
	_ scope.Dependent   = (*Lifter)(nil)
	_ scope.Initializer = (*MecanumChassis)(nil)
)
