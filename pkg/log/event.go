package log

import (
	"time"
)

// Event is one entry of the robot event log.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID identifies the op-mode run (UUID).
	RunID string `cbor:"2,keyasint"`

	// Layer that emitted the event.
	Layer Layer `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Component is the name of the component or device involved.
	Component string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Lifecycle   *LifecycleEvent   `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Resolution  *ResolutionEvent  `cbor:"12,keyasint,omitempty"`
	Fault       *FaultEvent       `cbor:"13,keyasint,omitempty"`
	Tick        *TickEvent        `cbor:"14,keyasint,omitempty"`
}

// Layer indicates which part of the runtime emitted the event.
type Layer uint8

const (
	// LayerOpMode is the op-mode runner.
	LayerOpMode Layer = 0
	// LayerGraph is the device graph: links, state machines, scope.
	LayerGraph Layer = 1
	// LayerHardware is the hardware binding.
	LayerHardware Layer = 2
	// LayerTelemetry is the telemetry output.
	LayerTelemetry Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerOpMode:
		return "OPMODE"
	case LayerGraph:
		return "GRAPH"
	case LayerHardware:
		return "HARDWARE"
	case LayerTelemetry:
		return "TELEMETRY"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryLifecycle indicates an op-mode phase change.
	CategoryLifecycle Category = 0
	// CategoryState indicates an actuator state change.
	CategoryState Category = 1
	// CategoryResolution indicates a hardware lookup result.
	CategoryResolution Category = 2
	// CategoryFault indicates a contained fault.
	CategoryFault Category = 3
	// CategoryTick indicates a periodic tick summary.
	CategoryTick Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryLifecycle:
		return "LIFECYCLE"
	case CategoryState:
		return "STATE"
	case CategoryResolution:
		return "RESOLUTION"
	case CategoryFault:
		return "FAULT"
	case CategoryTick:
		return "TICK"
	default:
		return "UNKNOWN"
	}
}

// Phase is an op-mode lifecycle phase.
type Phase uint8

const (
	PhaseInit  Phase = 0
	PhaseStart Phase = 1
	PhaseStop  Phase = 2
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "INIT"
	case PhaseStart:
		return "START"
	case PhaseStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// LifecycleEvent captures an op-mode phase change.
type LifecycleEvent struct {
	// OpMode is the name of the running op-mode.
	OpMode string `cbor:"1,keyasint"`

	// Phase entered.
	Phase Phase `cbor:"2,keyasint"`

	// Error is set when the phase failed.
	Error string `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures an actuator state transition.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`
}

// ResolutionEvent captures the lookup of one declared device on the
// hardware map.
type ResolutionEvent struct {
	// DeviceID is the bundle identifier.
	DeviceID uint8 `cbor:"1,keyasint"`

	// Path is the name the hardware map was queried with.
	Path string `cbor:"2,keyasint"`

	// Kind is the declared device kind.
	Kind string `cbor:"3,keyasint"`

	// Found reports whether the device resolved.
	Found bool `cbor:"4,keyasint"`

	// Reason explains a failed lookup.
	Reason string `cbor:"5,keyasint,omitempty"`
}

// FaultEvent captures a fault contained inside the graph.
type FaultEvent struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Count is the number of faults the source has contained so far.
	Count uint64 `cbor:"2,keyasint,omitempty"`
}

// TickEvent summarizes the control loop.
type TickEvent struct {
	// Sequence is the number of the tick.
	Sequence uint64 `cbor:"1,keyasint"`

	// Duration is the time spent evaluating the tick.
	// Stored as nanoseconds.
	Duration time.Duration `cbor:"2,keyasint"`

	// Faults is the total number of contained link faults.
	Faults uint64 `cbor:"3,keyasint,omitempty"`

	// Dropped is the total number of dropped telemetry tasks.
	Dropped uint64 `cbor:"4,keyasint,omitempty"`
}
