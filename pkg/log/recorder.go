package log

import (
	"time"

	"github.com/google/uuid"
)

// Recorder stamps events with the time and a run ID before passing them
// to a Logger. A nil *Recorder discards everything.
type Recorder struct {
	logger Logger
	runID  string
	now    func() time.Time
}

// NewRecorder creates a Recorder for one run. An empty runID is replaced
// by a random UUID.
func NewRecorder(logger Logger, runID string) *Recorder {
	if runID == "" {
		runID = uuid.New().String()
	}
	return &Recorder{
		logger: OrNoop(logger),
		runID:  runID,
		now:    time.Now,
	}
}

// RunID returns the run ID stamped on every event.
func (r *Recorder) RunID() string {
	if r == nil {
		return ""
	}
	return r.runID
}

// Log stamps and records event. Fields already set are kept.
func (r *Recorder) Log(event Event) {
	if r == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now()
	}
	if event.RunID == "" {
		event.RunID = r.runID
	}
	r.logger.Log(event)
}

// Lifecycle records an op-mode phase change. err may be nil.
func (r *Recorder) Lifecycle(opMode string, phase Phase, err error) {
	ev := &LifecycleEvent{OpMode: opMode, Phase: phase}
	if err != nil {
		ev.Error = err.Error()
	}
	r.Log(Event{Layer: LayerOpMode, Category: CategoryLifecycle, Component: opMode, Lifecycle: ev})
}

// StateChange records an actuator state transition.
func (r *Recorder) StateChange(component, oldState, newState string) {
	r.Log(Event{
		Layer:       LayerGraph,
		Category:    CategoryState,
		Component:   component,
		StateChange: &StateChangeEvent{OldState: oldState, NewState: newState},
	})
}

// Resolution records a hardware lookup. reason is nil on success.
func (r *Recorder) Resolution(id uint8, path, kind string, reason error) {
	ev := &ResolutionEvent{DeviceID: id, Path: path, Kind: kind, Found: reason == nil}
	if reason != nil {
		ev.Reason = reason.Error()
	}
	r.Log(Event{Layer: LayerHardware, Category: CategoryResolution, Component: path, Resolution: ev})
}

// Fault records a contained fault.
func (r *Recorder) Fault(layer Layer, component string, err error, count uint64) {
	r.Log(Event{
		Layer:     layer,
		Category:  CategoryFault,
		Component: component,
		Fault:     &FaultEvent{Message: err.Error(), Count: count},
	})
}

// Tick records a tick summary.
func (r *Recorder) Tick(ev TickEvent) {
	r.Log(Event{Layer: LayerOpMode, Category: CategoryTick, Tick: &ev})
}

// Compile-time interface satisfaction check.
var _ Logger = (*Recorder)(nil)
