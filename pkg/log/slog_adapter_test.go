package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func logJSON(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterResolutionFailureIsWarn(t *testing.T) {
	entry := logJSON(t, Event{
		Timestamp: time.Now(),
		RunID:     "run-1",
		Layer:     LayerHardware,
		Category:  CategoryResolution,
		Component: "lifter.touch",
		Resolution: &ResolutionEvent{
			DeviceID: 9,
			Path:     "lifter.touch",
			Kind:     "touch-sensor",
			Reason:   "not found",
		},
	})

	if entry["level"] != "WARN" {
		t.Errorf("level: got %v, want WARN", entry["level"])
	}
	if entry["path"] != "lifter.touch" {
		t.Errorf("path: got %v", entry["path"])
	}
	if entry["reason"] != "not found" {
		t.Errorf("reason: got %v", entry["reason"])
	}
	if entry["device_id"] != float64(9) {
		t.Errorf("device_id: got %v", entry["device_id"])
	}
}

func TestSlogAdapterStateChange(t *testing.T) {
	entry := logJSON(t, Event{
		RunID:       "run-1",
		Layer:       LayerGraph,
		Category:    CategoryState,
		Component:   "expander",
		StateChange: &StateChangeEvent{OldState: "Stop", NewState: "Expanding"},
	})

	if entry["level"] != "DEBUG" {
		t.Errorf("level: got %v, want DEBUG", entry["level"])
	}
	if entry["layer"] != "GRAPH" || entry["category"] != "STATE" {
		t.Errorf("layer/category: got %v/%v", entry["layer"], entry["category"])
	}
	if entry["new_state"] != "Expanding" || entry["old_state"] != "Stop" {
		t.Errorf("states: got %v -> %v", entry["old_state"], entry["new_state"])
	}
}

func TestSlogAdapterFaultAndTick(t *testing.T) {
	fault := logJSON(t, Event{Category: CategoryFault, Fault: &FaultEvent{Message: "boom", Count: 3}})
	if fault["level"] != "WARN" || fault["error"] != "boom" || fault["count"] != float64(3) {
		t.Errorf("unexpected fault entry %v", fault)
	}

	tick := logJSON(t, Event{Category: CategoryTick, Tick: &TickEvent{Sequence: 10, Dropped: 2}})
	if tick["seq"] != float64(10) || tick["dropped"] != float64(2) {
		t.Errorf("unexpected tick entry %v", tick)
	}
}

func TestSlogAdapterLifecycleError(t *testing.T) {
	entry := logJSON(t, Event{
		Category:  CategoryLifecycle,
		Lifecycle: &LifecycleEvent{OpMode: "RemoteControl", Phase: PhaseStart, Error: "missing dependency"},
	})
	if entry["level"] != "WARN" || entry["phase"] != "START" || entry["error"] != "missing dependency" {
		t.Errorf("unexpected lifecycle entry %v", entry)
	}
}
