package log

import (
	"errors"
	"testing"
	"time"
)

// mockLogger records events for testing.
type mockLogger struct {
	events []Event
}

func (m *mockLogger) Log(event Event) {
	m.events = append(m.events, event)
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Log(Event{RunID: "x"})

	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) must return NoopLogger")
	}
	m := &mockLogger{}
	if OrNoop(m) != Logger(m) {
		t.Error("OrNoop must keep a non-nil logger")
	}
}

func TestMultiLoggerCallsAll(t *testing.T) {
	mock1 := &mockLogger{}
	mock2 := &mockLogger{}

	multi := NewMultiLogger(mock1, nil, mock2)
	multi.Log(Event{RunID: "run-1", Category: CategoryState})

	for i, mock := range []*mockLogger{mock1, mock2} {
		if len(mock.events) != 1 {
			t.Errorf("logger %d: got %d events, want 1", i, len(mock.events))
			continue
		}
		if mock.events[0].RunID != "run-1" {
			t.Errorf("logger %d: RunID = %q", i, mock.events[0].RunID)
		}
	}
}

func TestRecorderStamps(t *testing.T) {
	mock := &mockLogger{}
	r := NewRecorder(mock, "run-7")
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	r.Lifecycle("RemoteControl", PhaseStart, nil)
	r.StateChange("lifter", "Stop", "Lifting")
	r.Resolution(3, "dumper.am", "encoder", errors.New("not found"))
	r.Fault(LayerGraph, "link helper.up", errors.New("boom"), 2)
	r.Tick(TickEvent{Sequence: 1})

	if len(mock.events) != 5 {
		t.Fatalf("got %d events, want 5", len(mock.events))
	}
	for i, ev := range mock.events {
		if ev.RunID != "run-7" {
			t.Errorf("event %d: RunID = %q", i, ev.RunID)
		}
		if !ev.Timestamp.Equal(fixed) {
			t.Errorf("event %d: Timestamp = %v", i, ev.Timestamp)
		}
	}

	wantCategories := []Category{CategoryLifecycle, CategoryState, CategoryResolution, CategoryFault, CategoryTick}
	for i, want := range wantCategories {
		if got := mock.events[i].Category; got != want {
			t.Errorf("event %d: Category = %s, want %s", i, got, want)
		}
	}
	if res := mock.events[2].Resolution; res == nil || res.Found || res.Reason != "not found" {
		t.Errorf("unexpected resolution payload %+v", res)
	}
	if f := mock.events[3].Fault; f == nil || f.Count != 2 || f.Message != "boom" {
		t.Errorf("unexpected fault payload %+v", f)
	}
}

func TestRecorderGeneratesRunID(t *testing.T) {
	a := NewRecorder(nil, "")
	b := NewRecorder(nil, "")
	if a.RunID() == "" || a.RunID() == b.RunID() {
		t.Errorf("expected distinct generated run IDs, got %q and %q", a.RunID(), b.RunID())
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Lifecycle("x", PhaseInit, nil)
	if r.RunID() != "" {
		t.Error("nil recorder must have an empty run ID")
	}
}
