package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger, for watching a run on the
// console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger. Faults and failed resolutions
// are logged at Warn level, everything else at Debug.
func (a *SlogAdapter) Log(event Event) {
	level := slog.LevelDebug
	attrs := []slog.Attr{
		slog.String("run_id", event.RunID),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Component != "" {
		attrs = append(attrs, slog.String("component", event.Component))
	}

	switch {
	case event.Lifecycle != nil:
		attrs = append(attrs,
			slog.String("opmode", event.Lifecycle.OpMode),
			slog.String("phase", event.Lifecycle.Phase.String()),
		)
		if event.Lifecycle.Error != "" {
			level = slog.LevelWarn
			attrs = append(attrs, slog.String("error", event.Lifecycle.Error))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
	case event.Resolution != nil:
		attrs = append(attrs,
			slog.Uint64("device_id", uint64(event.Resolution.DeviceID)),
			slog.String("path", event.Resolution.Path),
			slog.String("kind", event.Resolution.Kind),
			slog.Bool("found", event.Resolution.Found),
		)
		if !event.Resolution.Found {
			level = slog.LevelWarn
			attrs = append(attrs, slog.String("reason", event.Resolution.Reason))
		}
	case event.Fault != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error", event.Fault.Message),
			slog.Uint64("count", event.Fault.Count),
		)
	case event.Tick != nil:
		attrs = append(attrs,
			slog.Uint64("seq", event.Tick.Sequence),
			slog.Duration("duration", event.Tick.Duration),
			slog.Uint64("faults", event.Tick.Faults),
			slog.Uint64("dropped", event.Tick.Dropped),
		)
	}

	a.logger.LogAttrs(context.Background(), level, "event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
