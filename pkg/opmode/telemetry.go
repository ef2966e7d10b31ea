package opmode

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/standalonetc/teleop/pkg/opmode")
var meter = otel.Meter("github.com/standalonetc/teleop/pkg/opmode")

const (
	// opModeName is the attribute key carrying the op-mode name.
	opModeName = "opmode"

	// linkName is the attribute key carrying the faulting Link.
	linkName = "link"

	// componentName is the attribute key carrying the faulting Ticker.
	componentName = "component"
)

var (
	// tickDuration measures one control tick, from sampling to the last
	// telemetry push.
	tickDuration metric.Float64Histogram

	// linkFaults counts faults contained by Links.
	linkFaults metric.Int64Counter

	// tickFaults counts panics contained while ticking a component.
	tickFaults metric.Int64Counter

	// telemetryDrops counts packets discarded by a full telemetry queue.
	telemetryDrops metric.Int64Counter
)

func init() {
	var err error
	tickDuration, err = meter.Float64Histogram(
		"opmode.tick.duration",
		metric.WithDescription("The duration of one control tick."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic(fmt.Sprintf("opmode: failed to init 'opmode.tick.duration' instrument: %v", err))
	}

	linkFaults, err = meter.Int64Counter(
		"opmode.link.faults",
		metric.WithDescription("The number of faults contained by links."),
	)
	if err != nil {
		panic(fmt.Sprintf("opmode: failed to init 'opmode.link.faults' instrument: %v", err))
	}

	tickFaults, err = meter.Int64Counter(
		"opmode.tick.faults",
		metric.WithDescription("The number of faults contained while ticking components."),
	)
	if err != nil {
		panic(fmt.Sprintf("opmode: failed to init 'opmode.tick.faults' instrument: %v", err))
	}

	telemetryDrops, err = meter.Int64Counter(
		"opmode.telemetry.dropped",
		metric.WithDescription("The number of telemetry packets dropped by a full queue."),
	)
	if err != nil {
		panic(fmt.Sprintf("opmode: failed to init 'opmode.telemetry.dropped' instrument: %v", err))
	}
}

func measureTick(ctx context.Context, attrs attribute.Set, d time.Duration) {
	tickDuration.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributeSet(attrs))
}

func measureLinkFault(ctx context.Context, opMode, link string) {
	attrs := attribute.NewSet(attribute.String(opModeName, opMode), attribute.String(linkName, link))
	linkFaults.Add(ctx, 1, metric.WithAttributeSet(attrs))
}

func measureTickFault(ctx context.Context, opMode, component string) {
	attrs := attribute.NewSet(attribute.String(opModeName, opMode), attribute.String(componentName, component))
	tickFaults.Add(ctx, 1, metric.WithAttributeSet(attrs))
}

func measureDrops(ctx context.Context, attrs attribute.Set, n uint64) {
	if n == 0 {
		return
	}
	telemetryDrops.Add(ctx, int64(n), metric.WithAttributeSet(attrs))
}
