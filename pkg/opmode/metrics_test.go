package opmode

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/standalonetc/teleop/pkg/device"
	"github.com/standalonetc/teleop/pkg/gamepad"
	"github.com/standalonetc/teleop/pkg/link"
	"github.com/standalonetc/teleop/pkg/telemetry"
)

var reader *sdkmetric.ManualReader

func TestMain(m *testing.M) {
	reader = sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	code := m.Run()
	_ = provider.Shutdown(context.Background())
	os.Exit(code)
}

func collect(t *testing.T) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	result := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			result[m.Name] = m.Data
		}
	}
	return result
}

func sumFor(t *testing.T, data metricdata.Aggregation, attr, value string) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "unexpected aggregation %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(attr)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestMetricsRecorded(t *testing.T) {
	cfg := testOpModeConfig()
	cfg.Name = "MetricsRun"
	cfg.Telemetry.Capacity = 4
	cfg.Telemetry.Policy = telemetry.DropOldest
	f := newFixture(t, cfg)
	f.start(t)

	trip := device.New("trip", false)
	l := link.Map(trip, func(bool) int { panic("boom") }).
		Into(link.SinkFunc[int](func(int) {}), f.op.linkOptions("metrics.trip")...)
	defer l.Dispose()
	trip.Update(true)

	for i := 0; i < 3; i++ {
		f.loop(t, gamepad.Data{}, gamepad.Data{})
	}

	got := collect(t)

	hist, ok := got["opmode.tick.duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var ticks uint64
	for _, dp := range hist.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(opModeName)); ok && v.AsString() == "MetricsRun" {
			ticks += dp.Count
		}
	}
	assert.Equal(t, uint64(3), ticks)

	assert.Equal(t, int64(1), sumFor(t, got["opmode.link.faults"], linkName, "metrics.trip"))

	// Every packet beyond the capacity of 4 was dropped.
	dropped := sumFor(t, got["opmode.telemetry.dropped"], opModeName, "MetricsRun")
	assert.Equal(t, int64(f.op.Queue().Dropped()), dropped)
	assert.Positive(t, dropped)
}
