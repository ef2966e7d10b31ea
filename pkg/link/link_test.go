package link

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standalonetc/teleop/pkg/device"
)

func TestLinkNegate(t *testing.T) {
	a := device.New("A", 0.0)
	b := device.New("B", 0.0)

	New[float64, float64](a, func(x float64) float64 { return x * -1 }, b)

	a.Update(0.7)
	assert.Equal(t, -0.7, b.Read())
}

func TestLinkDisposeStopsPropagation(t *testing.T) {
	a := device.New("A", 0.0)
	b := device.New("B", 0.0)

	l := Map[float64](a, func(x float64) float64 { return x * 2 }).Into(b)
	a.Update(1)
	require.Equal(t, 2.0, b.Read())

	l.Dispose()
	assert.False(t, l.Active())

	a.Update(5)
	a.Update(6)
	assert.Equal(t, 2.0, b.Read(), "disposed link must not propagate")
	assert.Equal(t, 0, a.SubscriberCount())

	// Dispose is permanent and idempotent.
	l.Dispose()
	assert.False(t, l.Active())
}

func TestLinksSharingSourceSeeSameValue(t *testing.T) {
	a := device.New("A", 0)
	var seen []int

	Direct[int](a).Do(func(v int) { seen = append(seen, v) })
	Direct[int](a).Do(func(v int) { seen = append(seen, v*10) })

	a.Update(3)
	assert.Equal(t, []int{3, 30}, seen)
}

func TestFanInLastWriteWins(t *testing.T) {
	a := device.New("A", 0.0)
	b := device.New("B", 0.0)
	out := device.New("out", 0.0)

	Direct[float64](a).Into(out)
	Direct[float64](b).Into(out)

	a.Update(1)
	b.Update(2)
	assert.Equal(t, 2.0, out.Read())
}

func TestLinkDeliversInSourceOrder(t *testing.T) {
	a := device.New("A", 0)
	var got []int
	Direct[int](a).Do(func(v int) { got = append(got, v) })

	for i := 1; i <= 5; i++ {
		a.Update(i)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestLinkFaultContainment(t *testing.T) {
	a := device.New("A", 0)
	bad := device.New("bad", 0)
	good := device.New("good", 0)

	var faults []error
	handler := func(l *Link, err error) { faults = append(faults, err) }

	faulty := Map[int](a, func(v int) int {
		if v == 2 {
			panic("boom")
		}
		return v
	}).Into(bad, WithName("faulty"), WithFaultHandler(handler))
	Direct[int](a).Into(good)

	a.Update(1)
	a.Update(2)

	require.Len(t, faults, 1)
	assert.ErrorIs(t, faults[0], ErrPanic)
	assert.Equal(t, 1, bad.Read(), "sink holds last good value")
	assert.Equal(t, 2, good.Read(), "unrelated link keeps running")
	assert.Equal(t, uint64(1), faulty.Faults())
	assert.True(t, faulty.Active())

	a.Update(3)
	assert.Equal(t, 3, bad.Read())
}

func TestTryMapErrorIsContained(t *testing.T) {
	a := device.New("A", "")
	out := device.New("out", 0)
	errBad := errors.New("not a number")

	var got error
	TryMap[string](a, func(s string) (int, error) {
		if s == "x" {
			return 0, errBad
		}
		return len(s), nil
	}).Into(out, WithFaultHandler(func(_ *Link, err error) { got = err }))

	a.Update("abc")
	a.Update("x")

	assert.Equal(t, 3, out.Read())
	assert.ErrorIs(t, got, errBad)
}

func TestGroupDisposeAll(t *testing.T) {
	a := device.New("A", 0)
	b := device.New("B", 0)
	g := NewGroup()

	l1 := g.Track(Direct[int](a).Into(b))
	l2 := g.Track(Map[int](a, func(v int) int { return v + 1 }).Do(func(int) {}))
	require.Equal(t, 2, g.Len())

	g.DisposeAll()

	assert.False(t, l1.Active())
	assert.False(t, l2.Active())
	assert.Equal(t, 0, g.Len())

	a.Update(9)
	assert.Equal(t, 0, b.Read())
}
