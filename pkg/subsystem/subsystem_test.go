package subsystem

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standalonetc/teleop/pkg/device"
	"github.com/standalonetc/teleop/pkg/robot"
	"github.com/standalonetc/teleop/pkg/scope"
)

// rig is a fully initialized Unicorn with every subsystem.
type rig struct {
	robot *robot.Robot
	scope *scope.DynamicScope
	set   *Set
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.StrokeTicks = 2
	return cfg
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := robot.New(Unicorn().MustBuild())
	set, err := NewSet(r, testConfig())
	require.NoError(t, err)

	sc := scope.New()
	require.NoError(t, r.Setup(sc))
	require.NoError(t, set.Setup(sc))
	require.NoError(t, sc.InitAll(context.Background()))
	t.Cleanup(func() { _ = sc.StopAll() })
	return &rig{robot: r, scope: sc, set: set}
}

func (r *rig) motor(t *testing.T, path string) *robot.Motor {
	t.Helper()
	m, err := r.robot.Motor(path)
	require.NoError(t, err)
	return m
}

func (r *rig) servo(t *testing.T, path string) *robot.Servo {
	t.Helper()
	s, err := r.robot.Servo(path)
	require.NoError(t, err)
	return s
}

func TestUnicornDeclaration(t *testing.T) {
	m := Unicorn().MustBuild()
	require.Equal(t, 14, m.Len())

	paths := make([]string, 0, m.Len())
	for _, d := range m.Descriptions() {
		paths = append(paths, d.Name)
	}
	assert.Equal(t, []string{
		"chassis.LF", "chassis.LB", "chassis.RF", "chassis.RB",
		"dumper.am", "dumper.am", "dumper.servo",
		"dustpan.servo",
		"expander.matrix", "expander.servo",
		"lifter.am", "lifter.touch",
		"collector.matrix", "collector.cr",
	}, paths)

	enc, err := robot.New(m).Encoder("dumper.am")
	require.NoError(t, err)
	assert.Equal(t, uint8(5), enc.Entry().ID)
	assert.Equal(t, float64(OmronEncoderCPR), enc.Spec.CountsPerRevolution)
}

func TestSubsystemsDependOnTheirParts(t *testing.T) {
	rg := newRig(t)
	assert.ElementsMatch(t, []string{"dumper.am/motor", "dumper.am/encoder", "dumper.servo/servo"},
		rg.set.Dumper.Dependencies())
	assert.ElementsMatch(t, []string{"lifter.am/motor", "lifter.touch/touch-sensor"},
		rg.set.Lifter.Dependencies())

	// Effectors are claimed by their subsystem.
	assert.Equal(t, ExpanderGroup, rg.motor(t, "expander.matrix").Power.Owner())
	assert.Equal(t, ChassisGroup, rg.motor(t, "chassis.RB").Power.Owner())
}

func TestExpanderLock(t *testing.T) {
	rg := newRig(t)
	e := rg.set.Expander
	power := rg.motor(t, "expander.matrix").Power
	latch := rg.servo(t, "expander.servo").Position

	require.True(t, e.State.Request(Expanding))
	assert.Equal(t, 1.0, power.Read())

	e.Lock.Update(true)
	assert.Equal(t, ExpanderStop, e.State.Read(), "engaging the lock stops the slide")
	assert.Equal(t, 0.0, power.Read())
	assert.Equal(t, math.Pi, latch.Read())

	assert.False(t, e.State.Request(Shrinking))
	assert.Equal(t, ExpanderStop, e.State.Read())

	e.Lock.Update(false)
	assert.Equal(t, 0.0, latch.Read())
	require.True(t, e.State.Request(Shrinking))
	assert.Equal(t, -1.0, power.Read())
}

func TestArmFromStick(t *testing.T) {
	tests := []struct {
		y    float64
		want ArmState
	}{
		{y: 0, want: ArmStop},
		{y: 0.5, want: ArmStop},
		{y: 0.51, want: Lifting},
		{y: -0.5, want: ArmStop},
		{y: -0.9, want: Dropping},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ArmFromStick(tt.y), "y=%v", tt.y)
	}
}

func TestCollectorDrivesBothActuators(t *testing.T) {
	rg := newRig(t)
	c := rg.set.Collector
	cr, err := rg.robot.ContinuousServo("collector.cr")
	require.NoError(t, err)
	arm := rg.motor(t, "collector.matrix").Power

	c.Core.Request(Collecting)
	assert.Equal(t, 1.0, cr.Power.Read())
	c.Core.Request(Spitting)
	assert.Equal(t, -1.0, cr.Power.Read())

	c.Arm.Request(Dropping)
	assert.InDelta(t, -0.6, arm.Read(), 1e-9)
	c.Arm.Request(ArmStop)
	assert.Equal(t, 0.0, arm.Read())
}

func TestDumperPushRodIgnoresRetrigger(t *testing.T) {
	rg := newRig(t)
	d := rg.set.Dumper
	rod := rg.servo(t, "dumper.servo").Position

	require.True(t, d.Push(1))
	assert.False(t, d.Push(1), "push while the rod is moving is dropped")

	var positions []float64
	for i := 0; i < 5; i++ {
		rg.scope.TickAll(testTime)
		positions = append(positions, rod.Read())
	}
	assert.Equal(t, []float64{math.Pi, math.Pi, 0, 0, 0}, positions)
	assert.False(t, d.Pushing())
	assert.True(t, d.Push(1))
}

func TestDumperLockEnable(t *testing.T) {
	rg := newRig(t)
	d := rg.set.Dumper
	rod := rg.servo(t, "dumper.servo").Position

	require.True(t, d.Push(2))
	rg.scope.TickAll(testTime)
	require.Equal(t, math.Pi, rod.Read())

	d.ToggleLock()
	assert.True(t, d.LockEnable.Read())
	assert.False(t, d.Pushing(), "locking retracts the rod")
	assert.Equal(t, 0.0, rod.Read())
	assert.False(t, d.Push(1))

	d.ToggleLock()
	assert.True(t, d.Push(1))
}

func TestDumperPowerAndSadArea(t *testing.T) {
	rg := newRig(t)
	d := rg.set.Dumper
	enc, err := rg.robot.Encoder("dumper.am")
	require.NoError(t, err)

	d.Power.Update(0.35)
	assert.Equal(t, 0.35, rg.motor(t, "dumper.am").Power.Read())
	d.Power.Update(3)
	assert.Equal(t, 1.0, rg.motor(t, "dumper.am").Power.Read())

	assert.False(t, d.InSadArea())
	enc.Data.Update(robot.EncoderData{Position: 0.25 * OmronEncoderCPR})
	assert.True(t, d.InSadArea())
	enc.Data.Update(robot.EncoderData{Position: 0.5 * OmronEncoderCPR})
	assert.False(t, d.InSadArea())
}

func TestDustpanQueuesDumps(t *testing.T) {
	rg := newRig(t)
	p := rg.set.Dustpan

	require.True(t, p.Dump(1))
	rg.scope.TickAll(testTime)
	require.True(t, p.Dump(1), "a dump mid-stroke is queued")

	ticks := 1
	for p.Dumping() {
		rg.scope.TickAll(testTime)
		ticks++
		require.Less(t, ticks, 100)
	}
	assert.Equal(t, 8, ticks)
	assert.Equal(t, 0.0, rg.servo(t, "dustpan.servo").Position.Read())
}

func TestLifterTouchLimit(t *testing.T) {
	rg := newRig(t)
	l := rg.set.Lifter
	touch, err := rg.robot.TouchSensor("lifter.touch")
	require.NoError(t, err)
	power := rg.motor(t, "lifter.am").Power

	require.True(t, l.State.Request(Landing))
	assert.Equal(t, -1.0, power.Read())
	assert.Equal(t, LifterStop, l.Lift(), "lift interrupts a landing")

	touch.Pressed.Update(true)
	assert.Equal(t, LifterStop, l.State.Read())
	assert.Equal(t, 0.0, power.Read())

	assert.False(t, l.State.Request(Landing), "already landed")
	assert.Equal(t, LifterLifting, l.Lift())
	require.True(t, l.State.Request(l.Lift()))
	assert.Equal(t, 1.0, power.Read())
}

func TestPowers(t *testing.T) {
	tests := []struct {
		name string
		in   Descartes
		want WheelPowers
	}{
		{"idle", Descartes{}, WheelPowers{}},
		{"forward", Descartes{X: 0.5}, WheelPowers{LF: 0.5, LB: 0.5, RF: 0.5, RB: 0.5}},
		{"strafe", Descartes{Y: 1}, WheelPowers{LF: 1, LB: -1, RF: -1, RB: 1}},
		{"turn", Descartes{W: 0.25}, WheelPowers{LF: 0.25, LB: 0.25, RF: -0.25, RB: -0.25}},
		{"normalized", Descartes{X: 1, Y: 1}, WheelPowers{LF: 1, LB: 0, RF: 0, RB: 1}},
		{"scaled together", Descartes{X: 1, W: 1}, WheelPowers{LF: 1, LB: 1, RF: 0, RB: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Powers(tt.in)
			assert.InDelta(t, tt.want.LF, got.LF, 1e-9)
			assert.InDelta(t, tt.want.LB, got.LB, 1e-9)
			assert.InDelta(t, tt.want.RF, got.RF, 1e-9)
			assert.InDelta(t, tt.want.RB, got.RB, 1e-9)
		})
	}
}

func TestChassisLinksEveryWheel(t *testing.T) {
	rg := newRig(t)
	rg.set.Chassis.Descartes.Update(Descartes{Y: 0.5})

	assert.Equal(t, 0.5, rg.motor(t, "chassis.LF").Power.Read())
	assert.Equal(t, -0.5, rg.motor(t, "chassis.LB").Power.Read())
	assert.Equal(t, -0.5, rg.motor(t, "chassis.RF").Power.Read())
	assert.Equal(t, 0.5, rg.motor(t, "chassis.RB").Power.Read())
	assert.Equal(t, 4, rg.set.Chassis.Links().Len())
}

func TestInitFailsOnProducerConflict(t *testing.T) {
	r := robot.New(Unicorn().MustBuild())
	set, err := NewSet(r, testConfig())
	require.NoError(t, err)
	sc := scope.New()
	require.NoError(t, r.Setup(sc))
	require.NoError(t, set.Setup(sc))

	lifter, err := r.Motor("lifter.am")
	require.NoError(t, err)
	require.NoError(t, lifter.Power.Claim("autonomous"))

	err = sc.InitAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, device.ErrProducerConflict))
	var le *scope.LifecycleError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, LifterGroup, le.Component)
}

func TestStopSeversLinks(t *testing.T) {
	rg := newRig(t)
	rg.set.Expander.State.Request(Expanding)
	power := rg.motor(t, "expander.matrix").Power
	require.Equal(t, 1.0, power.Read())

	links := rg.set.Expander.Links().Links()
	require.Len(t, links, 3)

	require.NoError(t, rg.set.Expander.Stop())
	assert.Equal(t, 0.0, power.Read())
	for _, l := range links {
		assert.False(t, l.Active(), l.Name())
	}
	rg.set.Expander.State.Request(Shrinking)
	assert.Equal(t, 0.0, power.Read())
}

func TestMachinesReportTransitions(t *testing.T) {
	rg := newRig(t)
	var got []string
	for _, sub := range rg.set.All() {
		for _, m := range sub.Machines() {
			name := m.Name()
			m.Observe(func(from, to string) { got = append(got, name+":"+from+">"+to) })
		}
	}

	rg.set.Collector.Core.Request(Collecting)
	rg.set.Dustpan.Dump(1)
	assert.Equal(t, []string{
		"collector.core:STOP>COLLECTING",
		"dustpan.dump:idle>active",
	}, got)
}

var testTime = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
