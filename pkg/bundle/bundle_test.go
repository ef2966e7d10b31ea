package bundle

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func declareSample(b *Bundle) {
	b.Group("chassis", func(g *Group) {
		g.Motor("LF")
		g.Motor("LB")
	})
	b.Group("dumper", func(g *Group) {
		g.Encoder("am", 1440)
		g.Servo("s")
	})
}

func TestIdentifiersFollowDeclarationOrder(t *testing.T) {
	b := New()
	declareSample(b)

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := []Entry{
		{ID: 0, Group: "chassis", Name: "LF", Spec: MotorSpec{Direction: Forward}},
		{ID: 1, Group: "chassis", Name: "LB", Spec: MotorSpec{Direction: Forward}},
		{ID: 2, Group: "dumper", Name: "am", Spec: EncoderSpec{CountsPerRevolution: 1440}},
		{ID: 3, Group: "dumper", Name: "s", Spec: ServoSpec{Range: DefaultServoRange}},
	}
	if diff := cmp.Diff(want, m.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	b1, b2 := New(), New()
	declareSample(b1)
	declareSample(b2)

	if diff := cmp.Diff(b1.MustBuild().Entries(), b2.MustBuild().Entries()); diff != "" {
		t.Errorf("identical declarations built differently (-first +second):\n%s", diff)
	}
}

func TestSameNameDifferentKinds(t *testing.T) {
	b := New()
	b.Group("dumper", func(g *Group) {
		g.Motor("am", Reversed)
		g.Encoder("am", 1440)
	})

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	motor, ok := m.Lookup("dumper", "am", KindMotor)
	if !ok || motor.ID != 0 {
		t.Errorf("motor lookup = %+v, %v", motor, ok)
	}
	enc, ok := m.Lookup("dumper", "am", KindEncoder)
	if !ok || enc.ID != 1 {
		t.Errorf("encoder lookup = %+v, %v", enc, ok)
	}
	if motor.Key() == enc.Key() {
		t.Errorf("keys must differ: %s", motor.Key())
	}
	if _, ok := m.Lookup("dumper", "am", KindServo); ok {
		t.Error("servo lookup must fail")
	}
}

func TestDuplicateEntry(t *testing.T) {
	b := New()
	b.Group("chassis", func(g *Group) {
		g.Motor("LF")
		g.Motor("LF", Reversed)
	})

	_, err := b.Build()
	var dup *DuplicateEntryError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateEntryError, got %v", err)
	}
	if dup.Group != "chassis" || dup.Name != "LF" || dup.Kind != KindMotor {
		t.Errorf("unexpected fields: %+v", dup)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Error("expected error to match ErrConfiguration")
	}
}

func TestSameNameInDifferentGroups(t *testing.T) {
	b := New()
	b.Group("dumper", func(g *Group) { g.Servo("servo") })
	b.Group("expander", func(g *Group) { g.Servo("servo") })

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", m.Len())
	}
}

func TestEmptyName(t *testing.T) {
	b := New()
	b.Group("g", func(g *Group) { g.TouchSensor("") })
	if _, err := b.Build(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}

func TestEntryLimit(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{n: MaxEntries, wantErr: false},
		{n: MaxEntries + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			b := New()
			b.Group("bulk", func(g *Group) {
				for i := 0; i < tt.n; i++ {
					g.TouchSensor(fmt.Sprintf("t%d", i))
				}
			})
			m, err := b.Build()
			if tt.wantErr {
				if !errors.Is(err, ErrTooManyEntries) {
					t.Errorf("expected ErrTooManyEntries, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			last, _ := m.ByID(math.MaxUint8)
			if last.Name != "t255" {
				t.Errorf("entry 255 = %+v", last)
			}
		})
	}
}

func TestByIDAndDescriptions(t *testing.T) {
	b := New()
	declareSample(b)
	m := b.MustBuild()

	if _, ok := m.ByID(4); ok {
		t.Error("ByID(4) must fail")
	}
	e, ok := m.ByID(2)
	if !ok || e.Path() != "dumper.am" {
		t.Errorf("ByID(2) = %+v, %v", e, ok)
	}

	want := []Description{
		{ID: 0, Name: "chassis.LF", Kind: KindMotor},
		{ID: 1, Name: "chassis.LB", Kind: KindMotor},
		{ID: 2, Name: "dumper.am", Kind: KindEncoder},
		{ID: 3, Name: "dumper.s", Kind: KindServo},
	}
	if diff := cmp.Diff(want, m.Descriptions()); diff != "" {
		t.Errorf("Descriptions() mismatch (-want +got):\n%s", diff)
	}

	if got := len(m.Group("dumper")); got != 2 {
		t.Errorf("Group(dumper) has %d entries, want 2", got)
	}
}

func TestEntriesIsACopy(t *testing.T) {
	b := New()
	declareSample(b)
	m := b.MustBuild()

	entries := m.Entries()
	entries[0].Name = "changed"
	if e, _ := m.ByID(0); e.Name != "LF" {
		t.Error("mutating Entries() result changed the mapping")
	}
}

// kindCounter records the visit order.
type kindCounter struct {
	visited []string
}

func (k *kindCounter) VisitMotor(e Entry, s MotorSpec) {
	k.visited = append(k.visited, e.Name+":"+s.Direction.String())
}
func (k *kindCounter) VisitServo(e Entry, s ServoSpec) {
	k.visited = append(k.visited, fmt.Sprintf("%s:%.2f", e.Name, s.Range.Max))
}
func (k *kindCounter) VisitContinuousServo(e Entry, _ ContinuousServoSpec) {
	k.visited = append(k.visited, e.Name+":cr")
}
func (k *kindCounter) VisitEncoder(e Entry, s EncoderSpec) {
	k.visited = append(k.visited, fmt.Sprintf("%s:%g", e.Name, s.CountsPerRevolution))
}
func (k *kindCounter) VisitColorSensor(e Entry, _ ColorSensorSpec) {
	k.visited = append(k.visited, e.Name+":color")
}
func (k *kindCounter) VisitTouchSensor(e Entry, _ TouchSensorSpec) {
	k.visited = append(k.visited, e.Name+":touch")
}

func TestWalkDispatchesByKind(t *testing.T) {
	b := New()
	b.Group("x", func(g *Group) {
		g.Motor("m", Reversed)
		g.Servo("s", Range{Min: 0, Max: math.Pi})
		g.ContinuousServo("cr")
		g.Encoder("e", 28)
		g.ColorSensor("c")
		g.TouchSensor("t")
	})

	v := &kindCounter{}
	b.MustBuild().Walk(v)

	want := []string{"m:reversed", "s:3.14", "cr:cr", "e:28", "c:color", "t:touch"}
	if diff := cmp.Diff(want, v.visited); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}

func TestRange(t *testing.T) {
	r := Range{Min: 0, Max: 2}
	tests := []struct {
		in, clamp, norm float64
	}{
		{in: -1, clamp: 0, norm: 0},
		{in: 1, clamp: 1, norm: 0.5},
		{in: 3, clamp: 2, norm: 1},
	}
	for _, tt := range tests {
		if got := r.Clamp(tt.in); got != tt.clamp {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.clamp)
		}
		if got := r.Normalize(tt.in); got != tt.norm {
			t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.norm)
		}
	}
}

const sampleYAML = `
groups:
  - name: chassis
    devices:
      - {kind: motor, name: LF, direction: reversed}
      - {kind: motor, name: RF}
  - name: dumper
    devices:
      - {kind: motor, name: am, direction: reversed}
      - {kind: encoder, name: am, cpr: 1440}
      - {kind: servo, name: servo, range: [0, 3.5]}
  - name: collector
    devices:
      - {kind: continuous-servo, name: cr}
      - {kind: touch, name: touch}
`

func TestParseYAML(t *testing.T) {
	b, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := []Entry{
		{ID: 0, Group: "chassis", Name: "LF", Spec: MotorSpec{Direction: Reversed}},
		{ID: 1, Group: "chassis", Name: "RF", Spec: MotorSpec{Direction: Forward}},
		{ID: 2, Group: "dumper", Name: "am", Spec: MotorSpec{Direction: Reversed}},
		{ID: 3, Group: "dumper", Name: "am", Spec: EncoderSpec{CountsPerRevolution: 1440}},
		{ID: 4, Group: "dumper", Name: "servo", Spec: ServoSpec{Range: Range{Min: 0, Max: 3.5}}},
		{ID: 5, Group: "collector", Name: "cr", Spec: ContinuousServoSpec{}},
		{ID: 6, Group: "collector", Name: "touch", Spec: TouchSensorSpec{}},
	}
	if diff := cmp.Diff(want, m.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown kind", yaml: "groups: [{name: g, devices: [{kind: lidar, name: l}]}]"},
		{name: "bad direction", yaml: "groups: [{name: g, devices: [{kind: motor, name: m, direction: up}]}]"},
		{name: "bad range", yaml: "groups: [{name: g, devices: [{kind: servo, name: s, range: [2, 1]}]}]"},
		{name: "encoder without cpr", yaml: "groups: [{name: g, devices: [{kind: encoder, name: e}]}]"},
		{name: "unknown field", yaml: "groups: [{name: g, color: red}]"},
		{name: "malformed", yaml: "groups: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if b.Len() != 7 {
		t.Errorf("expected 7 entries, got %d", b.Len())
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("groups: ["), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err = LoadFile(bad)
	if err == nil || !strings.Contains(err.Error(), bad) {
		t.Errorf("expected error naming the file, got %v", err)
	}

	if _, err := Load(strings.NewReader(sampleYAML)); err != nil {
		t.Errorf("Load failed: %v", err)
	}
}
