package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML form of a bundle:
//
//	groups:
//	  - name: chassis
//	    devices:
//	      - {kind: motor, name: LF, direction: reversed}
//	  - name: dumper
//	    devices:
//	      - {kind: encoder, name: am, cpr: 1440}
//	      - {kind: servo, name: servo, range: [0, 3.14159]}
//
// Sequences keep declaration order, so identifiers are stable as long as
// new devices are appended at the end.
type File struct {
	Groups []FileGroup `yaml:"groups"`
}

// FileGroup is one group of a File.
type FileGroup struct {
	Name    string       `yaml:"name"`
	Devices []FileDevice `yaml:"devices"`
}

// FileDevice is one device declaration of a File.
type FileDevice struct {
	Kind      string    `yaml:"kind"`
	Name      string    `yaml:"name"`
	Direction string    `yaml:"direction,omitempty"`
	Range     []float64 `yaml:"range,omitempty,flow"`
	CPR       float64   `yaml:"cpr,omitempty"`
}

// LoadError describes a malformed bundle file.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Is matches ErrConfiguration.
func (e *LoadError) Is(target error) bool {
	return target == ErrConfiguration
}

// Parse declares the devices of a YAML bundle into a new Bundle.
func Parse(data []byte) (*Bundle, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	return f.Declare()
}

// Load reads and parses a YAML bundle from r.
func Load(r io.Reader) (*Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Message: "failed to read", Cause: err}
	}
	return Parse(data)
}

// LoadFile reads and parses a YAML bundle file.
func LoadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	b, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
		}
		return nil, err
	}
	return b, nil
}

// Declare replays the file's declarations on a new Bundle.
func (f *File) Declare() (*Bundle, error) {
	b := New()
	for _, g := range f.Groups {
		for _, d := range g.Devices {
			spec, err := d.spec()
			if err != nil {
				return nil, &LoadError{Message: fmt.Sprintf("group %q device %q", g.Name, d.Name), Cause: err}
			}
			b.declare(g.Name, d.Name, spec)
		}
	}
	return b, nil
}

func (d FileDevice) spec() (Spec, error) {
	kind, err := ParseKind(d.Kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindMotor:
		dir := Forward
		switch d.Direction {
		case "", "forward":
		case "reversed", "reverse":
			dir = Reversed
		default:
			return nil, fmt.Errorf("unknown direction %q", d.Direction)
		}
		return MotorSpec{Direction: dir}, nil
	case KindServo:
		rng := DefaultServoRange
		if len(d.Range) != 0 {
			if len(d.Range) != 2 || d.Range[0] > d.Range[1] {
				return nil, fmt.Errorf("range must be [min, max], got %v", d.Range)
			}
			rng = Range{Min: d.Range[0], Max: d.Range[1]}
		}
		return ServoSpec{Range: rng}, nil
	case KindContinuousServo:
		return ContinuousServoSpec{}, nil
	case KindEncoder:
		if d.CPR <= 0 {
			return nil, fmt.Errorf("encoder requires a positive cpr, got %v", d.CPR)
		}
		return EncoderSpec{CountsPerRevolution: d.CPR}, nil
	case KindColorSensor:
		return ColorSensorSpec{}, nil
	case KindTouchSensor:
		return TouchSensorSpec{}, nil
	}
	return nil, fmt.Errorf("unsupported kind %s", kind)
}
