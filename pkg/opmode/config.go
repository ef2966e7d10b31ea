package opmode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/standalonetc/teleop/pkg/gamepad"
	"github.com/standalonetc/teleop/pkg/subsystem"
	"github.com/standalonetc/teleop/pkg/telemetry"
)

// ErrInvalidConfig is wrapped by every configuration validation error.
var ErrInvalidConfig = errors.New("invalid op-mode configuration")

// Mode selects what drives the effectors.
type Mode uint8

const (
	// ModeRemote drives the subsystems from the operator gamepads.
	ModeRemote Mode = iota

	// ModeHost drives the effectors from command packets.
	ModeHost
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeRemote:
		return "remote"
	case ModeHost:
		return "host"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "remote":
		*m = ModeRemote
	case "host":
		*m = ModeHost
	default:
		return fmt.Errorf("unknown mode %q", text)
	}
	return nil
}

// TelemetryConfig configures the telemetry queue.
type TelemetryConfig struct {
	// Capacity bounds the queue.
	Capacity int `yaml:"capacity"`

	// Policy decides what happens when the queue is full.
	Policy telemetry.Policy `yaml:"policy"`
}

// Config configures an OpMode.
type Config struct {
	// Name is announced in OpModeInfo packets and lifecycle events.
	Name string `yaml:"name"`

	// Mode selects what drives the effectors.
	Mode Mode `yaml:"mode"`

	// TickPeriod is the target control loop period.
	TickPeriod time.Duration `yaml:"tick_period"`

	// TickLogInterval is the number of ticks between tick summary events.
	// Zero disables tick events.
	TickLogInterval uint64 `yaml:"tick_log_interval"`

	// TriggerThreshold is the analog value at which gamepad triggers count
	// as pressed.
	TriggerThreshold float64 `yaml:"trigger_threshold"`

	// Bundle is the path of a YAML bundle. Empty uses the Unicorn bundle.
	Bundle string `yaml:"bundle,omitempty"`

	// EventLog is the path of the CBOR event log. Empty disables it.
	EventLog string `yaml:"event_log,omitempty"`

	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Subsystems subsystem.Config `yaml:"subsystems"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Name:             "RemoteControl",
		Mode:             ModeRemote,
		TickPeriod:       20 * time.Millisecond,
		TickLogInterval:  50,
		TriggerThreshold: gamepad.DefaultTriggerThreshold,
		Telemetry: TelemetryConfig{
			Capacity: telemetry.DefaultCapacity,
			Policy:   telemetry.DropOldest,
		},
		Subsystems: subsystem.DefaultConfig(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	case c.TickPeriod <= 0:
		return fmt.Errorf("%w: tick_period must be positive, got %v", ErrInvalidConfig, c.TickPeriod)
	case c.TriggerThreshold <= 0 || c.TriggerThreshold > 1:
		return fmt.Errorf("%w: trigger_threshold must be in (0, 1], got %v", ErrInvalidConfig, c.TriggerThreshold)
	case c.Telemetry.Capacity <= 0:
		return fmt.Errorf("%w: telemetry.capacity must be positive, got %d", ErrInvalidConfig, c.Telemetry.Capacity)
	case c.Subsystems.StrokeTicks <= 0:
		return fmt.Errorf("%w: subsystems.stroke_ticks must be positive, got %d", ErrInvalidConfig, c.Subsystems.StrokeTicks)
	}
	return nil
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
// Unknown fields are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
