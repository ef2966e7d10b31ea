// Package opmode runs the control graph as an op-mode.
//
// An OpMode goes through Init, Start, any number of Loop calls, and Stop:
//
//   - Init builds the robot from its bundle, registers gamepads, parts and
//     subsystems in a DynamicScope, and binds the parts to the hardware map.
//   - Start initializes the scope, wires the operator controls and starts
//     publishing telemetry.
//   - Loop runs one control tick: sample sensors, update gamepads (which
//     fires the Links), tick counters, apply effectors, publish telemetry.
//   - Stop severs every Link, stops the scope in reverse order and
//     releases the hardware.
//
// In ModeRemote the operator controls drive the Unicorn subsystems. In
// ModeHost the effectors are driven by command packets from the driver
// station instead, and no subsystem is set up.
package opmode
