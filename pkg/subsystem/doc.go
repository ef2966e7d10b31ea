// Package subsystem implements the actuator subsystems of the robot.
//
// Each subsystem is a scope Component that depends on the robot parts it
// drives, claims their effector Devices during Init, and translates its
// state machines into effector commands through Links. Inputs arrive as
// requests on the exported machines and Devices; operator wiring lives in
// package opmode.
package subsystem
