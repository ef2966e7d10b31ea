// Package telemetry publishes robot state to the driver station.
//
// Once per control tick the op-mode turns its output Tasks into packets and
// pushes them onto a bounded Queue. A Worker goroutine drains the Queue into
// a Sender, so a slow link never stalls the control loop: with the
// DropOldest policy a full Queue discards its oldest packet instead.
//
// FrameSender encodes packets with package wire and writes them as
// length-prefixed frames:
//
//	+----------------+------------------+
//	| length (4B BE) | CBOR envelope    |
//	+----------------+------------------+
package telemetry
