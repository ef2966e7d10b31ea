// Package device implements the observable cells of the control graph.
//
// A Device holds the latest observed or commanded value of one
// hardware-facing input or output. Producers publish values with Update;
// every current subscriber is notified synchronously, in subscription
// order, before Update returns. Read returns the last published value
// without side effects.
//
// # Derived Streams
//
// Streams derived from a Device are pure functions of its emission
// sequence:
//
//	Rising(button)           false → true
//	Falling(button)          true → false
//	Changed(stick)           value differs from the previous one
//	CrossingUp(trigger, .5)  below → at/above the cutoff
//	CrossingDown(trigger, .5)
//	Filter(s, pred), Map(s, fn)
//
// A derived stream keeps its "previous value" per subscriber, starting at
// the moment of subscription. No derived stream emits on the first
// observed value unless seeded with Seed.
//
// # Ownership
//
// A Device is written by exactly one logical producer. Claim records the
// producer; a second distinct producer is a configuration error.
//
// # Reentrancy
//
// The subscriber list is snapshotted before each dispatch. Subscribers
// added during a dispatch are first notified on the next Update;
// subscriptions cancelled during a dispatch are skipped immediately.
package device
