// Package bundle implements the declarative device configuration DSL.
//
// A Bundle maps hierarchical names ("chassis.LF") to device kinds and their
// metadata, and assigns every entry the next identifier of a single
// bundle-wide counter, in declaration order:
//
//	b := bundle.New()
//	b.Group("chassis", func(g *bundle.Group) {
//	    g.Motor("LF", bundle.Reversed)
//	    g.Motor("LB", bundle.Reversed)
//	})
//	b.Group("dumper", func(g *bundle.Group) {
//	    g.Encoder("am", 1440)
//	    g.Servo("servo", bundle.Range{Min: 0, Max: math.Pi})
//	})
//
// Identifiers are shared with the wire protocol, so they only stay stable
// when new entries are appended at the end.
//
// Within one bundle the triple (group, name, kind) is unique; the same
// name may be used for different kinds ("dumper.am" as motor and encoder).
//
// # Kinds
//
// The set of kinds is closed. Spec is a sealed variant; code that needs
// per-kind behavior implements Visitor and calls Entry.Accept or
// Mapping.Walk.
package bundle
