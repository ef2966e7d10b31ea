package device

// Stream is a source of values that can be subscribed to.
type Stream[T any] interface {
	// Subscribe registers fn for every subsequent emission.
	Subscribe(fn func(T)) Subscription
}

// Subscription is a live registration on a Stream.
type Subscription interface {
	// Cancel stops further deliveries. Cancel is idempotent.
	Cancel()
}

// StreamFunc adapts a subscribe function to the Stream interface.
type StreamFunc[T any] func(fn func(T)) Subscription

// Subscribe calls f(fn).
func (f StreamFunc[T]) Subscribe(fn func(T)) Subscription {
	return f(fn)
}

// cancelFunc adapts a function to Subscription.
type cancelFunc func()

func (c cancelFunc) Cancel() { c() }

// StreamOption configures a derived stream.
type StreamOption[T any] func(*streamConfig[T])

type streamConfig[T any] struct {
	seeded bool
	seed   T
}

// Seed makes a derived stream treat v as the previous value, so the first
// observed value can emit.
func Seed[T any](v T) StreamOption[T] {
	return func(c *streamConfig[T]) {
		c.seeded = true
		c.seed = v
	}
}

func buildConfig[T any](opts []StreamOption[T]) streamConfig[T] {
	var c streamConfig[T]
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Edge emits the new value whenever active(prev) differs from active(next)
// in the requested direction: rising when active goes false → true, falling
// when it goes true → false.
func Edge[T any](s Stream[T], active func(T) bool, rising bool, opts ...StreamOption[T]) Stream[T] {
	cfg := buildConfig(opts)
	return StreamFunc[T](func(fn func(T)) Subscription {
		hasPrev := cfg.seeded
		var prev bool
		if cfg.seeded {
			prev = active(cfg.seed)
		}
		return s.Subscribe(func(v T) {
			next := active(v)
			fire := hasPrev && prev != next && next == rising
			prev, hasPrev = next, true
			if fire {
				fn(v)
			}
		})
	})
}

func identity(b bool) bool { return b }

// Rising emits once for every false → true transition.
func Rising(s Stream[bool], opts ...StreamOption[bool]) Stream[bool] {
	return Edge(s, identity, true, opts...)
}

// Falling emits once for every true → false transition.
func Falling(s Stream[bool], opts ...StreamOption[bool]) Stream[bool] {
	return Edge(s, identity, false, opts...)
}

// CrossingUp emits when the value moves from below cutoff to at/above it.
func CrossingUp(s Stream[float64], cutoff float64, opts ...StreamOption[float64]) Stream[float64] {
	return Edge(s, func(v float64) bool { return v >= cutoff }, true, opts...)
}

// CrossingDown emits when the value moves from at/above cutoff to below it.
func CrossingDown(s Stream[float64], cutoff float64, opts ...StreamOption[float64]) Stream[float64] {
	return Edge(s, func(v float64) bool { return v >= cutoff }, false, opts...)
}

// Changed emits whenever the value differs from the previous one.
func Changed[T comparable](s Stream[T], opts ...StreamOption[T]) Stream[T] {
	cfg := buildConfig(opts)
	return StreamFunc[T](func(fn func(T)) Subscription {
		hasPrev, prev := cfg.seeded, cfg.seed
		return s.Subscribe(func(v T) {
			fire := hasPrev && v != prev
			prev, hasPrev = v, true
			if fire {
				fn(v)
			}
		})
	})
}

// Filter emits only the values for which pred holds.
func Filter[T any](s Stream[T], pred func(T) bool) Stream[T] {
	return StreamFunc[T](func(fn func(T)) Subscription {
		return s.Subscribe(func(v T) {
			if pred(v) {
				fn(v)
			}
		})
	})
}

// Map emits fn(v) for every value v of s. fn must be pure.
func Map[T, U any](s Stream[T], f func(T) U) Stream[U] {
	return StreamFunc[U](func(fn func(U)) Subscription {
		return s.Subscribe(func(v T) { fn(f(v)) })
	})
}
