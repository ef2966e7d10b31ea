package link

import "sync"

// Group tracks the Links created during one run so they can be severed
// together on shutdown.
type Group struct {
	mu    sync.Mutex
	links []*Link
}

// NewGroup creates an empty Group.
func NewGroup() *Group {
	return &Group{}
}

// Track adds l to the group and returns it.
func (g *Group) Track(l *Link) *Link {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.links = append(g.links, l)
	return l
}

// Links returns the tracked links in creation order.
func (g *Group) Links() []*Link {
	g.mu.Lock()
	defer g.mu.Unlock()
	result := make([]*Link, len(g.links))
	copy(result, g.links)
	return result
}

// Len returns the number of tracked links.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.links)
}

// Faults returns the total contained faults over all tracked links.
func (g *Group) Faults() uint64 {
	var n uint64
	for _, l := range g.Links() {
		n += l.Faults()
	}
	return n
}

// DisposeAll disposes every tracked link and forgets them.
func (g *Group) DisposeAll() {
	g.mu.Lock()
	links := g.links
	g.links = nil
	g.mu.Unlock()

	for _, l := range links {
		l.Dispose()
	}
}
