package bundle

// Mapping is the finalized identifier → entry table of a Bundle. It is
// immutable.
type Mapping struct {
	entries []Entry
	byKey   map[entryKey]int
}

func newMapping(entries []Entry) *Mapping {
	m := &Mapping{
		entries: make([]Entry, len(entries)),
		byKey:   make(map[entryKey]int, len(entries)),
	}
	copy(m.entries, entries)
	for i, e := range m.entries {
		m.byKey[entryKey{group: e.Group, name: e.Name, kind: e.Kind()}] = i
	}
	return m
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	return len(m.entries)
}

// Entries returns the entries in identifier order.
func (m *Mapping) Entries() []Entry {
	result := make([]Entry, len(m.entries))
	copy(result, m.entries)
	return result
}

// ByID returns the entry with the given identifier.
func (m *Mapping) ByID(id uint8) (Entry, bool) {
	if int(id) >= len(m.entries) {
		return Entry{}, false
	}
	return m.entries[id], true
}

// Lookup returns the entry declared as (group, name, kind).
func (m *Mapping) Lookup(group, name string, kind Kind) (Entry, bool) {
	i, ok := m.byKey[entryKey{group: group, name: name, kind: kind}]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Group returns the entries of one group in identifier order.
func (m *Mapping) Group(name string) []Entry {
	var result []Entry
	for _, e := range m.entries {
		if e.Group == name {
			result = append(result, e)
		}
	}
	return result
}

// Walk dispatches every entry, in identifier order, to v.
func (m *Mapping) Walk(v Visitor) {
	for _, e := range m.entries {
		e.Accept(v)
	}
}

// Description is the compact addressing record handed to the protocol
// layer for device discovery.
type Description struct {
	ID   uint8
	Name string
	Kind Kind
}

// Descriptions returns one Description per entry, in identifier order.
func (m *Mapping) Descriptions() []Description {
	result := make([]Description, len(m.entries))
	for i, e := range m.entries {
		result[i] = Description{ID: e.ID, Name: e.Path(), Kind: e.Kind()}
	}
	return result
}
