// Package titlemap holds the note title → post filename mapping used to
// resolve wiki links.
package titlemap

import "maps"

// Map is an immutable title → filename stem mapping. The zero value is empty.
type Map struct {
	entries map[string]string
}

// Lookup returns the filename stem for title.
func (m Map) Lookup(title string) (string, bool) {
	stem, ok := m.entries[title]
	return stem, ok
}

// Len returns the number of titles in the map.
func (m Map) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the mapping, suitable for persisting.
func (m Map) Entries() map[string]string {
	out := make(map[string]string, len(m.entries))
	maps.Copy(out, m.entries)
	return out
}

// Merge returns a new map holding m plus every entry of older whose title is
// not already present. Entries in m always win.
func (m Map) Merge(older map[string]string) Map {
	out := m.Entries()
	for title, stem := range older {
		if _, ok := out[title]; !ok {
			out[title] = stem
		}
	}
	return Map{entries: out}
}

// Builder accumulates a Map. The first stem added for a title wins.
type Builder struct {
	entries map[string]string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[string]string)}
}

// Add records title → stem unless title is already present. It returns the
// stem already recorded and false when title is a duplicate.
func (b *Builder) Add(title, stem string) (string, bool) {
	if existing, ok := b.entries[title]; ok {
		return existing, false
	}
	b.entries[title] = stem
	return stem, true
}

// Map returns an immutable snapshot of the builder's entries.
func (b *Builder) Map() Map {
	return Map{entries: maps.Clone(b.entries)}
}

// FromEntries builds a Map directly from a plain mapping.
func FromEntries(entries map[string]string) Map {
	return Map{entries: maps.Clone(entries)}
}
