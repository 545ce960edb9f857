package titlemap

import "testing"

func TestBuilder_FirstWins(t *testing.T) {
	b := NewBuilder()
	if _, ok := b.Add("Note", "2025-01-01-Note"); !ok {
		t.Fatal("first add should succeed")
	}
	existing, ok := b.Add("Note", "2025-02-02-Note")
	if ok {
		t.Error("duplicate add should report false")
	}
	if existing != "2025-01-01-Note" {
		t.Errorf("existing = %q", existing)
	}
	stem, _ := b.Map().Lookup("Note")
	if stem != "2025-01-01-Note" {
		t.Errorf("stem = %q, want first entry", stem)
	}
}

func TestMap_SnapshotIsImmutable(t *testing.T) {
	b := NewBuilder()
	b.Add("A", "a")
	m := b.Map()
	b.Add("B", "b")
	if m.Len() != 1 {
		t.Errorf("snapshot changed after builder add: len = %d", m.Len())
	}

	entries := m.Entries()
	entries["C"] = "c"
	if _, ok := m.Lookup("C"); ok {
		t.Error("mutating Entries() result must not affect the map")
	}
}

func TestMerge_CurrentRunWins(t *testing.T) {
	current := FromEntries(map[string]string{"My Note": "2025-01-01-My-Note"})
	cached := map[string]string{
		"My Note": "2024-12-31-My-Note",
		"Deleted": "2023-05-05-Deleted",
	}
	merged := current.Merge(cached)

	if stem, _ := merged.Lookup("My Note"); stem != "2025-01-01-My-Note" {
		t.Errorf("My Note = %q, want current-run stem", stem)
	}
	if stem, ok := merged.Lookup("Deleted"); !ok || stem != "2023-05-05-Deleted" {
		t.Errorf("Deleted = %q, %v; want cached stem", stem, ok)
	}
	if current.Len() != 1 {
		t.Errorf("Merge must not modify the receiver, len = %d", current.Len())
	}
}

func TestZeroMap(t *testing.T) {
	var m Map
	if _, ok := m.Lookup("x"); ok {
		t.Error("zero map should be empty")
	}
	if m.Merge(map[string]string{"x": "y"}).Len() != 1 {
		t.Error("merge into zero map failed")
	}
}
