package term

import "iter"

// Table maps terms to terms. Keys and values stay protected in the Store
// while they are in the Table. A Table is not safe for concurrent use.
type Table struct {
	store   *Store
	entries map[*Term]*Term
}

func NewTable(store *Store, sizeHint int) *Table {
	return &Table{
		store:   store,
		entries: make(map[*Term]*Term, sizeHint),
	}
}

func (t *Table) Put(key, value *Term) {
	t.store.Protect(value)
	if old, ok := t.entries[key]; ok {
		t.store.Release(old)
	} else {
		t.store.Protect(key)
	}
	t.entries[key] = value
}

func (t *Table) Get(key *Term) (*Term, bool) {
	value, ok := t.entries[key]
	return value, ok
}

func (t *Table) Remove(key *Term) bool {
	value, ok := t.entries[key]
	if !ok {
		return false
	}
	delete(t.entries, key)
	t.store.Release(key)
	t.store.Release(value)
	return true
}

func (t *Table) Len() int { return len(t.entries) }

// Keys yields the keys of t, in no particular order
func (t *Table) Keys() iter.Seq[*Term] {
	return func(yield func(*Term) bool) {
		for k := range t.entries {
			if !yield(k) {
				return
			}
		}
	}
}

func (t *Table) Clear() {
	for k := range t.entries {
		t.Remove(k)
	}
}
