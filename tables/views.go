package tables

import "github.com/medgentai/qr-code-menus-made-easy-sub004/rest"

// Tables returns the full collection.
func (f *Feed) Tables() []rest.Table {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]rest.Table, len(f.tables))
	copy(out, f.tables)
	return out
}

// Len returns the number of tracked tables.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables)
}

// Get returns a tracked table by id.
func (f *Feed) Get(tableID string) (rest.Table, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if idx := f.indexLocked(tableID); idx >= 0 {
		return f.tables[idx], true
	}
	return rest.Table{}, false
}

// ByName returns a tracked table by its display name.
func (f *Feed) ByName(name string) (rest.Table, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tables {
		if t.Name == name {
			return t, true
		}
	}
	return rest.Table{}, false
}

// ByStatus returns the tables currently in the given status.
func (f *Feed) ByStatus(status rest.TableStatus) []rest.Table {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []rest.Table
	for _, t := range f.tables {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// OccupiedCount returns how many tables are occupied.
func (f *Feed) OccupiedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tables {
		if t.Status == rest.TableOccupied {
			n++
		}
	}
	return n
}

// CountsByStatus returns how many tables sit in each status.
func (f *Feed) CountsByStatus() map[rest.TableStatus]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[rest.TableStatus]int)
	for _, t := range f.tables {
		out[t.Status]++
	}
	return out
}
