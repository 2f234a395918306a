package coverage

import (
	"sort"
	"sync"
)

// DefaultCoverage is returned by Lookup when a cell has no observation for
// the requested date. Observation dates are sparse, so a miss is normal and
// never an error.
const DefaultCoverage = 0.0

// Table maps cells to coverage percentages for one date.
type Table map[Key]float64

// Index is the lookup side of the coverage feed.
type Index interface {
	// Get reports the stored value and whether one exists.
	Get(key Key, date DateKey) (float64, bool)
	// Lookup returns the stored value or DefaultCoverage.
	Lookup(key Key, date DateKey) float64
}

// BaselineSource is implemented by indexes that keep the baseline table
// shipped with each observation.
type BaselineSource interface {
	// HasBaseline reports whether date carries its own baseline table.
	HasBaseline(date DateKey) bool
	// Baseline reads key from the baseline table shipped with date.
	Baseline(key Key, date DateKey) (float64, bool)
}

// Clamp bounds a percentage to [0, 100].
func Clamp(pct float64) float64 {
	switch {
	case pct != pct:
		return DefaultCoverage
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

// LookupOr returns the stored value or def.
func LookupOr(idx Index, key Key, date DateKey, def float64) float64 {
	if v, ok := idx.Get(key, date); ok {
		return v
	}
	return def
}

// MemoryIndex is an in-memory Index, safe for concurrent use.
type MemoryIndex struct {
	mu        sync.RWMutex
	tables    map[DateKey]Table
	baselines map[DateKey]Table
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		tables:    make(map[DateKey]Table),
		baselines: make(map[DateKey]Table),
	}
}

func clampTable(table Table) Table {
	t := make(Table, len(table))
	for k, v := range table {
		t[k] = Clamp(v)
	}
	return t
}

// Put stores one value, clamped to [0, 100].
func (m *MemoryIndex) Put(date DateKey, key Key, pct float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[date]
	if !ok {
		t = make(Table)
		m.tables[date] = t
	}
	t[key] = Clamp(pct)
}

// PutTable replaces the table for date.
func (m *MemoryIndex) PutTable(date DateKey, table Table) {
	t := clampTable(table)
	m.mu.Lock()
	m.tables[date] = t
	m.mu.Unlock()
}

func (m *MemoryIndex) Get(key Key, date DateKey) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.tables[date][key]
	return v, ok
}

// PutBaseline replaces the baseline table shipped with date. An empty table
// removes it.
func (m *MemoryIndex) PutBaseline(date DateKey, table Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(table) == 0 {
		delete(m.baselines, date)
		return
	}
	m.baselines[date] = clampTable(table)
}

func (m *MemoryIndex) HasBaseline(date DateKey) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.baselines[date]) > 0
}

func (m *MemoryIndex) Baseline(key Key, date DateKey) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.baselines[date][key]
	return v, ok
}

func (m *MemoryIndex) Lookup(key Key, date DateKey) float64 {
	return LookupOr(m, key, date, DefaultCoverage)
}

// Dates lists the observation dates in ascending order.
func (m *MemoryIndex) Dates() []DateKey {
	m.mu.RLock()
	dates := make([]DateKey, 0, len(m.tables))
	for d := range m.tables {
		dates = append(dates, d)
	}
	m.mu.RUnlock()
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
	return dates
}
