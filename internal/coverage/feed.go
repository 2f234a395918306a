package coverage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// Entry is one observation in the analysis feed: links to the RGB scene and
// the classified mask plus per-cell coverage tables.
type Entry struct {
	RGB      string `json:"rgb,omitempty"`
	Mask     string `json:"mask,omitempty"`
	Coverage Table  `json:"forestCoverage,omitempty"`
	// Baseline is the reference table the feed ships alongside every entry.
	Baseline Table `json:"forestCoverage2017,omitempty"`
}

// Feed is the decoded analysis feed keyed by observation.
type Feed map[DateKey]Entry

// LoadFeed decodes a feed and validates its date keys.
func LoadFeed(r io.Reader) (Feed, error) {
	var raw map[string]Entry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode coverage feed: %w", err)
	}
	feed := make(Feed, len(raw))
	for id, entry := range raw {
		date, err := ParseDate(id)
		if err != nil {
			return nil, fmt.Errorf("coverage feed: %w", err)
		}
		feed[date] = entry
	}
	return feed, nil
}

// LoadFeedFile decodes the feed stored at path.
func LoadFeedFile(path string) (Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFeed(f)
}

// Dates lists the feed's observations in ascending order.
func (f Feed) Dates() []DateKey {
	dates := make([]DateKey, 0, len(f))
	for d := range f {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
	return dates
}

// BaselineTable returns the first non-empty baseline table in date order. It
// only stands in for a configured baseline date the feed does not observe;
// assessments prefer the table shipped with the assessed entry.
func (f Feed) BaselineTable() Table {
	for _, d := range f.Dates() {
		if len(f[d].Baseline) > 0 {
			return f[d].Baseline
		}
	}
	return nil
}

// Index loads the feed into memory, each entry's baseline table under its own
// date. When baseline is set and the feed has no observation of its own for
// that date, BaselineTable is stored there as coverage.
func (f Feed) Index(baseline DateKey) *MemoryIndex {
	idx := NewMemoryIndex()
	for date, entry := range f {
		if entry.Coverage != nil {
			idx.PutTable(date, entry.Coverage)
		}
		idx.PutBaseline(date, entry.Baseline)
	}
	if baseline != "" {
		if _, ok := f[baseline]; !ok {
			if t := f.BaselineTable(); t != nil {
				idx.PutTable(baseline, t)
			}
		}
	}
	return idx
}
