// Package coverage looks up externally computed forest-coverage percentages
// per grid cell and observation date.
package coverage

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key addresses a grid cell in coverage tables. Column comes first, matching
// the "{col},{row}" keys of the analysis feed.
type Key struct {
	Col int
	Row int
}

// KeyOf builds a key from a column and a row.
func KeyOf(col, row int) Key {
	return Key{Col: col, Row: row}
}

// String renders the canonical "{col},{row}" form.
func (k Key) String() string {
	return strconv.Itoa(k.Col) + "," + strconv.Itoa(k.Row)
}

// MarshalText lets keys be used as JSON and YAML map keys.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey parses the canonical "{col},{row}" form. Surrounding spaces are
// tolerated; negative indices are not.
func ParseKey(s string) (Key, error) {
	colStr, rowStr, ok := strings.Cut(s, ",")
	if !ok {
		return Key{}, fmt.Errorf("coverage key %q: want \"col,row\"", s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(colStr))
	if err != nil {
		return Key{}, fmt.Errorf("coverage key %q: bad column: %w", s, err)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowStr))
	if err != nil {
		return Key{}, fmt.Errorf("coverage key %q: bad row: %w", s, err)
	}
	if col < 0 || row < 0 {
		return Key{}, fmt.Errorf("coverage key %q: negative index", s)
	}
	return Key{Col: col, Row: row}, nil
}

// ISO8601Date is the layout of observation dates.
const ISO8601Date = "2006-01-02"

// DateKey identifies an observation. Feeds use either a bare date
// ("2019-06-01") or a date-prefixed image id ("2019-06-01_s2"); both are
// kept verbatim as the lookup key.
type DateKey string

// ParseDate validates that s starts with an ISO 8601 date.
func ParseDate(s string) (DateKey, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(ISO8601Date) {
		return "", fmt.Errorf("date key %q: want YYYY-MM-DD", s)
	}
	if _, err := time.Parse(ISO8601Date, s[:len(ISO8601Date)]); err != nil {
		return "", fmt.Errorf("date key %q: %w", s, err)
	}
	return DateKey(s), nil
}

// Time returns the calendar date of the key, or the zero time if it has none.
func (d DateKey) Time() time.Time {
	if len(d) < len(ISO8601Date) {
		return time.Time{}
	}
	t, err := time.Parse(ISO8601Date, string(d)[:len(ISO8601Date)])
	if err != nil {
		return time.Time{}
	}
	return t
}

// Year is the observation year, 0 if the key carries no date.
func (d DateKey) Year() int {
	t := d.Time()
	if t.IsZero() {
		return 0
	}
	return t.Year()
}
