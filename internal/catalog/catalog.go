package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ivlev/forestwatch/internal/coverage"
	"github.com/ivlev/forestwatch/internal/system"
)

// Area is a monitored district. Key names its directory under the catalog root.
type Area struct {
	Name string
	Key  string
}

// Areas are the districts covered by the segmentation feed.
var Areas = []Area{
	{Name: "Ba Vì", Key: "BaVi"},
	{Name: "Sóc Sơn", Key: "SocSon"},
	{Name: "Mỹ Đức", Key: "MyDuc"},
	{Name: "Chương Mĩ", Key: "ChuongMy"},
	{Name: "Quốc Oai", Key: "QuocOai"},
	{Name: "Thạch Thất", Key: "ThachThat"},
	{Name: "Sơn Tây", Key: "SonTay"},
}

// AreaKey resolves a display name or a key to the directory key.
func AreaKey(name string) (string, bool) {
	for _, a := range Areas {
		if a.Name == name || strings.EqualFold(a.Key, name) {
			return a.Key, true
		}
	}
	return "", false
}

// Observation is one dated image pair. RGB is optional.
type Observation struct {
	Date coverage.DateKey
	Mask string
	RGB  string
}

// Source lists the dated masks of one area.
type Source struct {
	dir  string
	obs  map[coverage.DateKey]*Observation
	keys []coverage.DateKey
}

// Open scans root/area. Files are named "<date>_mask.<ext>", "<date>_rgb.<ext>"
// or just "<date>.<ext>" (a mask). Files without a leading date are skipped.
func Open(root, area string) (*Source, error) {
	dir := root
	if area != "" {
		key, ok := AreaKey(area)
		if !ok {
			key = area
		}
		dir = filepath.Join(root, key)
	}
	return OpenDir(dir)
}

// OpenDir scans a single directory of dated images.
func OpenDir(dir string) (*Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	s := &Source{dir: dir, obs: make(map[coverage.DateKey]*Observation)}
	for _, entry := range entries {
		if entry.IsDir() || !system.IsMask(entry.Name()) {
			continue
		}
		name := entry.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))

		kind := "mask"
		switch {
		case strings.HasSuffix(stem, "_mask"):
			stem = strings.TrimSuffix(stem, "_mask")
		case strings.HasSuffix(stem, "_rgb"):
			stem = strings.TrimSuffix(stem, "_rgb")
			kind = "rgb"
		}

		date, err := coverage.ParseDate(stem)
		if err != nil {
			continue
		}
		o, ok := s.obs[date]
		if !ok {
			o = &Observation{Date: date}
			s.obs[date] = o
		}
		path := filepath.Join(dir, name)
		if kind == "rgb" {
			o.RGB = path
		} else {
			o.Mask = path
		}
	}

	for d, o := range s.obs {
		if o.Mask == "" {
			delete(s.obs, d)
			continue
		}
		s.keys = append(s.keys, d)
	}
	sort.Slice(s.keys, func(i, j int) bool { return s.keys[i] < s.keys[j] })
	return s, nil
}

// Dir is the scanned directory.
func (s *Source) Dir() string { return s.dir }

// Dates lists observations with a mask, oldest first.
func (s *Source) Dates() []coverage.DateKey {
	out := make([]coverage.DateKey, len(s.keys))
	copy(out, s.keys)
	return out
}

// Observation returns the files recorded for date.
func (s *Source) Observation(date coverage.DateKey) (Observation, error) {
	o, ok := s.obs[date]
	if !ok {
		return Observation{}, fmt.Errorf("no mask for %s in %s", date, s.dir)
	}
	return *o, nil
}

// Mask returns the mask path for date.
func (s *Source) Mask(date coverage.DateKey) (string, error) {
	o, err := s.Observation(date)
	if err != nil {
		return "", err
	}
	return o.Mask, nil
}

// RGB returns the true-colour image for date, if one was found.
func (s *Source) RGB(date coverage.DateKey) (string, bool) {
	o, ok := s.obs[date]
	if !ok || o.RGB == "" {
		return "", false
	}
	return o.RGB, true
}

// DefaultPair picks the two oldest observations, or the only one twice.
func (s *Source) DefaultPair() (coverage.DateKey, coverage.DateKey, error) {
	switch len(s.keys) {
	case 0:
		return "", "", fmt.Errorf("no masks in %s", s.dir)
	case 1:
		return s.keys[0], s.keys[0], nil
	default:
		return s.keys[0], s.keys[1], nil
	}
}

// Pairs returns consecutive observation pairs in date order.
func (s *Source) Pairs() [][2]coverage.DateKey {
	var pairs [][2]coverage.DateKey
	for i := 1; i < len(s.keys); i++ {
		pairs = append(pairs, [2]coverage.DateKey{s.keys[i-1], s.keys[i]})
	}
	return pairs
}

// Latest returns the observation whose mask was written most recently,
// regardless of its date. RGB images are ignored.
func (s *Source) Latest() (Observation, error) {
	byName := make(map[string]*Observation, len(s.obs))
	for _, o := range s.obs {
		byName[filepath.Base(o.Mask)] = o
	}
	path, err := system.FindLatestImage(s.dir, func(name string) bool {
		_, ok := byName[name]
		return ok
	})
	if err != nil {
		return Observation{}, err
	}
	return *byName[filepath.Base(path)], nil
}
