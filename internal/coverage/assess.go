package coverage

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Policy configures how a cell's coverage is judged against a baseline. The
// baseline observation and the warning threshold vary between deployments
// and are always supplied by configuration.
type Policy struct {
	BaselineDate DateKey `yaml:"baseline_date" env:"BASELINE_DATE"`
	// WarningThreshold is the decrease, in percentage points, above which a
	// cell is flagged.
	WarningThreshold float64 `yaml:"warning_threshold" env:"WARNING_THRESHOLD"`
	// BaselineDefault stands in for a cell missing from the baseline table.
	BaselineDefault float64 `yaml:"baseline_default" env:"BASELINE_DEFAULT"`
}

// DefaultPolicy leaves the baseline date unset.
func DefaultPolicy() Policy {
	return Policy{
		WarningThreshold: 1,
		BaselineDefault:  100,
	}
}

func (p Policy) Validate() error {
	if p.BaselineDate == "" {
		return errors.New("coverage policy: baseline date is not configured")
	}
	if _, err := ParseDate(string(p.BaselineDate)); err != nil {
		return err
	}
	if p.WarningThreshold < 0 || p.WarningThreshold > 100 {
		return errors.New("coverage policy: warning threshold must be within [0, 100]")
	}
	return nil
}

// Assessment compares one cell at a selected date with the baseline.
type Assessment struct {
	Key      Key     `yaml:"key"`
	Date     DateKey `yaml:"date"`
	Baseline float64 `yaml:"baseline"`
	Selected float64 `yaml:"selected"`
	// BaselineFrom is the date whose table supplied Baseline: the assessed
	// entry when it ships one, otherwise the policy's baseline date.
	BaselineFrom     DateKey `yaml:"baseline_from"`
	BaselineObserved bool    `yaml:"baseline_observed"`
	SelectedObserved bool    `yaml:"selected_observed"`
	// Decrease is baseline minus selected, in percentage points.
	Decrease float64 `yaml:"decrease"`
	AtRisk   bool    `yaml:"at_risk"`
}

// baseline resolves the reference value for key: the table shipped with the
// selected entry when idx has one, else coverage at p.BaselineDate.
func baseline(idx Index, key Key, selected DateKey, p Policy) (float64, DateKey, bool) {
	if bs, ok := idx.(BaselineSource); ok && bs.HasBaseline(selected) {
		v, ok := bs.Baseline(key, selected)
		return v, selected, ok
	}
	v, ok := idx.Get(key, p.BaselineDate)
	return v, p.BaselineDate, ok
}

// Assess compares key at selected with its baseline. A missing baseline
// resolves to p.BaselineDefault and a missing selection to DefaultCoverage.
func Assess(idx Index, key Key, selected DateKey, p Policy) Assessment {
	base, from, baseOK := baseline(idx, key, selected, p)
	if !baseOK {
		base = p.BaselineDefault
	}
	sel, selOK := idx.Get(key, selected)
	if !selOK {
		sel = DefaultCoverage
	}
	dec := base - sel
	return Assessment{
		Key:              key,
		Date:             selected,
		Baseline:         base,
		Selected:         sel,
		BaselineFrom:     from,
		BaselineObserved: baseOK,
		SelectedObserved: selOK,
		Decrease:         dec,
		AtRisk:           dec > p.WarningThreshold,
	}
}

// AssessAll assesses every key, preserving order.
func AssessAll(idx Index, keys []Key, selected DateKey, p Policy) []Assessment {
	out := make([]Assessment, len(keys))
	for i, k := range keys {
		out[i] = Assess(idx, k, selected, p)
	}
	return out
}

// Summary aggregates a set of assessments.
type Summary struct {
	Cells          int     `yaml:"cells"`
	AtRisk         int     `yaml:"at_risk"`
	MeanDecrease   float64 `yaml:"mean_decrease"`
	StdDevDecrease float64 `yaml:"stddev_decrease"`
	MaxDecrease    float64 `yaml:"max_decrease"`
	Worst          []Key   `yaml:"worst,omitempty"`
}

// Summarize computes decrease statistics. Worst lists at-risk cells from the
// largest decrease down.
func Summarize(as []Assessment) Summary {
	s := Summary{Cells: len(as)}
	if len(as) == 0 {
		return s
	}

	dec := make([]float64, len(as))
	s.MaxDecrease = math.Inf(-1)
	var risky []Assessment
	for i, a := range as {
		dec[i] = a.Decrease
		if a.Decrease > s.MaxDecrease {
			s.MaxDecrease = a.Decrease
		}
		if a.AtRisk {
			s.AtRisk++
			risky = append(risky, a)
		}
	}

	if len(dec) > 1 {
		s.MeanDecrease, s.StdDevDecrease = stat.MeanStdDev(dec, nil)
	} else {
		s.MeanDecrease = dec[0]
	}

	sort.SliceStable(risky, func(i, j int) bool { return risky[i].Decrease > risky[j].Decrease })
	for _, a := range risky {
		s.Worst = append(s.Worst, a.Key)
	}
	return s
}
