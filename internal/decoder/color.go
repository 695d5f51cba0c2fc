package decoder

import (
	"fmt"
	"math"
)

// ColorCategory is what a fill color means on the scale bar
type ColorCategory int

const (
	Inactive ColorCategory = iota
	Background
	Active
)

func (c ColorCategory) String() string {
	switch c {
	case Background:
		return "background"
	case Active:
		return "active"
	default:
		return "inactive"
	}
}

// RuleKind tags the variant of a color rule
type RuleKind string

const (
	RuleExactMatch RuleKind = "exact_match"
	RuleRangeCheck RuleKind = "range_check"
	RuleFallback   RuleKind = "fallback"
)

// Rule is one rung of the classification ladder. Apply reports the category
// and whether the rule matched at all.
type Rule interface {
	Kind() RuleKind
	Apply(c RGB) (ColorCategory, bool)
}

// ExactMatch matches a recorded palette color when every channel is within Tolerance
type ExactMatch struct {
	Color     RGB
	Tolerance float64
	Category  ColorCategory
}

func (m ExactMatch) Kind() RuleKind { return RuleExactMatch }

func (m ExactMatch) Apply(c RGB) (ColorCategory, bool) {
	if math.Abs(c.R-m.Color.R) < m.Tolerance &&
		math.Abs(c.G-m.Color.G) < m.Tolerance &&
		math.Abs(c.B-m.Color.B) < m.Tolerance {
		return m.Category, true
	}
	return Inactive, false
}

// Interval is a range on one channel. Each end can be open or closed.
type Interval struct {
	Min     float64
	Max     float64
	MinOpen bool
	MaxOpen bool
}

// Below returns the interval v < hi
func Below(hi float64) Interval {
	return Interval{Min: math.Inf(-1), Max: hi, MaxOpen: true}
}

// Above returns the interval v > lo
func Above(lo float64) Interval {
	return Interval{Min: lo, Max: math.Inf(1), MinOpen: true}
}

// Between returns the closed interval [lo, hi]
func Between(lo, hi float64) Interval {
	return Interval{Min: lo, Max: hi}
}

// Contains reports whether v lies inside the interval
func (i Interval) Contains(v float64) bool {
	if i.MinOpen {
		if v <= i.Min {
			return false
		}
	} else if v < i.Min {
		return false
	}
	if i.MaxOpen {
		return v < i.Max
	}
	return v <= i.Max
}

// RangeCheck matches when every channel falls inside its interval
type RangeCheck struct {
	Name     string
	R, G, B  Interval
	Category ColorCategory
}

func (r RangeCheck) Kind() RuleKind { return RuleRangeCheck }

func (r RangeCheck) Apply(c RGB) (ColorCategory, bool) {
	if r.R.Contains(c.R) && r.G.Contains(c.G) && r.B.Contains(c.B) {
		return r.Category, true
	}
	return Inactive, false
}

// Fallback is the brightness heuristic at the bottom of the ladder. It always
// matches. A blue-dominant color only counts as bright when red also clears
// BlueRedFloor, which keeps dark navy tints inactive.
type Fallback struct {
	Threshold    float64
	BlueRedFloor float64
}

func (f Fallback) Kind() RuleKind { return RuleFallback }

func (f Fallback) Apply(c RGB) (ColorCategory, bool) {
	if c.R > f.Threshold || c.G > f.Threshold || (c.B > f.Threshold && c.R > f.BlueRedFloor) {
		return Active, true
	}
	return Inactive, true
}

// Recorded indicator colors sampled from real reports
var (
	ActivePalette = []RGB{
		{R: 0.075, G: 0.671, B: 0.871}, // teal
		{R: 0.996, G: 0.447, B: 0.337}, // orange-red
		{R: 0.075, G: 0.670, B: 0.871},
		{R: 0.996, G: 0.447, B: 0.338},
	}
	InactiveBlue = RGB{R: 0.004, G: 0.067, B: 0.239}
)

const PaletteTolerance = 0.1

// DefaultRules returns the classification ladder in priority order
func DefaultRules() []Rule {
	rules := make([]Rule, 0, len(ActivePalette)+4)
	for _, c := range ActivePalette {
		rules = append(rules, ExactMatch{Color: c, Tolerance: PaletteTolerance, Category: Active})
	}
	rules = append(rules,
		RangeCheck{Name: "dark-blue", R: Below(0.05), G: Below(0.1), B: Below(0.3), Category: Inactive},
		RangeCheck{Name: "white", R: Above(0.9), G: Above(0.9), B: Above(0.9), Category: Background},
		RangeCheck{Name: "mid-gray", R: Between(0.5, 0.7), G: Between(0.5, 0.7), B: Between(0.5, 0.7), Category: Background},
		Fallback{Threshold: 0.5, BlueRedFloor: 0.1},
	)
	return rules
}

// Classifier evaluates a fixed rule ladder against fill colors
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier. A Fallback anywhere but last would shadow
// every rule after it, so that ordering is rejected.
func NewClassifier(rules []Rule) (*Classifier, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("classifier needs at least one rule")
	}
	for i, r := range rules {
		if r == nil {
			return nil, fmt.Errorf("rule %d is nil", i)
		}
		if r.Kind() == RuleFallback && i != len(rules)-1 {
			return nil, fmt.Errorf("fallback rule must be last, found at position %d of %d", i, len(rules))
		}
	}
	return &Classifier{rules: append([]Rule(nil), rules...)}, nil
}

// Classify maps a fill to its category. A missing fill is never an indicator.
func (c *Classifier) Classify(fill *RGB) ColorCategory {
	if fill == nil {
		return Inactive
	}
	for _, r := range c.rules {
		if cat, ok := r.Apply(*fill); ok {
			return cat
		}
	}
	return Inactive
}

// Rules returns a copy of the ladder
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}
