// Package decoder recovers a grade from the scale bar drawn on a report page.
//
// The selected grade is not in the text layer. It is the position of the
// brightly filled shapes drawn next to the grade labels, so a page is decoded
// by finding the bar vertically, keeping the filled shapes in that band,
// classifying their colors and voting their horizontal centers into slots.
package decoder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Strategy selects how the vertical band is derived
type Strategy string

const (
	// StrategyAnchor uses a band around the anchor label and falls back to
	// the fixed band when the label is missing.
	StrategyAnchor Strategy = "anchor"
	// StrategyFixedWindow always uses the fixed band.
	StrategyFixedWindow Strategy = "fixed"
)

// Params is the decoder configuration. It is fixed at construction.
type Params struct {
	Slots       []Slot
	Rules       []Rule
	Tolerance   float64
	AnchorLabel string
	AnchorAbove float64
	AnchorBelow float64
	FixedBand   Band
	Strategy    Strategy
}

// DefaultParams returns the geometry of the growth portrait report
func DefaultParams() Params {
	return Params{
		Slots:       DefaultSlots(),
		Rules:       DefaultRules(),
		Tolerance:   DefaultTolerance,
		AnchorLabel: "掌握",
		AnchorAbove: 40,
		AnchorBelow: 10,
		FixedBand:   FixedBand(380, 430),
		Strategy:    StrategyAnchor,
	}
}

// Validate checks the parameters for internal consistency
func (p Params) Validate() error {
	if len(p.Slots) == 0 {
		return fmt.Errorf("at least one slot is required")
	}
	seen := make(map[int]bool, len(p.Slots))
	for _, s := range p.Slots {
		if s.Index < MinGrade || s.Index > MaxGrade {
			return fmt.Errorf("slot %q has index %d outside [%d,%d]", s.Label, s.Index, MinGrade, MaxGrade)
		}
		if seen[s.Index] {
			return fmt.Errorf("duplicate slot index %d", s.Index)
		}
		seen[s.Index] = true
	}
	if p.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %v", p.Tolerance)
	}
	if p.FixedBand.Max <= p.FixedBand.Min {
		return fmt.Errorf("fixed band %s is empty", p.FixedBand)
	}
	switch p.Strategy {
	case StrategyAnchor:
		if p.AnchorLabel == "" {
			return fmt.Errorf("anchor strategy requires an anchor label")
		}
		if p.AnchorAbove+p.AnchorBelow <= 0 {
			return fmt.Errorf("anchor band is empty")
		}
	case StrategyFixedWindow:
	default:
		return fmt.Errorf("unknown strategy %q", p.Strategy)
	}
	return nil
}

// Fingerprint is a stable digest of the geometry. Cached results are keyed
// on it so a configuration change never serves stale grades.
func (p Params) Fingerprint() string {
	rules := make([]string, 0, len(p.Rules))
	for _, r := range p.Rules {
		rules = append(rules, fmt.Sprintf("%s:%+v", r.Kind(), r))
	}
	h := sha256.New()
	fmt.Fprintf(h, "slots=%+v\nrules=%q\ntolerance=%v\nanchor=%q above=%v below=%v\nfixed=%+v\nstrategy=%s",
		p.Slots, rules, p.Tolerance, p.AnchorLabel, p.AnchorAbove, p.AnchorBelow, p.FixedBand, p.Strategy)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}

// Result is the decoded grade of one page. Decoded is false when no active
// shape was found; Grade is then meaningless and callers apply their default.
type Result struct {
	Grade        int         `json:"grade"`
	Decoded      bool        `json:"decoded"`
	Votes        int         `json:"votes"`
	ActiveShapes int         `json:"active_shapes"`
	Candidates   int         `json:"candidates"`
	Method       MatchMethod `json:"method"`
	Band         Band        `json:"band"`
	AnchorFound  bool        `json:"anchor_found"`
	AnchorY      float64     `json:"anchor_y,omitempty"`
}

// GradeOr returns the decoded grade, or def when the page was undecodable
func (r Result) GradeOr(def int) int {
	if !r.Decoded {
		return def
	}
	return r.Grade
}

// Decoder holds validated parameters and a compiled classifier. It has no
// mutable state and may be shared across goroutines.
type Decoder struct {
	params     Params
	classifier *Classifier
}

// New validates params and builds a decoder
func New(params Params) (*Decoder, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid decoder parameters: %w", err)
	}
	classifier, err := NewClassifier(params.Rules)
	if err != nil {
		return nil, fmt.Errorf("invalid color rules: %w", err)
	}
	params.Slots = append([]Slot(nil), params.Slots...)
	return &Decoder{params: params, classifier: classifier}, nil
}

// Params returns the decoder configuration
func (d *Decoder) Params() Params {
	return d.params
}

// Classifier returns the compiled color classifier
func (d *Decoder) Classifier() *Classifier {
	return d.classifier
}

// BandFor picks the search band for a page and reports the anchor it used
func (d *Decoder) BandFor(spans []Span) (band Band, anchorY float64, found bool) {
	if d.params.Strategy == StrategyAnchor {
		if y, ok := LocateAnchor(spans, d.params.AnchorLabel); ok {
			return AnchorBand(y, d.params.AnchorAbove, d.params.AnchorBelow), y, true
		}
	}
	return d.params.FixedBand, 0, false
}

// Decode runs the full pipeline on one page
func (d *Decoder) Decode(page PageGraphics) Result {
	band, anchorY, found := d.BandFor(page.Spans)
	candidates := CollectCandidates(page.Drawings, band)

	res := Result{
		Band:        band,
		AnchorFound: found,
		AnchorY:     anchorY,
		Candidates:  len(candidates),
		Method:      MethodNone,
	}

	m, ok := MatchSlot(candidates, d.params.Slots, d.params.Tolerance, d.classifier)
	res.ActiveShapes = m.ActiveShapes
	if !ok {
		return res
	}
	res.Grade = m.Slot.Index
	res.Decoded = true
	res.Votes = m.Votes
	res.Method = m.Method
	return res
}

// Explain returns the classification of every candidate in the page's band,
// for diagnostics.
func (d *Decoder) Explain(page PageGraphics) (Result, []ClassifiedShape) {
	res := d.Decode(page)
	candidates := CollectCandidates(page.Drawings, res.Band)
	out := make([]ClassifiedShape, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, ClassifiedShape{Shape: c, Category: d.classifier.Classify(c.Fill)})
	}
	return res, out
}

// ClassifiedShape pairs a candidate with its color category
type ClassifiedShape struct {
	Shape    Shape         `json:"shape"`
	Category ColorCategory `json:"-"`
}

// MarshalJSON renders the category by name
func (c ClassifiedShape) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Shape    Shape  `json:"shape"`
		Category string `json:"category"`
	}{c.Shape, c.Category.String()})
}
