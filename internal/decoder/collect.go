package decoder

import (
	"fmt"
	"strings"
)

// LocateAnchor returns the baseline of the first span whose trimmed text is
// exactly label. Pages that omit the scale text have no anchor.
func LocateAnchor(spans []Span, label string) (float64, bool) {
	for _, s := range spans {
		if strings.TrimSpace(s.Text) == label {
			return s.Y, true
		}
	}
	return 0, false
}

// Band is a vertical search window. Max is always exclusive; Min is
// inclusive only when IncludeMin is set.
type Band struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	IncludeMin bool    `json:"include_min"`
}

// AnchorBand is the half-open band [anchorY-above, anchorY+below)
func AnchorBand(anchorY, above, below float64) Band {
	return Band{Min: anchorY - above, Max: anchorY + below, IncludeMin: true}
}

// FixedBand is the open band (lo, hi) used when no anchor is available
func FixedBand(lo, hi float64) Band {
	return Band{Min: lo, Max: hi}
}

// Contains reports whether y falls inside the band
func (b Band) Contains(y float64) bool {
	if y >= b.Max {
		return false
	}
	if b.IncludeMin {
		return y >= b.Min
	}
	return y > b.Min
}

func (b Band) String() string {
	open := "("
	if b.IncludeMin {
		open = "["
	}
	return fmt.Sprintf("%s%.1f, %.1f)", open, b.Min, b.Max)
}

// CollectCandidates keeps drawings that have both a box and a fill and whose
// top edge lies in band. Input order is preserved and duplicates are kept:
// one indicator is usually drawn as several stacked shapes.
func CollectCandidates(drawings []Shape, band Band) []Shape {
	var out []Shape
	for _, d := range drawings {
		if d.Fill == nil || d.Box.IsEmpty() {
			continue
		}
		if band.Contains(d.Box.Y0) {
			out = append(out, d)
		}
	}
	return out
}
