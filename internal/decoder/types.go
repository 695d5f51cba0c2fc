package decoder

import "fmt"

// RGB is a fill color with each channel in [0,1]
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

func (c RGB) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", c.R, c.G, c.B)
}

// Rect is an axis-aligned box in page space. The origin is the top-left
// corner of the page and Y grows downward, so Y0 is the top edge.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// CenterX returns the horizontal center of the box
func (r Rect) CenterX() float64 {
	return (r.X0 + r.X1) / 2
}

// IsEmpty reports whether the box has no area and no extent at all
func (r Rect) IsEmpty() bool {
	return r.X0 == 0 && r.Y0 == 0 && r.X1 == 0 && r.Y1 == 0
}

// Shape is a vector drawing primitive: a bounding box and an optional fill
type Shape struct {
	Box  Rect `json:"box"`
	Fill *RGB `json:"fill,omitempty"`
}

// Span is a run of text with the baseline origin of its first glyph
type Span struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PageGraphics is everything the decoder needs from a single page
type PageGraphics struct {
	Spans    []Span
	Drawings []Shape
}

// Slot is one fixed horizontal grade position
type Slot struct {
	Index   int     `json:"index" mapstructure:"index"`
	CenterX float64 `json:"center_x" mapstructure:"center_x"`
	Label   string  `json:"label" mapstructure:"label"`
}

const (
	MinGrade = 0
	MaxGrade = 5
)

// DefaultSlots returns the six grade positions of the growth portrait scale bar
func DefaultSlots() []Slot {
	return []Slot{
		{Index: 0, CenterX: 60, Label: "F"},
		{Index: 1, CenterX: 143, Label: "萌芽"},
		{Index: 2, CenterX: 223, Label: "生长"},
		{Index: 3, CenterX: 303, Label: "掌握"},
		{Index: 4, CenterX: 383, Label: "精熟"},
		{Index: 5, CenterX: 462, Label: "超越"},
	}
}
