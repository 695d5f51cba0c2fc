package pdf

import (
	"math"

	"github.com/ledongthuc/pdf"

	"github.com/benny2744/capstone-status/internal/decoder"
)

// maxFormDepth bounds recursion into nested form XObjects
const maxFormDepth = 8

// matrix is a PDF transformation [a b c d e f]
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m followed by n
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return x*m[0] + y*m[2] + m[4], x*m[1] + y*m[3] + m[5]
}

type graphicsState struct {
	ctm  matrix
	fill *decoder.RGB
}

// pathBounds accumulates the user-space bounding box of the current path
type pathBounds struct {
	minX, minY, maxX, maxY float64
	has                    bool
}

func (p *pathBounds) add(x, y float64) {
	if !p.has {
		p.minX, p.maxX, p.minY, p.maxY = x, x, y, y
		p.has = true
		return
	}
	p.minX = math.Min(p.minX, x)
	p.maxX = math.Max(p.maxX, x)
	p.minY = math.Min(p.minY, y)
	p.maxY = math.Max(p.maxY, y)
}

// tracer replays a page's content streams and records every painted path
// as a decoder.Shape in top-left page coordinates.
type tracer struct {
	box      pageBox
	gs       graphicsState
	stack    []graphicsState
	floor    int
	path     pathBounds
	drawings []decoder.Shape
}

func newTracer(box pageBox) *tracer {
	black := decoder.RGB{}
	return &tracer{box: box, gs: graphicsState{ctm: identity, fill: &black}}
}

// traceDrawings returns every painted path on the page
func traceDrawings(page pdf.Page, box pageBox) []decoder.Shape {
	t := newTracer(box)
	t.run(page.V.Key("Contents"), page.Resources(), 0)
	return t.drawings
}

// run interprets a content stream, or each stream of a /Contents array in order
func (t *tracer) run(contents, resources pdf.Value, depth int) {
	switch contents.Kind() {
	case pdf.Array:
		for i := 0; i < contents.Len(); i++ {
			t.run(contents.Index(i), resources, depth)
		}
	case pdf.Stream:
		pdf.Interpret(contents, func(stk *pdf.Stack, op string) {
			n := stk.Len()
			args := make([]pdf.Value, n)
			for i := n - 1; i >= 0; i-- {
				args[i] = stk.Pop()
			}
			t.op(op, args, resources, depth)
		})
	}
}

func (t *tracer) op(op string, args []pdf.Value, resources pdf.Value, depth int) {
	switch op {
	case "q":
		t.stack = append(t.stack, t.gs)
	case "Q":
		if n := len(t.stack); n > t.floor {
			t.gs = t.stack[n-1]
			t.stack = t.stack[:n-1]
		}
	case "cm":
		if len(args) == 6 {
			t.gs.ctm = toMatrix(args).mul(t.gs.ctm)
		}

	case "g":
		if len(args) == 1 {
			t.setFill(grayColor(args[0].Float64()))
		}
	case "rg":
		if len(args) == 3 {
			t.setFill(&decoder.RGB{R: args[0].Float64(), G: args[1].Float64(), B: args[2].Float64()})
		}
	case "k":
		if len(args) == 4 {
			t.setFill(cmykColor(args[0].Float64(), args[1].Float64(), args[2].Float64(), args[3].Float64()))
		}
	case "cs":
		black := decoder.RGB{}
		t.setFill(&black)
	case "sc", "scn":
		t.setFill(componentColor(args))

	case "m", "l":
		if len(args) == 2 {
			t.addPoint(args[0].Float64(), args[1].Float64())
		}
	case "c":
		if len(args) == 6 {
			for i := 0; i < 6; i += 2 {
				t.addPoint(args[i].Float64(), args[i+1].Float64())
			}
		}
	case "v", "y":
		if len(args) == 4 {
			t.addPoint(args[0].Float64(), args[1].Float64())
			t.addPoint(args[2].Float64(), args[3].Float64())
		}
	case "re":
		if len(args) == 4 {
			x, y, w, h := args[0].Float64(), args[1].Float64(), args[2].Float64(), args[3].Float64()
			t.addPoint(x, y)
			t.addPoint(x+w, y)
			t.addPoint(x, y+h)
			t.addPoint(x+w, y+h)
		}

	case "f", "F", "f*", "B", "B*", "b", "b*":
		t.paint(t.gs.fill)
	case "S", "s":
		t.paint(nil)
	case "n":
		t.path = pathBounds{}

	case "Do":
		if len(args) == 1 && depth < maxFormDepth {
			t.form(resources.Key("XObject").Key(args[0].Name()), resources, depth)
		}
	}
}

func (t *tracer) setFill(c *decoder.RGB) {
	t.gs.fill = c
}

func (t *tracer) addPoint(x, y float64) {
	ux, uy := t.gs.ctm.apply(x, y)
	t.path.add(ux, uy)
}

// paint closes the current path into a shape. fill is nil for stroke-only paths.
func (t *tracer) paint(fill *decoder.RGB) {
	if !t.path.has {
		return
	}
	p := t.path
	t.path = pathBounds{}

	var c *decoder.RGB
	if fill != nil {
		cp := *fill
		c = &cp
	}
	t.drawings = append(t.drawings, decoder.Shape{
		Box: decoder.Rect{
			X0: p.minX - t.box.x0,
			Y0: t.box.toTop(p.maxY),
			X1: p.maxX - t.box.x0,
			Y1: t.box.toTop(p.minY),
		},
		Fill: c,
	})
}

// form replays a form XObject under its /Matrix. The graphics state is
// restored afterwards and the form cannot pop states it did not push.
func (t *tracer) form(xobj, parentResources pdf.Value, depth int) {
	if xobj.Kind() != pdf.Stream || xobj.Key("Subtype").Name() != "Form" {
		return
	}
	resources := xobj.Key("Resources")
	if resources.IsNull() {
		resources = parentResources
	}

	saved, savedFloor := t.gs, t.floor
	mark := len(t.stack)
	t.floor = mark

	if m := xobj.Key("Matrix"); m.Kind() == pdf.Array && m.Len() == 6 {
		vals := make([]pdf.Value, 6)
		for i := range vals {
			vals[i] = m.Index(i)
		}
		t.gs.ctm = toMatrix(vals).mul(t.gs.ctm)
	}
	t.run(xobj, resources, depth+1)

	t.stack = t.stack[:mark]
	t.gs, t.floor = saved, savedFloor
}

func toMatrix(args []pdf.Value) matrix {
	var m matrix
	for i := 0; i < 6; i++ {
		m[i] = args[i].Float64()
	}
	return m
}

func grayColor(v float64) *decoder.RGB {
	return &decoder.RGB{R: v, G: v, B: v}
}

// cmykColor uses the naive conversion PDF viewers fall back to
func cmykColor(c, m, y, k float64) *decoder.RGB {
	return &decoder.RGB{
		R: 1 - math.Min(1, c+k),
		G: 1 - math.Min(1, m+k),
		B: 1 - math.Min(1, y+k),
	}
}

// componentColor interprets sc/scn operands by component count. A trailing
// name selects a pattern, which has no single fill color.
func componentColor(args []pdf.Value) *decoder.RGB {
	if len(args) > 0 && args[len(args)-1].Kind() == pdf.Name {
		return nil
	}
	switch len(args) {
	case 1:
		return grayColor(args[0].Float64())
	case 3:
		return &decoder.RGB{R: args[0].Float64(), G: args[1].Float64(), B: args[2].Float64()}
	case 4:
		return cmykColor(args[0].Float64(), args[1].Float64(), args[2].Float64(), args[3].Float64())
	}
	return nil
}
