package pdf

import (
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/benny2744/capstone-status/internal/decoder"
)

const (
	// glyphs closer than this to the current baseline belong to the same span
	baselineTolerance = 0.5
	// rows are split when consecutive spans change baseline by more than this
	lineTolerance = 2.0
)

// pageBox is the MediaBox in PDF user space
type pageBox struct {
	x0, y0, x1, y1 float64
}

func (b pageBox) width() float64  { return b.x1 - b.x0 }
func (b pageBox) height() float64 { return b.y1 - b.y0 }

// toTop converts a user-space y coordinate to a top-left origin
func (b pageBox) toTop(y float64) float64 { return b.y1 - y }

var defaultBox = pageBox{x1: 595, y1: 842}

// mediaBox resolves the page's MediaBox, following /Parent for inherited boxes
func mediaBox(v pdf.Value) pageBox {
	node := v
	for depth := 0; depth < 32 && !node.IsNull(); depth++ {
		mb := node.Key("MediaBox")
		if mb.Kind() == pdf.Array && mb.Len() == 4 {
			b := pageBox{
				x0: mb.Index(0).Float64(),
				y0: mb.Index(1).Float64(),
				x1: mb.Index(2).Float64(),
				y1: mb.Index(3).Float64(),
			}
			if b.x0 > b.x1 {
				b.x0, b.x1 = b.x1, b.x0
			}
			if b.y0 > b.y1 {
				b.y0, b.y1 = b.y1, b.y0
			}
			if b.width() > 0 && b.height() > 0 {
				return b
			}
		}
		node = node.Key("Parent")
	}
	return defaultBox
}

// buildSpans groups per-glyph text into spans: consecutive glyphs in the same
// font on the same baseline whose advance leaves no visible gap.
func buildSpans(glyphs []pdf.Text, box pageBox) []decoder.Span {
	var (
		spans []decoder.Span
		cur   strings.Builder
		first pdf.Text
		last  pdf.Text
		open  bool
	)

	flush := func() {
		if !open {
			return
		}
		text := norm.NFKC.String(cur.String())
		if strings.TrimSpace(text) != "" {
			spans = append(spans, decoder.Span{
				Text: text,
				X:    first.X - box.x0,
				Y:    box.toTop(first.Y),
			})
		}
		cur.Reset()
		open = false
	}

	for _, g := range glyphs {
		if open && !continues(last, g) {
			flush()
		}
		if !open {
			first = g
			open = true
		}
		cur.WriteString(g.S)
		last = g
	}
	flush()
	return spans
}

func continues(prev, next pdf.Text) bool {
	if prev.Font != next.Font {
		return false
	}
	if math.Abs(prev.Y-next.Y) > baselineTolerance {
		return false
	}
	size := math.Max(prev.FontSize, 1)
	gap := next.X - (prev.X + prev.W)
	return gap >= -0.5*size && gap <= 0.5*size
}

// plainText joins spans into lines in content order. Spans sharing a baseline
// are separated by a space, a baseline change starts a new line.
func plainText(spans []decoder.Span) string {
	var b strings.Builder
	for i, s := range spans {
		if i > 0 {
			if math.Abs(s.Y-spans[i-1].Y) > lineTolerance {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
