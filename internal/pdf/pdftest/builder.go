// Package pdftest writes small but well-formed PDF files for tests. Text is
// set in a Type0 font with a ToUnicode map so any BMP character round-trips.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

const (
	// PageWidth and PageHeight are the A4 MediaBox every page inherits
	PageWidth  = 595.0
	PageHeight = 842.0

	bfcharChunk = 100
)

// Text is a run of characters with its baseline at (X, Y), Y measured down
// from the top of the page.
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Rect is a filled rectangle with its top-left corner at (X, Y)
type Rect struct {
	X, Y, W, H float64
	R, G, B    float64
}

// Form is a form XObject listed in its page's /XObject resources under Name.
// Content uses raw PDF coordinates. Uses names the page forms placed in the
// form's own /Resources; a nil Uses omits /Resources so the form inherits
// the resources of whatever invokes it.
type Form struct {
	Name    string
	Matrix  []float64
	Content string
	Uses    []string
}

// PageSpec describes one page. Extra is appended verbatim to the content stream.
type PageSpec struct {
	Texts []Text
	Rects []Rect
	Forms []Form
	Extra string
}

// Builder accumulates pages and serializes them
type Builder struct {
	pages []PageSpec
}

// New returns an empty builder
func New() *Builder {
	return &Builder{}
}

// AddPage appends a page
func (b *Builder) AddPage(p PageSpec) *Builder {
	b.pages = append(b.pages, p)
	return b
}

// WriteFile writes the document to path
func (b *Builder) WriteFile(path string) error {
	return os.WriteFile(path, b.Bytes(), 0o644)
}

// Bytes serializes the document
func (b *Builder) Bytes() []byte {
	codes := b.assignCodes()

	// 1 catalog, 2 pages, 3 font, 4 descendant font, 5 ToUnicode,
	// then a page object and a content stream per page, then the forms
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(b.pages))
	for i := range b.pages {
		kids[i] = fmt.Sprintf("%d 0 R", 6+2*i)
	}
	objects = append(objects, fmt.Sprintf(
		"<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %s %s] >>",
		strings.Join(kids, " "), len(b.pages), num(PageWidth), num(PageHeight)))

	objects = append(objects,
		"<< /Type /Font /Subtype /Type0 /BaseFont /TestSans /Encoding /Identity-H /DescendantFonts [4 0 R] /ToUnicode 5 0 R >>",
		"<< /Type /Font /Subtype /CIDFontType2 /BaseFont /TestSans /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /DW 1000 >>",
		stream(toUnicode(codes)),
	)

	formObjs := make([]map[string]int, len(b.pages))
	next := 6 + 2*len(b.pages)
	for i, p := range b.pages {
		formObjs[i] = make(map[string]int, len(p.Forms))
		for _, f := range p.Forms {
			formObjs[i][f.Name] = next
			next++
		}
	}

	for i, p := range b.pages {
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >>%s >> /Contents %d 0 R >>",
				xobjects(p.Forms, nil, formObjs[i]), 7+2*i),
			stream(content(p, codes)),
		)
	}
	for i, p := range b.pages {
		for _, f := range p.Forms {
			objects = append(objects, formStream(f, p.Forms, formObjs[i]))
		}
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(objects)+1)
	out.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return out.Bytes()
}

// assignCodes gives every distinct rune a two-byte code, starting at 1
func (b *Builder) assignCodes() map[rune]uint16 {
	codes := make(map[rune]uint16)
	next := uint16(1)
	for _, p := range b.pages {
		for _, t := range p.Texts {
			for _, r := range t.S {
				if _, ok := codes[r]; !ok {
					codes[r] = next
					next++
				}
			}
		}
	}
	return codes
}

func content(p PageSpec, codes map[rune]uint16) string {
	var s strings.Builder
	for _, r := range p.Rects {
		fmt.Fprintf(&s, "%s %s %s rg %s %s %s %s re f\n",
			num(r.R), num(r.G), num(r.B),
			num(r.X), num(PageHeight-r.Y-r.H), num(r.W), num(r.H))
	}
	for _, t := range p.Texts {
		size := t.Size
		if size == 0 {
			size = 12
		}
		var hex strings.Builder
		for _, r := range t.S {
			fmt.Fprintf(&hex, "%04X", codes[r])
		}
		fmt.Fprintf(&s, "BT /F1 %s Tf 1 0 0 1 %s %s Tm <%s> Tj ET\n",
			num(size), num(t.X), num(PageHeight-t.Y), hex.String())
	}
	s.WriteString(p.Extra)
	return s.String()
}

func toUnicode(codes map[rune]uint16) string {
	byCode := make([]rune, len(codes)+1)
	for r, c := range codes {
		byCode[c] = r
	}

	var s strings.Builder
	s.WriteString("/CIDInit /ProcSet findresource begin\n12 dict begin\nbegincmap\n")
	s.WriteString("/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def\n")
	s.WriteString("/CMapName /Test-UCS def\n/CMapType 2 def\n")
	s.WriteString("1 begincodespacerange\n<0000> <FFFF>\nendcodespacerange\n")

	entries := byCode[1:]
	for start := 0; start < len(entries); start += bfcharChunk {
		end := start + bfcharChunk
		if end > len(entries) {
			end = len(entries)
		}
		fmt.Fprintf(&s, "%d beginbfchar\n", end-start)
		for i := start; i < end; i++ {
			fmt.Fprintf(&s, "<%04X> <%04X>\n", i+1, entries[i])
		}
		s.WriteString("endbfchar\n")
	}

	s.WriteString("endcmap\nCMapName currentdict /CMap defineresource pop\nend\nend\n")
	return s.String()
}

// xobjects renders an /XObject entry for the forms named in only, or for
// every form when only is nil
func xobjects(forms []Form, only []string, objs map[string]int) string {
	var entries []string
	for _, f := range forms {
		if only != nil && !contains(only, f.Name) {
			continue
		}
		entries = append(entries, fmt.Sprintf("/%s %d 0 R", f.Name, objs[f.Name]))
	}
	if len(entries) == 0 {
		return ""
	}
	return " /XObject << " + strings.Join(entries, " ") + " >>"
}

func formStream(f Form, pageForms []Form, objs map[string]int) string {
	var dict strings.Builder
	fmt.Fprintf(&dict, "<< /Type /XObject /Subtype /Form /BBox [0 0 %s %s]", num(PageWidth), num(PageHeight))
	if len(f.Matrix) == 6 {
		m := make([]string, 6)
		for i, v := range f.Matrix {
			m[i] = num(v)
		}
		fmt.Fprintf(&dict, " /Matrix [%s]", strings.Join(m, " "))
	}
	if f.Uses != nil {
		fmt.Fprintf(&dict, " /Resources <<%s >>", xobjects(pageForms, f.Uses, objs))
	}
	fmt.Fprintf(&dict, " /Length %d >>\nstream\n%s\nendstream", len(f.Content), f.Content)
	return dict.String()
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func stream(data string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(data), data)
}

func num(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
