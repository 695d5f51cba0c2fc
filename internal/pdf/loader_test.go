package pdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benny2744/capstone-status/internal/decoder"
	"github.com/benny2744/capstone-status/internal/pdf/pdftest"
)

const testMaxFileSize = 10 * 1024 * 1024

func writeReport(t *testing.T, b *pdftest.Builder) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, b.WriteFile(path))
	return path
}

func TestLoader_Load(t *testing.T) {
	b := pdftest.New().
		AddPage(pdftest.PageSpec{
			Texts: []pdftest.Text{{X: 40, Y: 80, S: "封面"}},
		}).
		AddPage(pdftest.PageSpec{
			Texts: []pdftest.Text{
				{X: 40, Y: 120, S: "课程成绩"},
				{X: 290, Y: 400, S: "掌握"},
			},
			Rects: []pdftest.Rect{{X: 455, Y: 390, W: 20, H: 12, R: 0.075, G: 0.671, B: 0.871}},
		})
	path := writeReport(t, b)

	doc, err := NewLoader(testMaxFileSize).Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount)
	assert.Empty(t, doc.PageErrors)
	require.Len(t, doc.Pages, 2)

	cover := doc.Pages[0]
	assert.Equal(t, 1, cover.Number)
	assert.Equal(t, "封面", cover.Text)
	assert.Empty(t, cover.Drawings)

	page := doc.Pages[1]
	assert.Equal(t, 2, page.Number)
	assert.InDelta(t, pdftest.PageWidth, page.Width, 0.001)
	assert.InDelta(t, pdftest.PageHeight, page.Height, 0.001)
	assert.Equal(t, "课程成绩\n掌握", page.Text)

	require.Len(t, page.Spans, 2)
	assert.Equal(t, "掌握", page.Spans[1].Text)
	assert.InDelta(t, 290, page.Spans[1].X, 0.001)
	assert.InDelta(t, 400, page.Spans[1].Y, 0.001)

	require.Len(t, page.Drawings, 1)
	shape := page.Drawings[0]
	assert.InDelta(t, 455, shape.Box.X0, 0.001)
	assert.InDelta(t, 390, shape.Box.Y0, 0.001)
	assert.InDelta(t, 475, shape.Box.X1, 0.001)
	assert.InDelta(t, 402, shape.Box.Y1, 0.001)
	require.NotNil(t, shape.Fill)
	assert.InDelta(t, 0.075, shape.Fill.R, 1e-9)
	assert.InDelta(t, 0.671, shape.Fill.G, 1e-9)
	assert.InDelta(t, 0.871, shape.Fill.B, 1e-9)

	// the loaded page decodes end to end
	d, err := decoder.New(decoder.DefaultParams())
	require.NoError(t, err)
	res := d.Decode(page.Graphics())
	assert.True(t, res.Decoded)
	assert.Equal(t, 5, res.Grade)
}

func TestLoader_NormalizesCompatibilityCharacters(t *testing.T) {
	// U+2FBC is the Kangxi radical that renders like 高
	path := writeReport(t, pdftest.New().AddPage(pdftest.PageSpec{
		Texts: []pdftest.Text{{X: 40, Y: 100, S: "\u2fbc光时刻"}},
	}))

	page, err := NewLoader(testMaxFileSize).LoadPage(path, 1)
	require.NoError(t, err)
	assert.Equal(t, "高光时刻", page.Text)
}

func TestLoader_LoadPage_InvalidNumber(t *testing.T) {
	path := writeReport(t, pdftest.New().AddPage(pdftest.PageSpec{}))
	loader := NewLoader(testMaxFileSize)

	for _, n := range []int{0, 2, -1} {
		_, err := loader.LoadPage(path, n)
		require.Error(t, err)

		var docErr *DocumentError
		require.True(t, errors.As(err, &docErr))
		assert.Equal(t, ErrorKindPage, docErr.Kind)
		assert.Equal(t, n, docErr.Page)
	}
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.pdf")
	require.NoError(t, os.WriteFile(corrupt, []byte("%PDF-1.7\nthis is not a pdf body\n"), 0o644))

	tests := []struct {
		name string
		path string
		kind ErrorKind
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.pdf"), kind: ErrorKindValidate},
		{name: "empty path", path: "", kind: ErrorKindValidate},
		{name: "corrupt file", path: corrupt, kind: ErrorKindOpen},
	}

	loader := NewLoader(testMaxFileSize)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(tt.path)
			require.Error(t, err)

			var docErr *DocumentError
			require.True(t, errors.As(err, &docErr))
			assert.Equal(t, tt.kind, docErr.Kind)
			assert.Equal(t, tt.path, docErr.Path)
		})
	}
}

func TestDocumentError_Error(t *testing.T) {
	inner := errors.New("boom")
	err := &DocumentError{Kind: ErrorKindPage, Path: "a.pdf", Page: 3, Err: inner}
	assert.Equal(t, "page error in a.pdf page 3: boom", err.Error())
	assert.ErrorIs(t, err, inner)

	err = &DocumentError{Kind: ErrorKindOpen, Path: "a.pdf", Err: inner}
	assert.Equal(t, "open error in a.pdf: boom", err.Error())
}
