package pdf

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Loader reads report pages: the text layout and the painted vector shapes
type Loader struct {
	validator *Validator
}

// NewLoader creates a loader that refuses files larger than maxFileSize
func NewLoader(maxFileSize int64) *Loader {
	return &Loader{validator: NewValidator(maxFileSize)}
}

// Load reads every page of the document at path. A page that fails to parse
// is recorded in Document.PageErrors; only failures to open the document
// itself are returned as an error.
func (l *Loader) Load(path string) (*Document, error) {
	if err := l.validator.ValidateFile(path); err != nil {
		return nil, &DocumentError{Kind: ErrorKindValidate, Path: path, Err: err}
	}

	f, reader, err := open(path)
	if err != nil {
		return nil, &DocumentError{Kind: ErrorKindOpen, Path: path, Err: err}
	}
	defer f.Close()

	doc := &Document{Path: path, PageCount: reader.NumPage()}
	for num := 1; num <= doc.PageCount; num++ {
		page, err := readPage(reader, num)
		if err != nil {
			doc.PageErrors = append(doc.PageErrors, &DocumentError{Kind: ErrorKindPage, Path: path, Page: num, Err: err})
			continue
		}
		doc.Pages = append(doc.Pages, *page)
	}
	return doc, nil
}

// LoadPage reads a single page, numbered from 1
func (l *Loader) LoadPage(path string, num int) (*Page, error) {
	if err := l.validator.ValidateFile(path); err != nil {
		return nil, &DocumentError{Kind: ErrorKindValidate, Path: path, Err: err}
	}

	f, reader, err := open(path)
	if err != nil {
		return nil, &DocumentError{Kind: ErrorKindOpen, Path: path, Err: err}
	}
	defer f.Close()

	if num < 1 || num > reader.NumPage() {
		return nil, &DocumentError{
			Kind: ErrorKindPage,
			Path: path,
			Page: num,
			Err:  fmt.Errorf("invalid page number %d (document has %d pages)", num, reader.NumPage()),
		}
	}
	page, err := readPage(reader, num)
	if err != nil {
		return nil, &DocumentError{Kind: ErrorKindPage, Path: path, Page: num, Err: err}
	}
	return page, nil
}

// closer is the part of *os.File the loader needs
type closer interface {
	Close() error
}

// open wraps pdf.Open, which panics on some malformed trailers
func open(path string) (f closer, reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			if f != nil {
				f.Close()
			}
			f, reader, err = nil, nil, fmt.Errorf("panic opening PDF: %v", r)
		}
	}()

	file, r, err := pdf.Open(path)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return nil, nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return file, r, nil
}

// readPage extracts one page. The underlying parser reports malformed
// content streams by panicking, so panics become errors here.
func readPage(reader *pdf.Reader, num int) (page *Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			page, err = nil, fmt.Errorf("panic during page extraction: %v", r)
		}
	}()

	p := reader.Page(num)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d is missing", num)
	}

	box := mediaBox(p.V)
	spans := buildSpans(p.Content().Text, box)

	return &Page{
		Number:   num,
		Width:    box.width(),
		Height:   box.height(),
		Text:     plainText(spans),
		Spans:    spans,
		Drawings: traceDrawings(p, box),
	}, nil
}
