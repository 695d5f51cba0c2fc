package pdf

import "github.com/benny2744/capstone-status/internal/decoder"

// FileInfo represents information about a report file on disk
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Page is one page of a report as seen by the decoder
type Page struct {
	Number   int             `json:"number"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	Text     string          `json:"text"`
	Spans    []decoder.Span  `json:"spans"`
	Drawings []decoder.Shape `json:"drawings"`
}

// Graphics returns the text layout and drawings the decoder consumes
func (p *Page) Graphics() decoder.PageGraphics {
	return decoder.PageGraphics{Spans: p.Spans, Drawings: p.Drawings}
}

// Document is a fully loaded report. Pages that could not be read are
// listed in PageErrors and are absent from Pages.
type Document struct {
	Path       string  `json:"path"`
	PageCount  int     `json:"page_count"`
	Pages      []Page  `json:"pages"`
	PageErrors []error `json:"-"`
}

// Inspection is the structural summary produced before decoding
type Inspection struct {
	Path      string `json:"path"`
	PageCount int    `json:"page_count"`
	Version   string `json:"version"`
	Encrypted bool   `json:"encrypted"`
}
