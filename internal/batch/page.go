package batch

import (
	"github.com/benny2744/capstone-status/internal/decoder"
	"github.com/benny2744/capstone-status/internal/report"
)

// PageReport explains how one page was decoded
type PageReport struct {
	Path       string                    `json:"path"`
	Page       int                       `json:"page"`
	Qualifies  bool                      `json:"qualifies"`
	Result     decoder.Result            `json:"result"`
	GradeLabel string                    `json:"grade_label,omitempty"`
	Candidates []decoder.ClassifiedShape `json:"candidates"`
	Course     *report.Course            `json:"course,omitempty"`
}

// ExplainPage decodes a single page and reports every candidate shape
// with its color category. Pages that are not course pages are still
// decoded so their geometry can be inspected.
func (p *Processor) ExplainPage(path string, num int) (*PageReport, error) {
	page, err := p.loader.LoadPage(path, num)
	if err != nil {
		return nil, err
	}

	res, shapes := p.decoder.Explain(page.Graphics())
	pr := &PageReport{
		Path:       path,
		Page:       num,
		Qualifies:  report.Qualifies(page.Text),
		Result:     res,
		Candidates: shapes,
	}
	if res.Decoded {
		pr.GradeLabel = report.GradeLabel(res.Grade)
	}
	if pr.Qualifies {
		if course, ok := p.assembler.Assemble(page.Text, res); ok {
			pr.Course = course
		}
	}
	return pr, nil
}
