package batch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/benny2744/capstone-status/internal/report"
)

// Failure is a document that could not be decoded
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Summary is the outcome of a batch run. Students is keyed by Chinese name;
// when two reports name the same student the later path wins.
type Summary struct {
	Students        map[string]*report.Student `json:"students"`
	Documents       int                        `json:"documents"`
	Succeeded       int                        `json:"succeeded"`
	Cached          int                        `json:"cached"`
	Pages           int                        `json:"pages"`
	Courses         int                        `json:"courses"`
	DefaultedGrades int                        `json:"defaulted_grades"`
	Skipped         []string                   `json:"skipped,omitempty"`
	Failures        []Failure                  `json:"failures,omitempty"`
	Cancelled       bool                       `json:"cancelled,omitempty"`
}

// ProcessDirectory finds the reports under dir matching pattern and runs them
func (p *Processor) ProcessDirectory(ctx context.Context, dir, pattern string) (*Summary, error) {
	files, err := p.search.FindReports(dir, pattern)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	p.logger.Info("found reports", zap.String("directory", dir), zap.Int("count", len(paths)))
	return p.Run(ctx, paths), nil
}

// Run decodes paths on up to Workers goroutines. A failing document is
// logged and recorded; the others continue. Once ctx is cancelled no new
// documents are started.
func (p *Processor) Run(ctx context.Context, paths []string) *Summary {
	results := make([]*DocumentResult, len(paths))
	errs := make([]error, len(paths))
	started := make([]bool, len(paths))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			results[i], errs[i] = p.processSafely(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	sum := &Summary{Students: make(map[string]*report.Student), Documents: len(paths)}
	for i, path := range paths {
		if !started[i] {
			sum.Cancelled = true
			sum.Failures = append(sum.Failures, Failure{Path: path, Error: context.Cause(ctx).Error()})
			continue
		}
		if err := errs[i]; err != nil {
			if errors.Is(err, ErrUnidentified) {
				p.logger.Warn("skipping report", zap.String("path", path), zap.Error(err))
				sum.Skipped = append(sum.Skipped, path)
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				sum.Cancelled = true
			}
			p.logger.Error("failed to process report", zap.String("path", path), zap.Error(err))
			sum.Failures = append(sum.Failures, Failure{Path: path, Error: err.Error()})
			continue
		}

		res := results[i]
		name := res.Student.ChineseName
		if _, dup := sum.Students[name]; dup {
			p.logger.Warn("student appears in more than one report, keeping the later one",
				zap.String("student", name), zap.String("path", path))
		}
		sum.Students[name] = res.Student
		sum.Succeeded++
		sum.Pages += res.Pages
		sum.Courses += len(res.Student.Courses)
		sum.DefaultedGrades += res.DefaultedGrades
		if res.Cached {
			sum.Cached++
		}
		p.logger.Info("processed report",
			zap.String("student", name),
			zap.Int("courses", len(res.Student.Courses)),
			zap.Int("defaulted", res.DefaultedGrades),
			zap.Bool("cached", res.Cached))
	}
	return sum
}

// processSafely converts a panic in one document into that document's error
func (p *Processor) processSafely(ctx context.Context, path string) (res *DocumentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic while processing document: %v", r)
		}
	}()
	return p.ProcessDocument(ctx, path)
}
