// Package batch decodes report documents into student records, one
// document per worker, skipping and reporting documents that fail.
package batch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/benny2744/capstone-status/internal/cache"
	"github.com/benny2744/capstone-status/internal/decoder"
	"github.com/benny2744/capstone-status/internal/pdf"
	"github.com/benny2744/capstone-status/internal/report"
)

// ErrUnidentified is returned for files whose name does not identify a student
var ErrUnidentified = errors.New("file name does not identify a student")

// Options tunes a Processor
type Options struct {
	Workers      int
	MaxFileSize  int64
	DefaultGrade int
	Summaries    bool
}

// Processor runs the per-document pipeline: inspect, load, gate, decode, assemble
type Processor struct {
	validator   *pdf.Validator
	loader      *pdf.Loader
	inspector   *pdf.Inspector
	search      *pdf.Search
	decoder     *decoder.Decoder
	assembler   *report.Assembler
	cache       cache.Store
	logger      *zap.Logger
	workers     int
	summaries   bool
	fingerprint string
}

// NewProcessor builds a processor. A nil store disables caching.
func NewProcessor(params decoder.Params, opts Options, store cache.Store, logger *zap.Logger) (*Processor, error) {
	d, err := decoder.New(params)
	if err != nil {
		return nil, err
	}
	assembler, err := report.NewAssembler(opts.DefaultGrade)
	if err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if store == nil {
		store = cache.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{
		validator:   pdf.NewValidator(opts.MaxFileSize),
		loader:      pdf.NewLoader(opts.MaxFileSize),
		inspector:   pdf.NewInspector(opts.MaxFileSize),
		search:      pdf.NewSearch(opts.MaxFileSize),
		decoder:     d,
		assembler:   assembler,
		cache:       store,
		logger:      logger,
		workers:     opts.Workers,
		summaries:   opts.Summaries,
		fingerprint: fmt.Sprintf("%s-%d-%t", params.Fingerprint(), opts.DefaultGrade, opts.Summaries),
	}, nil
}

// DocumentResult is the outcome of one document
type DocumentResult struct {
	Path            string          `json:"path"`
	Student         *report.Student `json:"student"`
	Pages           int             `json:"pages"`
	DefaultedGrades int             `json:"defaulted_grades"`
	PageErrors      []string        `json:"page_errors,omitempty"`
	Cached          bool            `json:"cached"`
}

// ProcessDocument decodes every course page of the report at path
func (p *Processor) ProcessDocument(ctx context.Context, path string) (*DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, ok := report.ParseFilename(path)
	if !ok {
		return nil, ErrUnidentified
	}

	// checked before hashing so oversized or foreign files are never read
	if err := p.validator.ValidateFile(path); err != nil {
		return nil, &pdf.DocumentError{Kind: pdf.ErrorKindValidate, Path: path, Err: err}
	}
	key, err := cache.FileKey(path, p.fingerprint)
	if err != nil {
		return nil, &pdf.DocumentError{Kind: pdf.ErrorKindOpen, Path: path, Err: err}
	}
	if entry := p.lookup(ctx, key, path); entry != nil {
		return &DocumentResult{
			Path:            path,
			Student:         entry.Student,
			Pages:           entry.Pages,
			DefaultedGrades: entry.DefaultedGrades,
			Cached:          true,
		}, nil
	}

	insp, err := p.inspector.Inspect(path)
	if err != nil {
		return nil, err
	}
	if insp.Encrypted {
		p.logger.Warn("report is encrypted, reading with the empty password", zap.String("path", path))
	}

	doc, err := p.loader.Load(path)
	if err != nil {
		if insp.Encrypted {
			return nil, &pdf.DocumentError{Kind: pdf.ErrorKindEncrypted, Path: path, Err: err}
		}
		return nil, err
	}

	res := &DocumentResult{
		Path:    path,
		Student: report.NewStudent(id),
		Pages:   doc.PageCount,
	}
	for _, perr := range doc.PageErrors {
		p.logger.Warn("skipping unreadable page", zap.String("path", path), zap.Error(perr))
		res.PageErrors = append(res.PageErrors, perr.Error())
	}

	for i := range doc.Pages {
		page := &doc.Pages[i]
		if !report.Qualifies(page.Text) {
			continue
		}
		course, ok := p.assembler.Assemble(page.Text, p.decoder.Decode(page.Graphics()))
		if !ok {
			p.logger.Debug("course page without a course name", zap.String("path", path), zap.Int("page", page.Number))
			continue
		}
		if course.Defaulted() {
			res.DefaultedGrades++
			p.logger.Debug("grade not decodable, using default",
				zap.String("path", path), zap.Int("page", page.Number), zap.String("course", course.Name))
		}
		res.Student.Courses = append(res.Student.Courses, course)
	}

	if p.summaries {
		res.Student.Summarize()
	}

	p.store(ctx, key, path, &cache.Entry{Student: res.Student, Pages: res.Pages, DefaultedGrades: res.DefaultedGrades})
	return res, nil
}

func (p *Processor) lookup(ctx context.Context, key, path string) *cache.Entry {
	entry, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("cache lookup failed", zap.String("path", path), zap.Error(err))
		return nil
	}
	if entry == nil || entry.Student == nil {
		return nil
	}
	return entry
}

func (p *Processor) store(ctx context.Context, key, path string, entry *cache.Entry) {
	if err := p.cache.Set(ctx, key, entry); err != nil {
		p.logger.Warn("cache store failed", zap.String("path", path), zap.Error(err))
	}
}
