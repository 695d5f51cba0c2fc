package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/benny2744/capstone-status/internal/cache"
	"github.com/benny2744/capstone-status/internal/decoder"
	"github.com/benny2744/capstone-status/internal/pdf"
	"github.com/benny2744/capstone-status/internal/pdf/pdftest"
	"github.com/benny2744/capstone-status/internal/report"
)

var slotCenters = map[int]float64{0: 60, 1: 143, 2: 223, 3: 303, 4: 383, 5: 462}

// coursePage lays out a grade page the way the portrait reports do. A
// negative grade draws no indicator.
func coursePage(course, teacher string, grade int) pdftest.PageSpec {
	spec := pdftest.PageSpec{
		Texts: []pdftest.Text{
			{X: 40, Y: 100, S: "课程成绩"},
			{X: 40, Y: 130, S: "教师：" + teacher},
			{X: 55, Y: 400, S: "F"},
			{X: 135, Y: 400, S: "萌芽"},
			{X: 215, Y: 400, S: "生长"},
			{X: 295, Y: 400, S: "掌握"},
			{X: 375, Y: 400, S: "精熟"},
			{X: 455, Y: 400, S: "超越"},
			{X: 40, Y: 480, S: "教师建议"},
			{X: 40, Y: 500, S: "课堂表现积极。"},
			{X: 40, Y: 520, S: "希望继续保持。"},
			{X: 40, Y: 540, S: course},
			{X: 40, Y: 560, S: "高光时刻"},
			{X: 40, Y: 580, S: "完成项目展示"},
			{X: 40, Y: 700, S: course},
		},
		// inactive slot backgrounds across the whole scale
		Rects: []pdftest.Rect{
			{X: 40, Y: 388, W: 440, H: 16, R: 0.004, G: 0.067, B: 0.239},
		},
	}
	if grade >= 0 {
		spec.Rects = append(spec.Rects, pdftest.Rect{
			X: slotCenters[grade] - 10, Y: 390, W: 20, H: 12,
			R: 0.075, G: 0.671, B: 0.871,
		})
	}
	return spec
}

func coverPage() pdftest.PageSpec {
	return pdftest.PageSpec{Texts: []pdftest.Text{{X: 40, Y: 100, S: "成长画像"}}}
}

type fixture struct {
	dir     string
	zhang   string
	li      string
	corrupt string
	unnamed string
}

func writeFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:     dir,
		zhang:   filepath.Join(dir, "成长画像——张三 Zhang San.pdf"),
		li:      filepath.Join(dir, "成长画像——李四 Li Si.pdf"),
		corrupt: filepath.Join(dir, "成长画像——王五 Wang Wu.pdf"),
		unnamed: filepath.Join(dir, "notes.pdf"),
	}

	require.NoError(t, pdftest.New().
		AddPage(coverPage()).
		AddPage(coursePage("数学分析", "王老师", 4)).
		AddPage(coursePage("物理与工程", "陈老师", -1)).
		WriteFile(f.zhang))
	require.NoError(t, pdftest.New().
		AddPage(coursePage("英语阅读", "Ms. Lee", 1)).
		WriteFile(f.li))
	require.NoError(t, os.WriteFile(f.corrupt, []byte("%PDF-1.7\nthis report was truncated"), 0o644))
	require.NoError(t, pdftest.New().AddPage(coverPage()).WriteFile(f.unnamed))
	return f
}

func newProcessor(t *testing.T, store cache.Store, opts Options) *Processor {
	t.Helper()
	if opts.Workers == 0 {
		opts.Workers = 2
	}
	if opts.MaxFileSize == 0 {
		opts.MaxFileSize = 10 * 1024 * 1024
	}
	if opts.DefaultGrade == 0 {
		opts.DefaultGrade = report.DefaultGrade
	}
	p, err := NewProcessor(decoder.DefaultParams(), opts, store, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestProcessDocument(t *testing.T) {
	f := writeFixture(t)
	p := newProcessor(t, nil, Options{})

	res, err := p.ProcessDocument(context.Background(), f.zhang)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pages)
	assert.False(t, res.Cached)
	assert.Empty(t, res.PageErrors)

	s := res.Student
	assert.Equal(t, "张三", s.ChineseName)
	assert.Equal(t, "Zhang San", s.EnglishName)
	require.Len(t, s.Courses, 2)

	math := s.Courses[0]
	assert.Equal(t, "数学分析", math.Name)
	assert.Equal(t, 4, math.GradeNum)
	assert.False(t, math.Defaulted())
	assert.True(t, math.Decode.AnchorFound)
	require.NotNil(t, math.Teacher)
	assert.Equal(t, "王老师", *math.Teacher)
	require.NotNil(t, math.Feedback)
	assert.Equal(t, "课堂表现积极。\n希望继续保持。", *math.Feedback)

	physics := s.Courses[1]
	assert.Equal(t, "物理与工程", physics.Name)
	assert.Equal(t, report.DefaultGrade, physics.GradeNum)
	assert.True(t, physics.Defaulted())
	assert.Equal(t, 1, res.DefaultedGrades)

	assert.Nil(t, s.AcademicStrength)
}

func TestProcessDocument_Summaries(t *testing.T) {
	f := writeFixture(t)
	p := newProcessor(t, nil, Options{Summaries: true})

	res, err := p.ProcessDocument(context.Background(), f.li)
	require.NoError(t, err)
	require.NotNil(t, res.Student.AcademicWeakness)
	assert.Equal(t, "Needs improvement in 英语阅读", *res.Student.AcademicWeakness)
	assert.Nil(t, res.Student.AcademicStrength)
}

func TestProcessDocument_Errors(t *testing.T) {
	f := writeFixture(t)
	p := newProcessor(t, nil, Options{})

	_, err := p.ProcessDocument(context.Background(), f.unnamed)
	assert.ErrorIs(t, err, ErrUnidentified)

	_, err = p.ProcessDocument(context.Background(), f.corrupt)
	require.Error(t, err)
	var docErr *pdf.DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.Equal(t, f.corrupt, docErr.Path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.ProcessDocument(ctx, f.zhang)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessDocument_ValidatesBeforeReading(t *testing.T) {
	f := writeFixture(t)
	store := cache.NewMemoryStore()
	p := newProcessor(t, store, Options{MaxFileSize: 64})

	tests := []struct {
		name string
		path string
	}{
		{"too large", f.zhang},
		{"missing", filepath.Join(f.dir, "成长画像——赵六 Zhao Liu.pdf")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ProcessDocument(context.Background(), tt.path)
			var docErr *pdf.DocumentError
			require.True(t, errors.As(err, &docErr), "got %v", err)
			assert.Equal(t, pdf.ErrorKindValidate, docErr.Kind)
			assert.Equal(t, tt.path, docErr.Path)
		})
	}
	assert.Equal(t, 0, store.Len())
}

func TestRun_SkipAndReport(t *testing.T) {
	f := writeFixture(t)
	p := newProcessor(t, nil, Options{Workers: 3})

	sum := p.Run(context.Background(), []string{f.zhang, f.corrupt, f.li, f.unnamed})
	assert.Equal(t, 4, sum.Documents)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 4, sum.Pages)
	assert.Equal(t, 3, sum.Courses)
	assert.Equal(t, 1, sum.DefaultedGrades)
	assert.Equal(t, []string{f.unnamed}, sum.Skipped)
	require.Len(t, sum.Failures, 1)
	assert.Equal(t, f.corrupt, sum.Failures[0].Path)
	assert.False(t, sum.Cancelled)

	require.Contains(t, sum.Students, "张三")
	require.Contains(t, sum.Students, "李四")
	assert.Equal(t, 1, sum.Students["李四"].Courses[0].GradeNum)
}

func TestRun_CachedSecondPass(t *testing.T) {
	f := writeFixture(t)
	store := cache.NewMemoryStore()
	p := newProcessor(t, store, Options{})

	first := p.Run(context.Background(), []string{f.zhang, f.li})
	assert.Equal(t, 0, first.Cached)
	assert.Equal(t, 2, store.Len())

	second := p.Run(context.Background(), []string{f.zhang, f.li})
	assert.Equal(t, 2, second.Cached)
	assert.Equal(t, first.Courses, second.Courses)
	assert.Equal(t, first.DefaultedGrades, second.DefaultedGrades)
	assert.Equal(t, 4, second.Students["张三"].Courses[0].GradeNum)

	// decoded and defaulted grades stay apart on cached courses
	for name, student := range first.Students {
		cached := second.Students[name]
		require.Len(t, cached.Courses, len(student.Courses))
		for i, c := range student.Courses {
			assert.Equal(t, c.Defaulted(), cached.Courses[i].Defaulted(), "%s %s", name, c.Name)
			assert.Equal(t, c.Decode, cached.Courses[i].Decode, "%s %s", name, c.Name)
		}
	}
	zhang := second.Students["张三"].Courses
	assert.False(t, zhang[0].Defaulted())
	assert.True(t, zhang[1].Defaulted())

	// different parameters do not reuse entries
	params := decoder.DefaultParams()
	params.Tolerance = 30
	other, err := NewProcessor(params, Options{Workers: 1, MaxFileSize: 10 << 20, DefaultGrade: 3}, store, zap.NewNop())
	require.NoError(t, err)
	third := other.Run(context.Background(), []string{f.zhang})
	assert.Equal(t, 0, third.Cached)
}

func TestRun_CancelledContext(t *testing.T) {
	f := writeFixture(t)
	p := newProcessor(t, nil, Options{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := p.Run(ctx, []string{f.zhang, f.li})
	assert.True(t, sum.Cancelled)
	assert.Equal(t, 0, sum.Succeeded)
	assert.Len(t, sum.Failures, 2)
	assert.Empty(t, sum.Students)
}

func TestProcessDirectory(t *testing.T) {
	f := writeFixture(t)
	p := newProcessor(t, nil, Options{})

	sum, err := p.ProcessDirectory(context.Background(), f.dir, "*——*.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Documents)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Empty(t, sum.Skipped)

	_, err = p.ProcessDirectory(context.Background(), filepath.Join(f.dir, "missing"), "")
	assert.Error(t, err)
}

func TestExplainPage(t *testing.T) {
	f := writeFixture(t)
	p := newProcessor(t, nil, Options{})

	pr, err := p.ExplainPage(f.zhang, 2)
	require.NoError(t, err)
	assert.True(t, pr.Qualifies)
	assert.True(t, pr.Result.Decoded)
	assert.Equal(t, 4, pr.Result.Grade)
	assert.Equal(t, "精熟[4]", pr.GradeLabel)
	require.NotNil(t, pr.Course)
	assert.Equal(t, "数学分析", pr.Course.Name)

	var active, inactive int
	for _, c := range pr.Candidates {
		switch c.Category {
		case decoder.Active:
			active++
		case decoder.Inactive:
			inactive++
		}
	}
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, inactive)

	pr, err = p.ExplainPage(f.zhang, 1)
	require.NoError(t, err)
	assert.False(t, pr.Qualifies)
	assert.False(t, pr.Result.Decoded)
	assert.Nil(t, pr.Course)

	_, err = p.ExplainPage(f.zhang, 9)
	assert.Error(t, err)
}

func TestNewProcessor_InvalidParams(t *testing.T) {
	params := decoder.DefaultParams()
	params.Slots = nil
	_, err := NewProcessor(params, Options{DefaultGrade: 3}, nil, nil)
	assert.Error(t, err)

	_, err = NewProcessor(decoder.DefaultParams(), Options{DefaultGrade: 7}, nil, nil)
	assert.Error(t, err)
}
