package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name string
		file string
		want Identity
		ok   bool
	}{
		{
			name: "standard report",
			file: "高中2025-2026学年第一学期成长画像——张三 Zhang San.pdf",
			want: Identity{ChineseName: "张三", EnglishName: "Zhang San"},
			ok:   true,
		},
		{
			name: "full path",
			file: "/reports/term1/成长画像——李四 Leo.pdf",
			want: Identity{ChineseName: "李四", EnglishName: "Leo"},
			ok:   true,
		},
		{name: "no separator", file: "张三 Zhang.pdf"},
		{name: "no english name", file: "成长画像——张三.pdf"},
		{name: "upper case extension", file: "成长画像——张三 Zhang.PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFilename(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStudent_Summarize(t *testing.T) {
	s := NewStudent(Identity{ChineseName: "张三", EnglishName: "Zhang San "})
	assert.Equal(t, "Zhang San", s.EnglishName)
	assert.NotNil(t, s.Courses)

	s.Courses = append(s.Courses, &Course{Name: "数学", GradeNum: 5}, &Course{Name: "物理", GradeNum: 1})
	s.Summarize()
	require.NotNil(t, s.AcademicStrength)
	assert.Equal(t, "Excels in 数学", *s.AcademicStrength)
	require.NotNil(t, s.AcademicWeakness)
	assert.Equal(t, "Needs improvement in 物理", *s.AcademicWeakness)
}
