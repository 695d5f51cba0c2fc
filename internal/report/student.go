package report

import (
	"path/filepath"
	"regexp"
	"strings"
)

var filenamePattern = regexp.MustCompile(`——(.+?)\s+(.+?)\.pdf`)

// Identity is the student named by a report's file name
type Identity struct {
	ChineseName string
	EnglishName string
}

// ParseFilename extracts the student from names like
// "高中2025-2026学年第一学期成长画像——张三 Zhang San.pdf"
func ParseFilename(name string) (Identity, bool) {
	m := filenamePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return Identity{}, false
	}
	return Identity{ChineseName: m[1], EnglishName: m[2]}, true
}

// Student is the persisted record of one report
type Student struct {
	ChineseName string    `json:"chineseName"`
	EnglishName string    `json:"englishName"`
	Courses     []*Course `json:"courses"`

	AcademicStrength *string `json:"academicStrength,omitempty"`
	AcademicWeakness *string `json:"academicWeakness,omitempty"`
}

// NewStudent creates an empty record for id
func NewStudent(id Identity) *Student {
	return &Student{
		ChineseName: id.ChineseName,
		EnglishName: strings.TrimSpace(id.EnglishName),
		Courses:     []*Course{},
	}
}

// Summarize fills the academic strength and weakness lines from the courses
func (s *Student) Summarize() {
	sum := Summarize(s.Courses)
	s.AcademicStrength = sum.Strength
	s.AcademicWeakness = sum.Weakness
}
