package report

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// QualifyingHeading marks a page that carries a course grade
	QualifyingHeading = "课程成绩"

	courseNameWindow = 15
	courseNameMinLen = 2
	courseNameMaxLen = 40
	feedbackHeading  = "教师建议"
	feedbackEnd      = "高光时刻"
	feedbackMaxRunes = 300
)

// scaleMarkers are grade-scale labels; any one of them confirms the scale is drawn
var scaleMarkers = []string{"萌芽", "掌握", "精熟"}

// courseNameSkip lists substrings of lines that are never a course name
var courseNameSkip = []string{"课程", "教师", "素养", "成绩", "建议", "高光", "超越", "精熟", "掌握", "生长", "萌芽"}

var (
	teacherPattern       = regexp.MustCompile(`教师[：:]\s*([^\n]+)`)
	feedbackStartPattern = regexp.MustCompile(feedbackHeading + `\s*\n`)
	trailingLinePattern  = regexp.MustCompile(`\n[^\n]{2,30}$`)
)

// Qualifies reports whether a page's text is a course-grade page
func Qualifies(text string) bool {
	if !strings.Contains(text, QualifyingHeading) {
		return false
	}
	for _, m := range scaleMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// CourseName picks the course title, which is drawn last on the page:
// the last short line among the final lines that is not a heading or scale label.
func CourseName(text string) (string, bool) {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(text), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > courseNameWindow {
		lines = lines[len(lines)-courseNameWindow:]
	}

	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if containsAny(line, courseNameSkip) {
			continue
		}
		if n := utf8.RuneCountInString(line); n > courseNameMinLen && n < courseNameMaxLen {
			return line, true
		}
	}
	return "", false
}

// Teacher returns the value following the first 教师: label
func Teacher(text string) (string, bool) {
	m := teacherPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	teacher := strings.TrimSpace(m[1])
	return teacher, teacher != ""
}

// Feedback returns the teacher's comment block, without the trailing title
// line the layout repeats under it, capped at 300 characters.
func Feedback(text string) (string, bool) {
	loc := feedbackStartPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	body := text[loc[1]:]
	if end := strings.Index(body, feedbackEnd); end >= 0 {
		body = body[:end]
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSpace(trailingLinePattern.ReplaceAllString(body, ""))
	if body == "" {
		return "", false
	}
	return truncateRunes(body, feedbackMaxRunes), true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
