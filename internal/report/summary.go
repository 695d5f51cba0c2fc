package report

import (
	"fmt"
	"strings"
)

var gradeLabels = map[int]string{
	5: "超越[5]",
	4: "精熟[4]",
	3: "掌握[3]",
	2: "生长[2]",
	1: "萌芽[1]",
	0: "F",
}

// GradeLabel returns the scale label of a grade, 掌握[3] for unknown grades
func GradeLabel(grade int) string {
	if l, ok := gradeLabels[grade]; ok {
		return l
	}
	return gradeLabels[DefaultGrade]
}

// invalidNameParts mark course names that are really scale labels or headings
var invalidNameParts = []string{"超越", "精熟", "掌握", "萌芽", "生长", "None", "高光"}

// CleanCourseName trims a course name and rejects names that are scale
// labels or headings picked up by mistake
func CleanCourseName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || containsAny(name, invalidNameParts) {
		return "", false
	}
	return name, true
}

// Summary holds the one-line academic strength and weakness of a student
type Summary struct {
	Strength *string `json:"strength"`
	Weakness *string `json:"weakness"`
}

// Summarize names the first high-graded (4 or 5) and first low-graded
// (1 or 2) course, with a count of the others
func Summarize(courses []*Course) Summary {
	var high, low []string
	for _, c := range courses {
		name, ok := CleanCourseName(c.Name)
		if !ok {
			continue
		}
		switch {
		case c.GradeNum >= 4:
			high = append(high, name)
		case c.GradeNum <= 2:
			low = append(low, name)
		}
	}
	return Summary{
		Strength: summaryLine("Excels in", high),
		Weakness: summaryLine("Needs improvement in", low),
	}
}

func summaryLine(prefix string, names []string) *string {
	if len(names) == 0 {
		return nil
	}
	line := fmt.Sprintf("%s %s", prefix, names[0])
	if len(names) > 1 {
		line += fmt.Sprintf(" and %d other course(s)", len(names)-1)
	}
	return &line
}
