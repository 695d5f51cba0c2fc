package report

import (
	"fmt"

	"github.com/benny2744/capstone-status/internal/decoder"
)

// DefaultGrade is recorded when a qualifying page has no decodable grade
const DefaultGrade = 3

// Course is one course record of a student
type Course struct {
	Name     string  `json:"name"`
	Teacher  *string `json:"teacher"`
	GradeNum int     `json:"gradeNum"`
	Feedback *string `json:"feedback"`

	// Decode is the decoder outcome behind GradeNum
	Decode decoder.Result `json:"-"`
}

// Defaulted reports whether GradeNum was filled in rather than decoded
func (c *Course) Defaulted() bool {
	return !c.Decode.Decoded
}

// Assembler turns a decoded page into a Course record
type Assembler struct {
	defaultGrade int
}

// NewAssembler creates an assembler that records defaultGrade for pages
// whose grade could not be decoded
func NewAssembler(defaultGrade int) (*Assembler, error) {
	if defaultGrade < decoder.MinGrade || defaultGrade > decoder.MaxGrade {
		return nil, fmt.Errorf("default grade %d outside [%d,%d]", defaultGrade, decoder.MinGrade, decoder.MaxGrade)
	}
	return &Assembler{defaultGrade: defaultGrade}, nil
}

// Assemble builds the course record for a page's text and decode result.
// It returns false when the page has no recognizable course name.
func (a *Assembler) Assemble(text string, res decoder.Result) (*Course, bool) {
	name, ok := CourseName(text)
	if !ok {
		return nil, false
	}

	course := &Course{
		Name:     name,
		GradeNum: res.GradeOr(a.defaultGrade),
		Decode:   res,
	}
	if teacher, ok := Teacher(text); ok {
		course.Teacher = &teacher
	}
	if feedback, ok := Feedback(text); ok {
		course.Feedback = &feedback
	}
	return course, true
}
