package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `课程成绩
F 萌芽[1] 生长[2] 掌握[3] 精熟[4] 超越[5]
教师: 王老师
教师建议
课堂表现积极，作业完成认真。
希望继续保持。
数学分析
高光时刻
完成了期中项目展示
数学分析`

func TestQualifies(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "grade page", text: samplePage, want: true},
		{name: "heading only", text: "课程成绩\n数学", want: false},
		{name: "scale only", text: "萌芽 掌握 精熟", want: false},
		{name: "heading and one marker", text: "课程成绩 精熟", want: true},
		{name: "heading and unlisted marker", text: "课程成绩 超越 生长", want: false},
		{name: "empty", text: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Qualifies(tt.text))
		})
	}
}

func TestCourseName(t *testing.T) {
	name, ok := CourseName(samplePage)
	require.True(t, ok)
	assert.Equal(t, "数学分析", name)

	// lines with headings, scale labels or outside the length window are skipped
	name, ok = CourseName("物理学导论\n\n  高光时刻 \n  ab  \n教师: 李\n")
	require.True(t, ok)
	assert.Equal(t, "物理学导论", name)

	_, ok = CourseName("课程成绩\n掌握\nab")
	assert.False(t, ok)

	_, ok = CourseName(strings.Repeat("长", 40))
	assert.False(t, ok)

	// only the last 15 lines are considered
	lines := []string{"化学实验"}
	for i := 0; i < 15; i++ {
		lines = append(lines, "课程")
	}
	_, ok = CourseName(strings.Join(lines, "\n"))
	assert.False(t, ok)
}

func TestTeacher(t *testing.T) {
	teacher, ok := Teacher(samplePage)
	require.True(t, ok)
	assert.Equal(t, "王老师", teacher)

	teacher, ok = Teacher("任课教师：  Ms. Chen \n")
	require.True(t, ok)
	assert.Equal(t, "Ms. Chen", teacher)

	_, ok = Teacher("教师建议\n内容")
	assert.False(t, ok)
}

func TestFeedback(t *testing.T) {
	feedback, ok := Feedback(samplePage)
	require.True(t, ok)
	assert.Equal(t, "课堂表现积极，作业完成认真。\n希望继续保持。", feedback)

	// no highlight section: runs to the end of the page
	feedback, ok = Feedback("教师建议 \n多做练习题目，注意解题步骤的规范性，保持好的学习习惯")
	require.True(t, ok)
	assert.Equal(t, "多做练习题目，注意解题步骤的规范性，保持好的学习习惯", feedback)

	_, ok = Feedback("教师建议\n高光时刻")
	assert.False(t, ok)

	_, ok = Feedback("没有建议")
	assert.False(t, ok)

	long := strings.Repeat("好", 350)
	feedback, ok = Feedback("教师建议\n" + long)
	require.True(t, ok)
	assert.Equal(t, 300, len([]rune(feedback)))
}
