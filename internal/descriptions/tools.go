package descriptions

// Tool descriptions shown to MCP clients

const (
	DecodeFileDescription = `Decode the course grades of one growth portrait report.

**When to use:** Need the grades, teachers and feedback of a single student's report.

**How it works:** The student is identified from the file name ("…——<中文名> <English Name>.pdf"). Every page headed 课程成绩 is a course page; its grade is read from the filled indicator drawn over the grade scale (F, 萌芽, 生长, 掌握, 精熟, 超越), not from the text.

**Examples:**
• "Decode 成长画像——张三 Zhang San.pdf"
• "What grade did Li Si get in 数学分析?"

**Response:** A short summary followed by the student record as JSON. Courses whose indicator could not be found are reported with the default grade and counted as defaulted.

**Best practices:** Paths may be absolute or relative to the reports directory. Use report_decode_page when a grade looks wrong.`

	DecodePageDescription = `Explain how the grade on one report page was decoded.

**When to use:** A decoded grade looks wrong, or a new report layout needs checking.

**How it works:** Lists every filled shape inside the vertical band of the grade scale with its color category (active, inactive, background), the band that was used, whether the scale label anchor was found, and the votes each grade slot received.

**Examples:**
• "Why is page 3 of 成长画像——张三 Zhang San.pdf graded 掌握?"
• "Show the candidate shapes on page 2"

**Response:** JSON. Pages that are not course pages are still decoded so their geometry can be inspected.

**Best practices:** Page numbers start at 1. Compare candidate centers against the configured slot centers when tuning the decoder.`

	DecodeDirectoryDescription = `Decode every report in a directory.

**When to use:** Producing the grade records for a whole class or term.

**How it works:** Finds the PDFs matching the pattern, decodes them in parallel and collects one record per student. Files whose name does not identify a student are skipped; documents that fail are reported and the rest continue.

**Examples:**
• "Decode all reports and write the course data"
• "Decode the reports in term2 matching *二年级*.pdf"

**Response:** Run counts, skipped files and failures. With write set, the student records are also written to the configured output file.

**Best practices:** Defaults to the reports directory and configured pattern. Unchanged reports are served from the cache when one is configured.`

	ServerInfoDescription = `Show the decoder configuration and the available tools.

**When to use:** Checking which directory, pattern and decoder settings the server is using.`
)
