package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_FindReports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "term2"), 0o755))

	files := map[string][]byte{
		"成长报告——张三 一年级.pdf":       make([]byte, 64),
		"term2/成长报告——李四 二年级.pdf": make([]byte, 64),
		"summary.pdf":             make([]byte, 64),
		"notes.txt":               []byte("not a pdf"),
		"empty.pdf":               {},
		"large.pdf":               make([]byte, 2048),
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
	}

	search := NewSearch(1024)

	t.Run("all PDFs sorted by path", func(t *testing.T) {
		found, err := search.FindReports(dir, "")
		require.NoError(t, err)

		var names []string
		for _, f := range found {
			names = append(names, f.Name)
			assert.True(t, filepath.IsAbs(f.Path))
			assert.NotEmpty(t, f.ModifiedTime)
		}
		assert.Equal(t, []string{"summary.pdf", "成长报告——李四 二年级.pdf", "成长报告——张三 一年级.pdf"}, names)
	})

	t.Run("pattern filters base names", func(t *testing.T) {
		found, err := search.FindReports(dir, "*——*.pdf")
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := search.FindReports(dir, "[")
		assert.Error(t, err)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := search.FindReports(filepath.Join(dir, "nope"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("file instead of directory", func(t *testing.T) {
		_, err := search.FindReports(filepath.Join(dir, "summary.pdf"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("empty directory argument", func(t *testing.T) {
		_, err := search.FindReports("", "")
		assert.Error(t, err)
	})
}
