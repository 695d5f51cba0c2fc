package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRoot(t *testing.T) (string, *PathValidator) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "term1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "term1", "report.pdf"), []byte("x"), 0o644))

	v, err := NewPathValidator(root)
	require.NoError(t, err)

	// compare against the root as the validator sees it
	return v.Root(), v
}

func TestNewPathValidator(t *testing.T) {
	_, err := NewPathValidator("")
	assert.Error(t, err)

	v, err := NewPathValidator("relative/dir")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(v.Root()))
}

func TestPathValidator_Resolve(t *testing.T) {
	root, v := setupRoot(t)

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "empty is root", path: "", want: root},
		{name: "relative file", path: "term1/report.pdf", want: filepath.Join(root, "term1", "report.pdf")},
		{name: "absolute inside", path: filepath.Join(root, "term1"), want: filepath.Join(root, "term1")},
		{name: "not yet existing inside", path: "term2/new.pdf", want: filepath.Join(root, "term2", "new.pdf")},
		{name: "null bytes stripped", path: "term1/re\x00port.pdf", want: filepath.Join(root, "term1", "report.pdf")},
		{name: "dot dot escape", path: "../outside.pdf", wantErr: true},
		{name: "absolute outside", path: "/etc/passwd", wantErr: true},
		{name: "sibling with shared prefix", path: root + "-other/file.pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Resolve(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathValidator_SymlinkEscape(t *testing.T) {
	root, v := setupRoot(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.pdf"), []byte("x"), 0o644))

	link := filepath.Join(root, "link.pdf")
	if err := os.Symlink(filepath.Join(outside, "secret.pdf"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, err := v.Resolve("link.pdf")
	assert.Error(t, err)
}

func TestPathValidator_ResolveFileAndDirectory(t *testing.T) {
	root, v := setupRoot(t)

	got, err := v.ResolveFile("term1/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "term1", "report.pdf"), got)

	_, err = v.ResolveFile("term1")
	assert.Error(t, err)
	_, err = v.ResolveFile("  ")
	assert.Error(t, err)
	_, err = v.ResolveFile("missing.pdf")
	assert.Error(t, err)

	got, err = v.ResolveDirectory("term1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "term1"), got)

	_, err = v.ResolveDirectory("term1/report.pdf")
	assert.Error(t, err)
}

func TestPathValidator_MissingRoot(t *testing.T) {
	v, err := NewPathValidator(filepath.Join(t.TempDir(), "not-created"))
	require.NoError(t, err)

	_, err = v.Resolve("report.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
