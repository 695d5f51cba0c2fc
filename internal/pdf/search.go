package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultPattern matches every PDF
const DefaultPattern = "*.pdf"

// Search discovers report files in a directory tree
type Search struct {
	validator *Validator
}

// NewSearch creates a new search handler with the specified size limit
func NewSearch(maxFileSize int64) *Search {
	return &Search{
		validator: NewValidator(maxFileSize),
	}
}

// FindReports walks directory and returns every PDF whose base name matches
// pattern, sorted by path. Files that fail validation are skipped.
func (s *Search) FindReports(directory, pattern string) ([]FileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	info, err := os.Stat(absDirectory)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", directory)
	}

	var files []FileInfo
	err = filepath.WalkDir(absDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Continue walking even if we encounter an error with a specific entry
			return nil
		}
		if d.IsDir() {
			return nil
		}
		// symlinks are not followed
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if ok, _ := filepath.Match(pattern, d.Name()); !ok || !IsPDFName(d.Name()) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // Intentionally continue on stat errors
		}
		if err := s.validator.ValidateFileInfo(path, fi); err != nil {
			return nil //nolint:nilerr // Intentionally continue on validation errors
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         d.Name(),
			Size:         fi.Size(),
			ModifiedTime: fi.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
