// Package security confines tool requests to the configured reports directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator resolves request paths against a root directory and
// rejects anything that escapes it, including through symlinks.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. The directory does
// not have to exist yet; paths are rejected until it does.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute configured directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve turns a request path into an absolute path inside the root.
// Relative paths are taken relative to the root; an empty path is the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		path = v.root
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	path = filepath.Clean(path)

	within, err := v.IsWithin(path)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}
	return path, nil
}

// ResolveFile resolves path and requires it to be an existing regular file
func (v *PathValidator) ResolveFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	resolved, err := v.Resolve(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", resolved)
	}
	return resolved, nil
}

// ResolveDirectory resolves path and requires it to be an existing directory
func (v *PathValidator) ResolveDirectory(path string) (string, error) {
	resolved, err := v.Resolve(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", resolved)
	}
	return resolved, nil
}

// IsWithin reports whether an absolute path lies inside the root after
// symlinks on both sides are resolved.
func (v *PathValidator) IsWithin(path string) (bool, error) {
	realRoot, err := filepath.EvalSymlinks(v.root)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Errorf("configured directory does not exist: %s", v.root)
		}
		return false, fmt.Errorf("failed to evaluate configured directory: %w", err)
	}

	clean := filepath.Clean(path)
	if !contains(v.root, clean) && !contains(realRoot, clean) {
		return false, nil
	}

	realPath, err := filepath.EvalSymlinks(clean)
	if err != nil {
		if os.IsNotExist(err) {
			// nothing to follow yet; the lexical check decides
			return true, nil
		}
		return false, fmt.Errorf("failed to evaluate symlinks: %w", err)
	}
	return contains(realRoot, realPath), nil
}

func contains(dir, path string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}
