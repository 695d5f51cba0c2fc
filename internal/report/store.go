package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists student records as one JSON object keyed by Chinese name
type Store struct {
	path string
}

// NewStore creates a store writing to path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the output file
func (s *Store) Path() string {
	return s.path
}

// Write replaces the output file with students. The file is written next
// to the destination and renamed into place, so readers never see a partial file.
func (s *Store) Write(students map[string]*Student) error {
	data, err := Marshal(students)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".grades-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// Read loads a file previously written by Write
func (s *Store) Read() (map[string]*Student, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	students := make(map[string]*Student)
	if err := json.Unmarshal(data, &students); err != nil {
		return nil, fmt.Errorf("failed to parse output: %w", err)
	}
	return students, nil
}

// Marshal encodes records as indented UTF-8 JSON. Non-ASCII text and
// characters like < and & are written as is.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return buf.Bytes(), nil
}
