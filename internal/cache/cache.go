// Package cache stores decoded reports keyed by file content, so unchanged
// reports are not parsed again on the next run.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/benny2744/capstone-status/internal/report"
)

// Entry is the cached outcome of decoding one report
type Entry struct {
	Student         *report.Student `json:"student"`
	Pages           int             `json:"pages"`
	DefaultedGrades int             `json:"defaulted_grades"`
}

// Store is a decoded-report cache. Get returns (nil, nil) on a miss.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Close() error
}

// FileKey derives the cache key of a report: the SHA-256 of its bytes
// joined with the fingerprint of the decoder parameters
func FileKey(path, fingerprint string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)) + ":" + fingerprint, nil
}

// Nop is a Store that never hits
type Nop struct{}

func (Nop) Get(context.Context, string) (*Entry, error) { return nil, nil }
func (Nop) Set(context.Context, string, *Entry) error   { return nil }
func (Nop) Close() error                                { return nil }
