package cache

import (
	"encoding/json"
	"fmt"

	"github.com/benny2744/capstone-status/internal/decoder"
)

// record is the stored form of an Entry. Course.Decode is left out of the
// course JSON, so the decode results travel beside the student, one per
// course in order.
type record struct {
	Entry
	Decodes []decoder.Result `json:"decodes"`
}

func encodeEntry(entry *Entry) ([]byte, error) {
	rec := record{Entry: *entry}
	if entry.Student != nil {
		rec.Decodes = make([]decoder.Result, len(entry.Student.Courses))
		for i, c := range entry.Student.Courses {
			rec.Decodes[i] = c.Decode
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (*Entry, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	entry := rec.Entry
	if entry.Student != nil {
		if len(rec.Decodes) != len(entry.Student.Courses) {
			return nil, fmt.Errorf("cache entry has %d decode results for %d courses",
				len(rec.Decodes), len(entry.Student.Courses))
		}
		for i, c := range entry.Student.Courses {
			c.Decode = rec.Decodes[i]
		}
	}
	return &entry, nil
}
