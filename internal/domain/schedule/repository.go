package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrSnapshotNotFound means no snapshot was saved for the weekday yet.
	ErrSnapshotNotFound = errors.New("schedule snapshot not found")
	// ErrCorruptSnapshot means a snapshot record exists but cannot be decoded.
	ErrCorruptSnapshot = errors.New("schedule snapshot is corrupt")
)

// SnapshotRepository persists the last seen Schedule per weekday.
type SnapshotRepository interface {
	// Load returns ErrSnapshotNotFound when nothing was saved for the weekday
	// and an error wrapping ErrCorruptSnapshot when the record is unreadable.
	Load(ctx context.Context, weekday Weekday) (*Schedule, error)
	// Save overwrites the weekday's snapshot atomically.
	Save(ctx context.Context, weekday Weekday, s *Schedule) error
}

// DecodeSnapshot parses a stored snapshot and checks that it holds weekday's
// schedule. Records missing the weekday or the groups are corrupt.
func DecodeSnapshot(data []byte, weekday Weekday) (*Schedule, error) {
	var record struct {
		Weekday *Weekday           `json:"weekday"`
		Groups  map[string][]Entry `json:"groups"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if record.Weekday == nil || record.Groups == nil {
		return nil, fmt.Errorf("%w: weekday or groups missing", ErrCorruptSnapshot)
	}
	if *record.Weekday != weekday {
		return nil, fmt.Errorf("%w: holds a %s schedule, want %s", ErrCorruptSnapshot, *record.Weekday, weekday)
	}
	return &Schedule{Weekday: *record.Weekday, Groups: record.Groups}, nil
}
