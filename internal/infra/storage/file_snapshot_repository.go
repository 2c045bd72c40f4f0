package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"substitution_bot/internal/domain/schedule"

	"github.com/sirupsen/logrus"
)

// FileSnapshotRepository stores one pretty-printed JSON file per weekday,
// named after the weekday (Monday.json, ...).
type FileSnapshotRepository struct {
	dir    string
	logger *logrus.Entry
	locks  [len(weekdayFiles)]sync.Mutex
}

var weekdayFiles = [...]string{"Monday.json", "Tuesday.json", "Wednesday.json", "Thursday.json", "Friday.json"}

// NewFileSnapshotRepository creates dir if needed and returns a repository
// rooted there.
func NewFileSnapshotRepository(dir string, logger *logrus.Entry) (*FileSnapshotRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &FileSnapshotRepository{dir: dir, logger: logger}, nil
}

func (r *FileSnapshotRepository) path(weekday schedule.Weekday) (string, error) {
	if !weekday.Valid() {
		return "", fmt.Errorf("invalid weekday %d", int(weekday))
	}
	return filepath.Join(r.dir, weekdayFiles[weekday]), nil
}

func (r *FileSnapshotRepository) Load(ctx context.Context, weekday schedule.Weekday) (*schedule.Schedule, error) {
	path, err := r.path(weekday)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, schedule.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	s, err := schedule.DecodeSnapshot(data, weekday)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (r *FileSnapshotRepository) Save(ctx context.Context, weekday schedule.Weekday, s *schedule.Schedule) error {
	path, err := r.path(weekday)
	if err != nil {
		return err
	}
	if s == nil || s.Weekday != weekday {
		return fmt.Errorf("snapshot for %s must hold a %s schedule", weekday, weekday)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	r.locks[weekday].Lock()
	defer r.locks[weekday].Unlock()

	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save snapshot %s: %w", path, err)
	}

	r.logger.WithFields(logrus.Fields{
		"weekday": weekday.String(),
		"path":    path,
		"groups":  len(s.Groups),
	}).Debug("Snapshot saved")
	return nil
}
