package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

type subscriberFile struct {
	Groups map[string][]int64 `json:"groups"`
}

// FileSubscriberRepository keeps the whole registry in memory and rewrites
// the backing JSON file on every registration.
type FileSubscriberRepository struct {
	path   string
	logger *logrus.Entry

	mu     sync.RWMutex
	groups map[string][]int64
}

// NewFileSubscriberRepository loads the registry from path. A missing file
// yields an empty registry; a malformed one is an error.
func NewFileSubscriberRepository(path string, logger *logrus.Entry) (*FileSubscriberRepository, error) {
	r := &FileSubscriberRepository{
		path:   path,
		logger: logger,
		groups: make(map[string][]int64),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.WithField("path", path).Info("No subscriber file found, starting with an empty registry")
			return r, nil
		}
		return nil, fmt.Errorf("read subscriber file: %w", err)
	}

	var f subscriberFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("malformed subscriber file %s: %w", path, err)
	}
	if f.Groups != nil {
		r.groups = f.Groups
	}

	logger.WithFields(logrus.Fields{
		"path":   path,
		"groups": len(r.groups),
	}).Info("Subscriber registry loaded")
	return r, nil
}

func (r *FileSubscriberRepository) Register(ctx context.Context, group string, subscriberID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, existed := r.groups[group]
	r.groups[group] = append(previous[:len(previous):len(previous)], subscriberID)

	if err := r.flushLocked(); err != nil {
		if existed {
			r.groups[group] = previous
		} else {
			delete(r.groups, group)
		}
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"group":         group,
		"subscriber_id": subscriberID,
	}).Debug("Subscriber registered")
	return nil
}

func (r *FileSubscriberRepository) Groups(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]string, 0, len(r.groups))
	for g := range r.groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups, nil
}

func (r *FileSubscriberRepository) SubscribersOf(ctx context.Context, group string) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.groups[group]
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, nil
}

// flushLocked writes the full registry. Callers must hold mu.
func (r *FileSubscriberRepository) flushLocked() error {
	data, err := json.MarshalIndent(subscriberFile{Groups: r.groups}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal subscribers: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create subscriber directory: %w", err)
		}
	}
	if err := writeFileAtomic(r.path, data, 0o600); err != nil {
		return fmt.Errorf("write subscriber file: %w", err)
	}
	return nil
}
