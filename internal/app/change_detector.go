package app

import (
	"context"
	"errors"

	"substitution_bot/internal/domain/schedule"

	"github.com/sirupsen/logrus"
)

// Classification is the outcome of comparing one group's entries against the
// stored snapshot.
type Classification int

const (
	// NoData: the group has no entries in the new schedule.
	NoData Classification = iota
	// FirstSeen: there is no snapshot for the weekday yet.
	FirstSeen
	// Changed: entries differ from the snapshot, or the snapshot is unreadable.
	Changed
	// Unchanged: entries equal the snapshot.
	Unchanged
)

func (c Classification) String() string {
	switch c {
	case NoData:
		return "no_data"
	case FirstSeen:
		return "first_seen"
	case Changed:
		return "changed"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// ShouldNotify reports whether subscribers of the group must be told.
func (c Classification) ShouldNotify() bool {
	return c == FirstSeen || c == Changed
}

// snapshotState is what the detector learned from loading the snapshot.
type snapshotState int

const (
	snapshotPresent snapshotState = iota
	snapshotAbsent
	snapshotUnreadable
)

type ChangeDetector struct {
	snapshots schedule.SnapshotRepository
	logger    *logrus.Entry
}

func NewChangeDetector(snapshots schedule.SnapshotRepository, logger *logrus.Entry) *ChangeDetector {
	return &ChangeDetector{snapshots: snapshots, logger: logger}
}

// Detect classifies a single group.
func (d *ChangeDetector) Detect(ctx context.Context, weekday schedule.Weekday, group string, current *schedule.Schedule) Classification {
	return d.DetectAll(ctx, weekday, []string{group}, current)[group]
}

// DetectAll loads the weekday's snapshot once and classifies every group
// independently. Snapshot errors never propagate: an absent snapshot means
// FirstSeen, any other load failure means Changed.
func (d *ChangeDetector) DetectAll(ctx context.Context, weekday schedule.Weekday, groups []string, current *schedule.Schedule) map[string]Classification {
	previous, state := d.loadSnapshot(ctx, weekday)

	result := make(map[string]Classification, len(groups))
	for _, group := range groups {
		result[group] = classify(group, current, previous, state)
	}
	return result
}

func (d *ChangeDetector) loadSnapshot(ctx context.Context, weekday schedule.Weekday) (*schedule.Schedule, snapshotState) {
	previous, err := d.snapshots.Load(ctx, weekday)
	switch {
	case err == nil:
		return previous, snapshotPresent
	case errors.Is(err, schedule.ErrSnapshotNotFound):
		d.logger.WithField("weekday", weekday.String()).Info("No snapshot yet, treating groups as first seen")
		return nil, snapshotAbsent
	case errors.Is(err, schedule.ErrCorruptSnapshot):
		d.logger.WithError(err).WithField("weekday", weekday.String()).Warn("Snapshot is corrupt, treating groups as changed")
		return nil, snapshotUnreadable
	default:
		d.logger.WithError(err).WithField("weekday", weekday.String()).Error("Failed to load snapshot, treating groups as changed")
		return nil, snapshotUnreadable
	}
}

func classify(group string, current, previous *schedule.Schedule, state snapshotState) Classification {
	newEntries, ok := current.Entries(group)
	if !ok {
		return NoData
	}

	switch state {
	case snapshotAbsent:
		return FirstSeen
	case snapshotUnreadable:
		return Changed
	}

	oldEntries, ok := previous.Entries(group)
	if !ok || !schedule.EqualEntries(oldEntries, newEntries) {
		return Changed
	}
	return Unchanged
}
