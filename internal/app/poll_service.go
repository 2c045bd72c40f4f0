package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"substitution_bot/internal/domain/schedule"
	"substitution_bot/internal/domain/subscriber"

	"github.com/sirupsen/logrus"
)

// ErrDispatchIncomplete means some group's subscribers could not be looked up,
// so the cycle ended without saving its snapshot.
var ErrDispatchIncomplete = errors.New("notifications not dispatched")

// DocumentSource downloads the raw plan for a weekday.
type DocumentSource interface {
	Fetch(ctx context.Context, weekday schedule.Weekday) ([]byte, error)
}

// TableExtractor turns a raw plan into tables.
type TableExtractor interface {
	Extract(ctx context.Context, document []byte) ([]schedule.Table, error)
}

// CycleResult summarizes one completed poll cycle.
type CycleResult struct {
	Weekday         schedule.Weekday
	Classifications map[string]Classification
	Dispatches      []DispatchReport
}

// PollService runs one fetch, compare, notify and save sequence per call.
// It does not serialize calls; callers keep at most one cycle per weekday.
type PollService struct {
	source        DocumentSource
	extractor     TableExtractor
	detector      *ChangeDetector
	notifier      *NotificationService
	snapshots     schedule.SnapshotRepository
	subscribers   subscriber.Repository
	trackedGroups []string
	logger        *logrus.Entry
}

func NewPollService(
	source DocumentSource,
	extractor TableExtractor,
	detector *ChangeDetector,
	notifier *NotificationService,
	snapshots schedule.SnapshotRepository,
	subscribers subscriber.Repository,
	trackedGroups []string,
	logger *logrus.Entry,
) *PollService {
	return &PollService{
		source:        source,
		extractor:     extractor,
		detector:      detector,
		notifier:      notifier,
		snapshots:     snapshots,
		subscribers:   subscribers,
		trackedGroups: trackedGroups,
		logger:        logger,
	}
}

// RunCycle checks the weekday's plan. Fetch, extraction, build and registry
// failures abort the cycle before anything is notified or saved. The
// snapshot is also left untouched when a group's notifications could not be
// dispatched.
func (s *PollService) RunCycle(ctx context.Context, weekday schedule.Weekday) (*CycleResult, error) {
	log := s.logger.WithField("weekday", weekday.String())
	startTime := time.Now()

	document, err := s.source.Fetch(ctx, weekday)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch document, skipping cycle")
		return nil, fmt.Errorf("fetch: %w", err)
	}

	tables, err := s.extractor.Extract(ctx, document)
	if err != nil {
		log.WithError(err).Warn("Failed to extract tables, skipping cycle")
		return nil, fmt.Errorf("extract: %w", err)
	}

	current, err := schedule.Build(weekday, tables)
	if err != nil {
		log.WithError(err).Warn("Failed to build schedule, skipping cycle")
		return nil, fmt.Errorf("build: %w", err)
	}

	groups, err := s.groupsOfInterest(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list registered groups, skipping cycle")
		return nil, err
	}
	result := &CycleResult{
		Weekday:         weekday,
		Classifications: s.detector.DetectAll(ctx, weekday, groups, current),
	}

	var failedGroups []string
	for _, group := range groups {
		classification := result.Classifications[group]
		log.WithFields(logrus.Fields{
			"group":          group,
			"classification": classification.String(),
		}).Debug("Group classified")

		if !classification.ShouldNotify() {
			continue
		}
		report, err := s.notifier.Notify(ctx, group, weekday)
		if err != nil {
			log.WithError(err).WithField("group", group).Error("Failed to dispatch notifications")
			failedGroups = append(failedGroups, group)
			continue
		}
		result.Dispatches = append(result.Dispatches, report)
	}

	// Keep the old snapshot so the next cycle detects the change again.
	if len(failedGroups) > 0 {
		log.WithField("groups", failedGroups).Warn("Not saving snapshot, notifications were not dispatched")
		return result, fmt.Errorf("%w: %s", ErrDispatchIncomplete, strings.Join(failedGroups, ", "))
	}

	if err := s.snapshots.Save(ctx, weekday, current); err != nil {
		log.WithError(err).Error("Failed to save snapshot")
		return result, fmt.Errorf("save snapshot: %w", err)
	}

	log.WithFields(logrus.Fields{
		"groups":      len(groups),
		"dispatches":  len(result.Dispatches),
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("Poll cycle completed")
	return result, nil
}

// groupsOfInterest is the union of registered and configured groups.
func (s *PollService) groupsOfInterest(ctx context.Context) ([]string, error) {
	registered, err := s.subscribers.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registered groups: %w", err)
	}

	groups := append(slices.Clone(s.trackedGroups), registered...)
	slices.Sort(groups)
	return slices.Compact(groups), nil
}
