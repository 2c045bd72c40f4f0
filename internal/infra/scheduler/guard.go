package scheduler

import (
	"sync"

	"substitution_bot/internal/domain/schedule"
)

// WeekdayGuard admits at most one in-flight cycle per weekday. A caller that
// finds its weekday busy is turned away instead of waiting.
type WeekdayGuard struct {
	mu   sync.Mutex
	busy map[schedule.Weekday]bool
}

func NewWeekdayGuard() *WeekdayGuard {
	return &WeekdayGuard{busy: make(map[schedule.Weekday]bool, len(schedule.Weekdays))}
}

// TryAcquire marks weekday busy. It returns false if it already was; on
// success the returned release func frees the weekday again.
func (g *WeekdayGuard) TryAcquire(weekday schedule.Weekday) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.busy[weekday] {
		return nil, false
	}
	g.busy[weekday] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, weekday)
			g.mu.Unlock()
		})
	}, true
}

// InFlight returns the number of weekdays currently held.
func (g *WeekdayGuard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.busy)
}
