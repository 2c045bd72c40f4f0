package app

import (
	"context"
	"errors"
	"sort"
	"sync"

	"substitution_bot/internal/domain/schedule"
	domainTelegram "substitution_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func testLogger() (*logrus.Entry, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test"), hook
}

type fakeSnapshots struct {
	mu      sync.Mutex
	stored  map[schedule.Weekday]*schedule.Schedule
	loadErr error
	saveErr error
	saves   int
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{stored: make(map[schedule.Weekday]*schedule.Schedule)}
}

func (f *fakeSnapshots) Load(ctx context.Context, weekday schedule.Weekday) (*schedule.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	s, ok := f.stored[weekday]
	if !ok {
		return nil, schedule.ErrSnapshotNotFound
	}
	return s, nil
}

func (f *fakeSnapshots) Save(ctx context.Context, weekday schedule.Weekday, s *schedule.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.stored[weekday] = s
	return nil
}

// fakeSubscribers fails every call with err, and only SubscribersOf with
// lookupErr.
type fakeSubscribers struct {
	mu        sync.Mutex
	groups    map[string][]int64
	err       error
	lookupErr error
	registers int
}

func newFakeSubscribers() *fakeSubscribers {
	return &fakeSubscribers{groups: make(map[string][]int64)}
}

func (f *fakeSubscribers) Register(ctx context.Context, group string, subscriberID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.registers++
	f.groups[group] = append(f.groups[group], subscriberID)
	return nil
}

func (f *fakeSubscribers) Groups(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	names := make([]string, 0, len(f.groups))
	for name := range f.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeSubscribers) SubscribersOf(ctx context.Context, group string) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return append([]int64(nil), f.groups[group]...), nil
}

type sentMessage struct {
	ChatID int64
	Text   string
}

// fakeClient fails OpenDirectChannel for ids in openFail and Send for ids in
// sendFail.
type fakeClient struct {
	mu       sync.Mutex
	sent     []sentMessage
	openFail map[int64]bool
	sendFail map[int64]bool
}

func (f *fakeClient) OpenDirectChannel(userID int64) (*domainTelegram.Channel, error) {
	if f.openFail[userID] {
		return nil, errors.New("chat not found")
	}
	return &domainTelegram.Channel{ChatID: userID}, nil
}

func (f *fakeClient) Send(channel *domainTelegram.Channel, text string) error {
	if f.sendFail[channel.ChatID] {
		return errors.New("bot was blocked by the user")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChatID: channel.ChatID, Text: text})
	return nil
}

func (f *fakeClient) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeSource struct {
	document []byte
	err      error
	calls    int
}

func (f *fakeSource) Fetch(ctx context.Context, weekday schedule.Weekday) ([]byte, error) {
	f.calls++
	return f.document, f.err
}

type fakeExtractor struct {
	tables []schedule.Table
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, document []byte) ([]schedule.Table, error) {
	return f.tables, f.err
}

func planTable(rows ...[]string) schedule.Table {
	table := make(schedule.Table, 0, len(rows))
	for _, texts := range rows {
		row := make(schedule.Row, 0, len(texts))
		for _, text := range texts {
			row = append(row, schedule.Cell{Text: text})
		}
		table = append(table, row)
	}
	return table
}

func buildSchedule(weekday schedule.Weekday, rows ...[]string) *schedule.Schedule {
	s, err := schedule.Build(weekday, []schedule.Table{planTable(rows...)})
	if err != nil {
		panic(err)
	}
	return s
}
