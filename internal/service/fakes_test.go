package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"telegram-checkin-bot/internal/model"
	"telegram-checkin-bot/internal/period"
	"telegram-checkin-bot/internal/repository"
)

// errMetaMissing aliases the repository sentinel so the rollover manager
// treats an absent key the same way it would in production.
var errMetaMissing = repository.ErrMetaNotFound

// memLedger is an in-memory Ledger used by the service tests.
type memLedger struct {
	mu   sync.Mutex
	rows map[int64]map[string]int // userID -> "2006-01-02" -> count
	seq  int64                    // insertion order stand-in for created_at
	ord  map[int64]map[string]int64
	err  error // when set, every call fails with it
}

func newMemLedger() *memLedger {
	return &memLedger{
		rows: make(map[int64]map[string]int),
		ord:  make(map[int64]map[string]int64),
	}
}

const dayKey = "2006-01-02"

func (l *memLedger) Increment(_ context.Context, userID int64, date time.Time, amount int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	if l.rows[userID] == nil {
		l.rows[userID] = make(map[string]int)
		l.ord[userID] = make(map[string]int64)
	}
	key := date.Format(dayKey)
	if _, ok := l.rows[userID][key]; !ok {
		l.seq++
		l.ord[userID][key] = l.seq
	}
	l.rows[userID][key] += amount
	return l.rows[userID][key], nil
}

func (l *memLedger) Get(_ context.Context, userID int64, date time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	return l.rows[userID][date.Format(dayKey)], nil
}

func (l *memLedger) QueryMonth(_ context.Context, userID int64, month period.Month) ([]model.CheckinRecord, error) {
	return l.query(userID, func(d time.Time) bool { return month.Contains(d) })
}

func (l *memLedger) QueryYear(_ context.Context, userID int64, year int) ([]model.CheckinRecord, error) {
	return l.query(userID, func(d time.Time) bool { return d.Year() == year })
}

func (l *memLedger) query(userID int64, match func(time.Time) bool) ([]model.CheckinRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	var records []model.CheckinRecord
	for key, count := range l.rows[userID] {
		d, _ := time.ParseInLocation(dayKey, key, time.UTC)
		if match(d) {
			records = append(records, model.CheckinRecord{UserID: userID, CheckinDate: d, DeerCount: count})
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CheckinDate.Before(records[j].CheckinDate) })
	return records, nil
}

func (l *memLedger) GroupTotals(_ context.Context, month period.Month) ([]model.RankingEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	type keyed struct {
		entry model.RankingEntry
		first int64
	}
	var all []keyed
	for userID, days := range l.rows {
		total := 0
		first := int64(1 << 62)
		for key, count := range days {
			d, _ := time.ParseInLocation(dayKey, key, time.UTC)
			if !month.Contains(d) {
				continue
			}
			total += count
			if o := l.ord[userID][key]; o < first {
				first = o
			}
		}
		if total > 0 {
			all = append(all, keyed{model.RankingEntry{UserID: userID, Total: total}, first})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].first < all[j].first })
	entries := make([]model.RankingEntry, len(all))
	for i, k := range all {
		entries[i] = k.entry
	}
	return entries, nil
}

func (l *memLedger) DeleteOutsideMonth(_ context.Context, month period.Month) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	var deleted int64
	for userID, days := range l.rows {
		for key := range days {
			d, _ := time.ParseInLocation(dayKey, key, time.UTC)
			if !month.Contains(d) {
				delete(days, key)
				delete(l.ord[userID], key)
				deleted++
			}
		}
	}
	return deleted, nil
}

// total sums every row in the ledger, for asserting that rejections left
// state untouched.
func (l *memLedger) total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	sum := 0
	for _, days := range l.rows {
		for _, c := range days {
			sum += c
		}
	}
	return sum
}

// memMeta is an in-memory MetaStore counting writes.
type memMeta struct {
	mu     sync.Mutex
	values map[string]string
	sets   int
}

func newMemMeta() *memMeta {
	return &memMeta{values: make(map[string]string)}
}

func (m *memMeta) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", errMetaMissing
	}
	return v, nil
}

func (m *memMeta) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.sets++
	return nil
}
