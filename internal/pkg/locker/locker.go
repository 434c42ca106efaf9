// Package locker serializes work on one employee work day. Ingest,
// correction and approval for the same (employee, date) must not interleave
// or the daily computation and ledger would race; across different keys
// operations run fully in parallel.
package locker

import (
	"context"
	"sync"
	"time"
)

type DayLocker struct {
	mu    sync.Mutex
	locks map[string]*dayLock
}

type dayLock struct {
	sem  chan struct{}
	refs int
}

func New() *DayLocker {
	return &DayLocker{locks: make(map[string]*dayLock)}
}

func key(employeeID string, date time.Time) string {
	return employeeID + "|" + date.UTC().Format("2006-01-02")
}

// Acquire blocks until the employee-day lock is held or ctx is done. On
// success the returned release function must be called exactly once.
func (l *DayLocker) Acquire(ctx context.Context, employeeID string, date time.Time) (func(), error) {
	k := key(employeeID, date)

	l.mu.Lock()
	dl, ok := l.locks[k]
	if !ok {
		dl = &dayLock{sem: make(chan struct{}, 1)}
		l.locks[k] = dl
	}
	dl.refs++
	l.mu.Unlock()

	select {
	case dl.sem <- struct{}{}:
		return func() {
			<-dl.sem
			l.put(k, dl)
		}, nil
	case <-ctx.Done():
		l.put(k, dl)
		return nil, ctx.Err()
	}
}

func (l *DayLocker) put(k string, dl *dayLock) {
	l.mu.Lock()
	dl.refs--
	if dl.refs == 0 {
		delete(l.locks, k)
	}
	l.mu.Unlock()
}
