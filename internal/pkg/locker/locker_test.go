package locker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

func TestAcquire_SameDaySerializes(t *testing.T) {
	l := New()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "emp-1", day)
	require.NoError(t, err)

	// Second acquisition for the same key must not get through while held.
	ctx2, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx2, "emp-1", day)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()

	release2, err := l.Acquire(ctx, "emp-1", day)
	require.NoError(t, err)
	release2()
}

func TestAcquire_DifferentKeysIndependent(t *testing.T) {
	l := New()
	ctx := context.Background()

	r1, err := l.Acquire(ctx, "emp-1", day)
	require.NoError(t, err)
	defer r1()

	// Different employee, same day.
	r2, err := l.Acquire(ctx, "emp-2", day)
	require.NoError(t, err)
	r2()

	// Same employee, different day.
	r3, err := l.Acquire(ctx, "emp-1", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	r3()
}

func TestAcquire_ConcurrentCountersDoNotRace(t *testing.T) {
	l := New()
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "emp-1", day)
			if err != nil {
				t.Error(err)
				return
			}
			counter++
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestAcquire_EntryFreedAfterRelease(t *testing.T) {
	l := New()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "emp-1", day)
	require.NoError(t, err)
	release()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.locks, "released locks should not leak entries")
}
