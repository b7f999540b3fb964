package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestKeyedLockerSerializes(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewKeyedLocker(time.Second)
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "report:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Zero(t, l.size(), "released keys are dropped")
}

func TestKeyedLockerTimesOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewKeyedLocker(20 * time.Millisecond)
	unlock, err := l.Lock(context.Background(), "report:1")
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Lock(context.Background(), "report:1")
	require.ErrorIs(t, err, ErrConflict)
	assert.Less(t, time.Since(start), time.Second)

	// 不同 key 互不影响
	unlockOther, err := l.Lock(context.Background(), "report:2")
	require.NoError(t, err)
	unlockOther()

	unlock()
	unlock() // 重复释放是安全的
	assert.Zero(t, l.size())
}

func TestKeyedLockerContextCancelled(t *testing.T) {
	l := NewKeyedLocker(time.Minute)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Lock(ctx, "k")
	require.ErrorIs(t, err, ErrConflict)
}
