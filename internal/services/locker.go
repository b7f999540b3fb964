package services

import (
	"context"
	"sync"
	"time"
)

// KeyedLocker serializes work per key inside one process. Lock waits at most
// timeout and then fails with ErrConflict instead of blocking.
type KeyedLocker struct {
	mu      sync.Mutex
	locks   map[string]*keyLock
	timeout time.Duration
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyedLocker(timeout time.Duration) *KeyedLocker {
	return &KeyedLocker{
		locks:   make(map[string]*keyLock),
		timeout: timeout,
	}
}

// Lock acquires key and returns the release func.
func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case kl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-kl.ch
				l.release(key, kl)
			})
		}, nil
	case <-timer.C:
		l.release(key, kl)
		return nil, ErrConflict
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ErrConflict
	}
}

// release 引用计数归零时删除 key，避免 map 无限增长
func (l *KeyedLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// size is used by tests.
func (l *KeyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
