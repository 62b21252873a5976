// Package locker provides the per-key exclusive section used to serialize
// wallet-mutating settlements for a single user. Production uses Redis
// (redsync); tests use in-process keyed mutexes.
package locker

import (
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
)

type Locker interface {
	// Lock blocks until the key is held and returns the unlock func.
	Lock(key string) (func(), error)
}

type RedsyncLocker struct {
	rs *redsync.Redsync
}

func NewRedsyncLocker(rs *redsync.Redsync) *RedsyncLocker {
	return &RedsyncLocker{rs}
}

func (l *RedsyncLocker) Lock(key string) (func(), error) {
	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(30*time.Second),
		redsync.WithTries(64),
		redsync.WithRetryDelay(50*time.Millisecond),
	)
	if err := mutex.Lock(); err != nil {
		return nil, err
	}

	return func() {
		// nolint:errcheck
		mutex.Unlock()
	}, nil
}

type KeyedMutexLocker struct {
	mu      sync.Mutex
	mutexes map[string]*sync.Mutex
}

func NewKeyedMutexLocker() *KeyedMutexLocker {
	return &KeyedMutexLocker{mutexes: map[string]*sync.Mutex{}}
}

func (l *KeyedMutexLocker) Lock(key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.mutexes[key]
	if !ok {
		m = &sync.Mutex{}
		l.mutexes[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
