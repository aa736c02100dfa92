package support

//
// syncer.go
// Copyright (C) 2023 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"sync/atomic"
	"time"
)

// LockError is error returned when lock failed.
type LockError struct {
	err    error
	holder string
}

func (l LockError) Error() string {
	msg := "lock error"
	if l.holder != "" {
		msg += "; locked by " + l.holder
	}

	if l.err != nil {
		msg += " (" + l.err.Error() + ")"
	}

	return msg
}

func (l LockError) Unwrap() error {
	return l.err
}

type holderInfo struct {
	since time.Time
	name  string
}

// Syncer is exclusive lock that support cancel by context and non-blocking
// try-lock. Syncer must be created by NewSyncer.
type Syncer struct {
	locker chan struct{}
	holder atomic.Pointer[holderInfo]
}

// NewSyncer create new Syncer object.
func NewSyncer() *Syncer {
	locker := make(chan struct{}, 1)
	locker <- struct{}{}

	return &Syncer{locker: locker}
}

// Lock wait for lock or context cancel. Return LockError when failed.
func (s *Syncer) Lock(ctx context.Context, holder string) error {
	select {
	case <-ctx.Done():
		return LockError{ctx.Err(), s.Holder()}

	case <-s.locker:
		s.holder.Store(&holderInfo{time.Now(), holder})

		return nil
	}
}

// TryLock acquire lock only when it is free; return false otherwise.
func (s *Syncer) TryLock(holder string) bool {
	select {
	case <-s.locker:
		s.holder.Store(&holderInfo{time.Now(), holder})

		return true
	default:
		return false
	}
}

// Unlock free lock.
func (s *Syncer) Unlock() {
	s.holder.Store(nil)
	s.locker <- struct{}{}
}

// Holder return description of current lock owner, if any.
func (s *Syncer) Holder() string {
	if h := s.holder.Load(); h != nil {
		return h.name + " since " + h.since.Format(time.RFC3339)
	}

	return ""
}
