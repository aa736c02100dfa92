package scheduler

//
// mod_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeTask struct {
	name     string
	armed    chan struct{}
	interval time.Duration
	busy     atomic.Bool
	runs     atomic.Int32
	tries    atomic.Int32
}

func newFakeTask(name string) *fakeTask {
	return &fakeTask{name: name, armed: make(chan struct{}), interval: 20 * time.Millisecond}
}

func (f *fakeTask) Name() string {
	return f.name
}

func (f *fakeTask) Interval() time.Duration {
	return f.interval
}

func (f *fakeTask) Armed() <-chan struct{} {
	return f.armed
}

func (f *fakeTask) TryCollect(_ context.Context) (bool, error) {
	f.tries.Add(1)

	if f.busy.Load() {
		return false, nil
	}

	f.runs.Add(1)

	return true, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal("condition not met in time")
}

func TestSchedulerWaitsForArm(t *testing.T) {
	t.Parallel()

	task := newFakeTask("sched-arm")
	sched := NewScheduler(task)

	done := make(chan error)

	go func() { done <- sched.Run() }()

	time.Sleep(60 * time.Millisecond)

	if n := task.tries.Load(); n != 0 {
		t.Fatalf("task launched before arm: %d", n)
	}

	close(task.armed)

	waitFor(t, func() bool { return task.runs.Load() >= 3 })

	sched.Close(nil)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduler not stopped")
	}
}

func TestSchedulerSkipsBusyTask(t *testing.T) {
	t.Parallel()

	task := newFakeTask("sched-busy")
	task.busy.Store(true)
	close(task.armed)

	sched := NewScheduler(task)

	go func() { _ = sched.Run() }()
	defer sched.Close(nil)

	waitFor(t, func() bool { return task.tries.Load() >= 2 })

	if n := task.runs.Load(); n != 0 {
		t.Errorf("busy task should not run: %d", n)
	}

	if v := testutil.ToFloat64(ticksSkipped.WithLabelValues("sched-busy")); v < 2 {
		t.Errorf("expected skipped ticks counted, got %v", v)
	}

	task.busy.Store(false)

	waitFor(t, func() bool { return task.runs.Load() >= 1 })
}

func TestSchedulerCloseBeforeArm(t *testing.T) {
	t.Parallel()

	task := newFakeTask("sched-never")
	sched := NewScheduler(task)

	done := make(chan error)

	go func() { done <- sched.Run() }()

	sched.Close(nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler not stopped")
	}

	if n := task.tries.Load(); n != 0 {
		t.Errorf("unexpected runs: %d", n)
	}
}
