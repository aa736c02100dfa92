package scheduler

//
// mod.go
// Copyright (C) 2021 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"sqlgauge_exporter.app/internal/collectors"
	"sqlgauge_exporter.app/internal/support"
)

// Task is periodically launched job.
type Task interface {
	Name() string
	Interval() time.Duration
	// Armed is closed when task can be scheduled.
	Armed() <-chan struct{}
	// TryCollect run task if it is not running already.
	TryCollect(ctx context.Context) (bool, error)
}

// Scheduler is background process that launch each task in its interval.
// Task is scheduled after its first successful run.
type Scheduler struct {
	log    zerolog.Logger
	ctx    context.Context //nolint:containedctx
	cancel context.CancelFunc
	tasks  []Task
}

// NewScheduler create new scheduler for `tasks`.
func NewScheduler(tasks ...Task) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		log:    support.ModuleLogger("scheduler"),
		ctx:    ctx,
		cancel: cancel,
		tasks:  tasks,
	}
}

// FromCollectors create scheduler for all collectors.
func FromCollectors(cs *collectors.Collectors) *Scheduler {
	tasks := make([]Task, 0, cs.Len())
	for _, c := range cs.List() {
		tasks = append(tasks, c)
	}

	return NewScheduler(tasks...)
}

// Run scheduler process; block until Close.
func (s *Scheduler) Run() error {
	s.log.Debug().Int("tasks", len(s.tasks)).Msg("scheduler: starting")

	var group sync.WaitGroup

	for _, task := range s.tasks {
		interval := task.Interval()
		if interval <= 0 {
			s.log.Warn().Str("task", task.Name()).Msg("scheduler: invalid interval; task skipped")

			continue
		}

		group.Add(1)

		go func() {
			defer group.Done()

			s.runTask(task, interval)
		}()
	}

	<-s.ctx.Done()

	s.log.Debug().Msg("scheduler: stopping")
	group.Wait()
	s.log.Debug().Msg("scheduler: stopped")

	return nil
}

// Close scheduler; cancel running tasks.
func (s *Scheduler) Close(err error) {
	s.log.Debug().Err(err).Msg("scheduler: stopping scheduler")
	s.cancel()
}

func (s *Scheduler) runTask(task Task, interval time.Duration) {
	llog := s.log.With().Str("task", task.Name()).Logger()
	support.SetGoroutineLabels(s.ctx, "scheduler", task.Name())

	select {
	case <-s.ctx.Done():
		return
	case <-task.Armed():
	}

	llog.Debug().Dur("interval", interval).Msg("scheduler: task armed")

	// ticks missed while task is running are dropped by ticker
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.fire(task, llog)

		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) fire(task Task, llog zerolog.Logger) {
	ctx := llog.WithContext(s.ctx)

	start := time.Now()

	ran, err := task.TryCollect(ctx)
	if !ran {
		ticksSkipped.WithLabelValues(task.Name()).Inc()
		llog.Debug().Msg("scheduler: task busy; tick skipped")

		return
	}

	scheduledRuns.WithLabelValues(task.Name()).Inc()

	duration := time.Since(start)
	if duration > task.Interval() {
		llog.Warn().Dur("duration", duration).
			Msgf("scheduler: task run longer than defined interval (%s)", task.Interval())
	}

	if err != nil {
		llog.Debug().Err(err).Msg("scheduler: task failed")
	}
}
