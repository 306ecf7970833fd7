// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

// Package sched is the cooperative event loop behind wait, after, every,
// job, cron and server statements. Events live in a priority queue keyed
// by (trigger time, registration order); firings run on the loop's
// goroutine, one at a time, so script code never races with itself.
package sched

import (
	"errors"
	"time"

	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/schuko/tracing"
	cronparse "github.com/robfig/cron/v3"
)

// tracer traces with key 'gopa.sched'.
func tracer() tracing.Trace {
	return tracing.Select("gopa.sched")
}

// Task is one scheduled firing. Returning ErrStop shuts the loop down;
// any other error is logged and the loop keeps running.
type Task func() error

// ErrStop is returned by a task when the script executed `stop`.
var ErrStop = errors.New("script stopped")

type event struct {
	at        time.Time
	seq       int64
	name      string
	interval  time.Duration // re-arm interval, 0 for one-shot
	cron      cronparse.Schedule
	run       Task
	cancelled *bool
}

// Scheduler owns the pending-event queue. Not safe for concurrent
// registration; all statements run on the loop goroutine.
type Scheduler struct {
	clock   Clock
	queue   *priorityqueue.Queue
	seq     int64
	jobs    map[string]*bool // name -> cancelled flag
	servers []*server
	reqCh   chan *pendingRequest
}

// New creates a scheduler on the given clock.
func New(clock Clock) *Scheduler {
	byTime := func(a, b interface{}) int {
		ea, eb := a.(*event), b.(*event)
		if c := utils.TimeComparator(ea.at, eb.at); c != 0 {
			return c
		}
		return utils.Int64Comparator(ea.seq, eb.seq)
	}
	return &Scheduler{
		clock: clock,
		queue: priorityqueue.NewWith(byTime),
		jobs:  make(map[string]*bool),
		reqCh: make(chan *pendingRequest),
	}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() Clock { return s.clock }

// Wait suspends the script for the given number of seconds. On a virtual
// clock this is instantaneous.
func (s *Scheduler) Wait(seconds float64) {
	s.clock.Sleep(secondsToDuration(seconds))
}

// After registers a one-shot task.
func (s *Scheduler) After(seconds float64, run Task) {
	d := secondsToDuration(seconds)
	s.push(&event{at: s.clock.Now().Add(d), run: run})
}

// Every registers a fixed-interval task. A non-empty name makes it a job
// that CancelJob can stop; a job name replaces any previous job with the
// same name.
func (s *Scheduler) Every(name string, seconds float64, run Task) {
	d := secondsToDuration(seconds)
	ev := &event{at: s.clock.Now().Add(d), name: name, interval: d, run: run}
	if name != "" {
		if prev, ok := s.jobs[name]; ok {
			*prev = true
		}
		cancelled := false
		ev.cancelled = &cancelled
		s.jobs[name] = &cancelled
	}
	s.push(ev)
}

// Cron registers a recurring task on a cron schedule, standard five-field
// syntax or a friendly form such as "every day at 9:00".
func (s *Scheduler) Cron(schedule string, run Task) error {
	normalized, err := NormalizeCron(schedule)
	if err != nil {
		return err
	}
	parsed, err := cronparse.ParseStandard(normalized)
	if err != nil {
		return err
	}
	s.push(&event{at: parsed.Next(s.clock.Now()), cron: parsed, run: run})
	return nil
}

// CancelJob stops the named job. Cancelling a job that does not exist is
// a no-op.
func (s *Scheduler) CancelJob(name string) {
	if cancelled, ok := s.jobs[name]; ok {
		*cancelled = true
		delete(s.jobs, name)
	}
}

// Pending reports the number of queued events.
func (s *Scheduler) Pending() int { return s.queue.Size() }

func (s *Scheduler) push(ev *event) {
	s.seq++
	ev.seq = s.seq
	s.queue.Enqueue(ev)
}

func (s *Scheduler) pop() (*event, bool) {
	for {
		v, ok := s.queue.Dequeue()
		if !ok {
			return nil, false
		}
		ev := v.(*event)
		if ev.cancelled != nil && *ev.cancelled {
			continue
		}
		return ev, true
	}
}

func (s *Scheduler) peekAt() (time.Time, bool) {
	for {
		v, ok := s.queue.Peek()
		if !ok {
			return time.Time{}, false
		}
		ev := v.(*event)
		if ev.cancelled != nil && *ev.cancelled {
			s.queue.Dequeue()
			continue
		}
		return ev.at, true
	}
}

// fire runs one event and re-arms it if recurring. The bool result is
// false when the task asked the loop to stop.
func (s *Scheduler) fire(ev *event) bool {
	err := ev.run()
	if errors.Is(err, ErrStop) {
		return false
	}
	if err != nil {
		tracer().Errorf("scheduled task failed: %v", err)
	}
	if ev.cancelled != nil && *ev.cancelled {
		return true
	}
	switch {
	case ev.cron != nil:
		ev.at = ev.cron.Next(s.clock.Now())
		s.push(ev)
	case ev.interval > 0:
		ev.at = ev.at.Add(ev.interval)
		s.push(ev)
	}
	return true
}

// Run drives the loop until the queue drains (and no server is
// listening), or until a task stops the script. With forever set the
// loop keeps waiting for timers and requests even when idle.
//
// On a virtual clock the loop never sleeps: it jumps the clock to each
// trigger time, which is how script tests run schedules instantly.
func (s *Scheduler) Run(forever bool) error {
	vclock, virtual := s.clock.(*VirtualClock)
	for {
		at, ok := s.peekAt()
		if !ok && len(s.servers) == 0 && !forever {
			return nil
		}

		if virtual {
			if !ok {
				// Virtual time has nothing to wait for.
				return nil
			}
			vclock.Set(at)
			ev, _ := s.pop()
			if !s.fire(ev) {
				return nil
			}
			continue
		}

		var timer <-chan time.Time
		if ok {
			d := time.Until(at)
			if d < 0 {
				d = 0
			}
			timer = time.After(d)
		}
		select {
		case <-timer:
			now := s.clock.Now()
			for {
				at, ok := s.peekAt()
				if !ok || at.After(now) {
					break
				}
				ev, _ := s.pop()
				if !s.fire(ev) {
					return nil
				}
			}
		case req := <-s.reqCh:
			err := req.handle()
			req.done <- err
			if errors.Is(err, ErrStop) {
				return nil
			}
		}
	}
}

// RunUntilIdle is Run without forever, for driving schedules in tests.
func (s *Scheduler) RunUntilIdle() error { return s.Run(false) }

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
