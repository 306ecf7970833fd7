// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

package sched

import (
	"errors"
	"testing"
	"time"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	cronparse "github.com/robfig/cron/v3"
)

func virtualScheduler() (*Scheduler, *VirtualClock) {
	clock := NewVirtualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	return New(clock), clock
}

func TestAfterFiresInOrder(t *testing.T) {
	s, _ := virtualScheduler()
	var got []string
	s.After(5, func() error { got = append(got, "b"); return nil })
	s.After(2, func() error { got = append(got, "a"); return nil })
	s.After(9, func() error { got = append(got, "c"); return nil })

	if err := s.RunUntilIdle(); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("fired %v, want [a b c]", got)
	}
}

// Events with the same trigger time fire in registration order.
func TestTieBreakByRegistration(t *testing.T) {
	s, _ := virtualScheduler()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		s.After(3, func() error { got = append(got, i); return nil })
	}
	if err := s.RunUntilIdle(); err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order %v, want ascending", got)
		}
	}
}

func TestEveryRearmsUntilStopped(t *testing.T) {
	s, _ := virtualScheduler()
	count := 0
	s.Every("", 10, func() error {
		count++
		if count == 3 {
			return ErrStop
		}
		return nil
	})
	if err := s.RunUntilIdle(); err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("fired %d times, want 3", count)
	}
}

func TestIntervalSpacing(t *testing.T) {
	s, clock := virtualScheduler()
	start := clock.Now()
	var at []time.Duration
	s.Every("", 2, func() error {
		at = append(at, clock.Now().Sub(start))
		if len(at) == 3 {
			return ErrStop
		}
		return nil
	})
	if err := s.RunUntilIdle(); err != nil {
		t.Fatal(err)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}
	for i := range want {
		if at[i] != want[i] {
			t.Fatalf("firing times %v, want %v", at, want)
		}
	}
}

func TestCancelJob(t *testing.T) {
	s, _ := virtualScheduler()
	fired := false
	s.Every("poll", 5, func() error { fired = true; return nil })
	s.CancelJob("poll")
	if err := s.RunUntilIdle(); err != nil {
		t.Fatal(err)
	}
	if fired {
		t.Fatal("cancelled job fired")
	}
}

func TestCancelMissingJobIsNoop(t *testing.T) {
	s, _ := virtualScheduler()
	s.CancelJob("no-such-job")
	if err := s.RunUntilIdle(); err != nil {
		t.Fatal(err)
	}
}

func TestJobNameReplaces(t *testing.T) {
	s, _ := virtualScheduler()
	var got []string
	s.Every("poll", 5, func() error { got = append(got, "old"); return ErrStop })
	s.Every("poll", 5, func() error { got = append(got, "new"); return ErrStop })
	if err := s.RunUntilIdle(); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "new" {
		t.Fatalf("fired %v, want [new]", got)
	}
}

func TestTaskErrorKeepsLoopRunning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gopa.sched")
	defer teardown()

	s, _ := virtualScheduler()
	second := false
	s.After(1, func() error { return errors.New("boom") })
	s.After(2, func() error { second = true; return nil })
	if err := s.RunUntilIdle(); err != nil {
		t.Fatal(err)
	}
	if !second {
		t.Fatal("an ordinary task error must not stop the loop")
	}
}

func TestNormalizeCron(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"every minute", "* * * * *"},
		{"every hour", "0 * * * *"},
		{"every day at 9:00", "0 9 * * *"},
		{"every day at 07:05", "5 7 * * *"},
		{"every monday at 8:30", "30 8 * * 1"},
		{"0 9 * * *", "0 9 * * *"},
	}
	for _, c := range cases {
		got, err := NormalizeCron(c.in)
		if err != nil {
			t.Fatalf("NormalizeCron(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("NormalizeCron(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	if _, err := NormalizeCron("whenever"); err == nil {
		t.Fatal("want error for bad schedule")
	}
}

// The friendly form and its five-field equivalent compute the same next
// trigger time.
func TestFriendlyCronEquivalence(t *testing.T) {
	friendly, err := NormalizeCron("every day at 9:00")
	if err != nil {
		t.Fatal(err)
	}
	a, err := cronparse.ParseStandard(friendly)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cronparse.ParseStandard("0 9 * * *")
	if err != nil {
		t.Fatal(err)
	}
	from := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if !a.Next(from).Equal(b.Next(from)) {
		t.Fatalf("next triggers differ: %v vs %v", a.Next(from), b.Next(from))
	}
}

func TestCronFires(t *testing.T) {
	s, clock := virtualScheduler()
	count := 0
	err := s.Cron("every hour", func() error {
		count++
		if count == 2 {
			return ErrStop
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RunUntilIdle(); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("fired %d times, want 2", count)
	}
	// 12:00 start -> fires at 13:00 and 14:00.
	if clock.Now().Hour() != 14 {
		t.Fatalf("clock at %v, want 14:00", clock.Now())
	}
}

func TestWaitAdvancesVirtualClock(t *testing.T) {
	s, clock := virtualScheduler()
	before := clock.Now()
	s.Wait(3)
	if got := clock.Now().Sub(before); got != 3*time.Second {
		t.Fatalf("wait advanced %v, want 3s", got)
	}
}

func TestDispatch(t *testing.T) {
	s, _ := virtualScheduler()
	err := s.Serve(8080, []Route{
		{Method: "GET", Path: "/hello", Handle: func(req Request) (Response, error) {
			return Response{Status: 200, ContentType: "text/plain", Body: "hi " + req.Query["name"]}, nil
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	resp, ok, err := s.Dispatch("GET", "/hello", Request{Query: map[string]string{"name": "amy"}})
	if err != nil {
		t.Fatal(err)
	}
	if !ok || resp.Body != "hi amy" {
		t.Fatalf("dispatch = %+v ok=%v", resp, ok)
	}

	if resp, _, _ := s.Dispatch("GET", "/missing", Request{}); resp.Status != 404 {
		t.Fatalf("missing route status = %d, want 404", resp.Status)
	}
}

// A handler that stops the script surfaces ErrStop through Dispatch the
// same way a task surfaces it through the loop.
func TestDispatchHandlerStop(t *testing.T) {
	s, _ := virtualScheduler()
	err := s.Serve(8080, []Route{
		{Method: "GET", Path: "/quit", Handle: func(Request) (Response, error) {
			return Response{}, ErrStop
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, ok, err := s.Dispatch("GET", "/quit", Request{})
	if !ok || !errors.Is(err, ErrStop) {
		t.Fatalf("ok=%v err=%v, want ErrStop", ok, err)
	}
}

// A stop arriving over the request channel shuts the loop down, just
// like a stopping timer task.
func TestRequestStopEndsLoop(t *testing.T) {
	s := New(RealClock{})
	finished := make(chan error, 1)
	go func() { finished <- s.Run(true) }()

	pending := &pendingRequest{
		handle: func() error { return ErrStop },
		done:   make(chan error, 1),
	}
	s.reqCh <- pending
	if err := <-pending.done; !errors.Is(err, ErrStop) {
		t.Fatalf("handler error = %v, want ErrStop", err)
	}

	select {
	case err := <-finished:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop kept running after a stopping request")
	}
}
