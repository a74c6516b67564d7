package schedule_test

import (
	"testing"
	"time"

	"callwatch/internal/schedule"
)

func TestManualRunsTasksWhenDue(t *testing.T) {
	clock := schedule.NewManual()
	var order []string
	clock.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	clock.AfterFunc(time.Second, func() { order = append(order, "a") })

	clock.Advance(1999 * time.Millisecond)
	if len(order) != 1 || order[0] != "a" {
		t.Fatalf("unexpected order before deadline: %v", order)
	}
	clock.Advance(time.Millisecond)
	if len(order) != 2 || order[1] != "b" {
		t.Fatalf("unexpected order after deadline: %v", order)
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected no pending tasks, got %d", clock.Pending())
	}
}

func TestManualStopCancelsTask(t *testing.T) {
	clock := schedule.NewManual()
	ran := false
	task := clock.AfterFunc(time.Second, func() { ran = true })
	if !task.Stop() {
		t.Fatal("expected first Stop to report true")
	}
	if task.Stop() {
		t.Fatal("expected second Stop to report false")
	}
	clock.Advance(time.Minute)
	if ran {
		t.Fatal("stopped task ran")
	}
}

func TestManualRunsTasksScheduledByCallbacks(t *testing.T) {
	clock := schedule.NewManual()
	count := 0
	clock.AfterFunc(time.Second, func() {
		count++
		clock.AfterFunc(time.Second, func() { count++ })
	})
	clock.Advance(3 * time.Second)
	if count != 2 {
		t.Fatalf("expected chained task to run, count=%d", count)
	}
}

func TestRealAfterFuncFires(t *testing.T) {
	done := make(chan struct{})
	schedule.Real{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real scheduler did not fire")
	}
}
