// Package schedule runs deferred one-shot work. Production code uses the
// wall clock; tests drive a Manual scheduler through virtual time.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// Task is a pending one-shot callback.
type Task interface {
	// Stop cancels the task. It reports false when the task already ran or
	// was stopped before.
	Stop() bool
}

// Scheduler runs fn once after delay.
type Scheduler interface {
	AfterFunc(delay time.Duration, fn func()) Task
}

// Real schedules on the wall clock.
type Real struct{}

// AfterFunc runs fn in its own goroutine after delay.
func (Real) AfterFunc(delay time.Duration, fn func()) Task {
	return time.AfterFunc(delay, fn)
}

// Manual is a virtual-time scheduler. Tasks run synchronously from Advance,
// in due order.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

// NewManual returns a Manual scheduler positioned at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

type manualTask struct {
	owner *Manual
	due   time.Duration
	seq   int
	fn    func()
	done  bool
}

func (t *manualTask) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// AfterFunc registers fn to run once virtual time reaches now+delay.
func (m *Manual) AfterFunc(delay time.Duration, fn func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if delay < 0 {
		delay = 0
	}
	m.seq++
	task := &manualTask{owner: m, due: m.now + delay, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, task)
	return task
}

// Advance moves virtual time forward by d and runs every task that became
// due, including tasks scheduled by callbacks within the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		task := m.nextDue(target)
		if task == nil {
			break
		}
		task.fn()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// Pending reports how many tasks are waiting to run.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, task := range m.tasks {
		if !task.done {
			count++
		}
	}
	return count
}

func (m *Manual) nextDue(target time.Duration) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.tasks[:0]
	for _, task := range m.tasks {
		if !task.done {
			live = append(live, task)
		}
	}
	m.tasks = live
	if len(live) == 0 {
		return nil
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].due != live[j].due {
			return live[i].due < live[j].due
		}
		return live[i].seq < live[j].seq
	})
	next := live[0]
	if next.due > target {
		return nil
	}
	next.done = true
	if next.due > m.now {
		m.now = next.due
	}
	return next
}
