// Package loop provides a single-threaded, JavaScript-style event loop with
// a virtual clock.
//
// Macrotasks are timers scheduled with SetTimeout; a zero delay means "on
// a later turn". Microtasks queued with QueueMicrotask run before the next
// macrotask, and the microtask queue is drained after every macrotask.
// Time only advances when Tick or Drain needs the next timer, so code that
// schedules timers runs deterministically in tests.
//
// Any goroutine may schedule work; tasks always run on the goroutine that
// calls Tick or Drain.
package loop

import (
	"container/heap"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// DefaultMaxTasks bounds a single Drain.
const DefaultMaxTasks = 100_000

// Loop is the event loop.
type Loop struct {
	mu       sync.Mutex
	timers   timerHeap
	byID     map[int]*timer
	micro    []func()
	nextID   int
	seq      uint64
	now      time.Time
	maxTasks int
	logger   *slog.Logger
	onPanic  func(v any)
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used to report recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMaxTasks bounds how many macrotasks a single Drain runs.
func WithMaxTasks(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxTasks = n
		}
	}
}

// WithPanicHandler is called with the value of every recovered task panic,
// after it has been logged.
func WithPanicHandler(fn func(v any)) Option {
	return func(l *Loop) {
		l.onPanic = fn
	}
}

// WithStartTime sets the initial virtual time.
func WithStartTime(t time.Time) Option {
	return func(l *Loop) {
		l.now = t
	}
}

// New creates an empty loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		byID:     make(map[int]*timer),
		now:      time.Unix(0, 0).UTC(),
		maxTasks: DefaultMaxTasks,
		logger:   slog.Default().With("component", "loop"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetTimeout schedules fn to run once the virtual clock reaches now+delay.
// Timers with equal deadlines run in scheduling order.
func (l *Loop) SetTimeout(fn func(), delay time.Duration) int {
	if delay < 0 {
		delay = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	l.seq++
	t := &timer{id: l.nextID, seq: l.seq, due: l.now.Add(delay), fn: fn}
	heap.Push(&l.timers, t)
	l.byID[t.id] = t
	return t.id
}

// ClearTimeout cancels a pending timer. Unknown ids are ignored.
func (l *Loop) ClearTimeout(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.byID[id]
	if !ok {
		return
	}
	delete(l.byID, id)
	heap.Remove(&l.timers, t.index)
}

// QueueMicrotask schedules fn before the next macrotask.
func (l *Loop) QueueMicrotask(fn func()) {
	l.mu.Lock()
	l.micro = append(l.micro, fn)
	l.mu.Unlock()
}

// Now returns the virtual time.
func (l *Loop) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// Pending returns the number of queued timers and microtasks.
func (l *Loop) Pending() (timers, microtasks int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers), len(l.micro)
}

// Tick drains microtasks, runs the earliest timer (advancing the clock to
// its deadline if needed) and drains microtasks again. It reports whether a
// timer ran.
func (l *Loop) Tick() bool {
	l.runMicrotasks()

	l.mu.Lock()
	if len(l.timers) == 0 {
		l.mu.Unlock()
		return false
	}
	t := heap.Pop(&l.timers).(*timer)
	delete(l.byID, t.id)
	if t.due.After(l.now) {
		l.now = t.due
	}
	l.mu.Unlock()

	l.run("timer", t.fn)
	l.runMicrotasks()
	return true
}

// Drain runs tasks until both queues are empty or the task bound is hit.
// It returns the number of timers that ran.
func (l *Loop) Drain() int {
	n := 0
	for n < l.maxTasks {
		if !l.Tick() {
			return n
		}
		n++
	}
	timers, _ := l.Pending()
	l.logger.Warn("drain stopped at task bound", "max_tasks", l.maxTasks, "pending_timers", timers)
	return n
}

// AdvanceBy runs every timer due within d of the current time, then sets
// the clock to now+d.
func (l *Loop) AdvanceBy(d time.Duration) int {
	l.runMicrotasks()
	l.mu.Lock()
	until := l.now.Add(d)
	l.mu.Unlock()

	n := 0
	for {
		l.mu.Lock()
		if len(l.timers) == 0 || l.timers[0].due.After(until) {
			l.now = until
			l.mu.Unlock()
			return n
		}
		l.mu.Unlock()
		l.Tick()
		n++
	}
}

func (l *Loop) runMicrotasks() {
	for {
		l.mu.Lock()
		if len(l.micro) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.micro
		l.micro = nil
		l.mu.Unlock()

		for _, fn := range batch {
			l.run("microtask", fn)
		}
	}
}

func (l *Loop) run(kind string, fn func()) {
	defer func() {
		if v := recover(); v != nil {
			l.logger.Error("task panicked",
				"kind", kind,
				"panic", fmt.Sprint(v),
				"stack", string(debug.Stack()))
			if l.onPanic != nil {
				l.onPanic(v)
			}
		}
	}()
	fn()
}

type timer struct {
	id    int
	seq   uint64
	due   time.Time
	fn    func()
	index int
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
