// Package cpuworker implements the CpuWorker pool (spec.md §5): the one
// deliberate departure from single-threadedness, used to offload
// blocking file I/O and CPU-bound work (e.g. software frame compose)
// off the main loop thread. Completions re-enter the main thread
// through the event loop via an eventfd-backed signal, never by
// touching compositor state directly from a worker goroutine.
//
// Grounded on original_source/src/cpu_worker/tests.rs, which confirms
// jay itself splits blocking work into a worker pool distinct from its
// async engine, with completions delivered back onto the main thread.
package cpuworker

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"jaywl/internal/loop"
	"jaywl/internal/wlog"
)

// Job is a unit of work run on a worker goroutine. It must not touch
// any compositor state reachable from the main loop thread; its
// result is handed back through Complete.
type Job func() any

// Pool is a fixed-size goroutine pool whose completions are drained by
// the main loop via a single eventfd registration.
type Pool struct {
	jobs chan job

	mu        sync.Mutex
	completed []result

	notifyFd  int
	idCounter uint64
	log       *wlog.Logger
}

type job struct {
	fn   Job
	id   uint64
	done func(any)
}

type result struct {
	id   uint64
	done func(any)
	val  any
}

// New starts n worker goroutines and registers the pool's completion
// fd with l under id.
func New(l *loop.Loop, id loop.ID, n int) (*Pool, error) {
	if n < 1 {
		n = 1
	}
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("cpuworker: eventfd: %w", err)
	}
	p := &Pool{
		jobs:     make(chan job, 64),
		notifyFd: fd,
		log:      wlog.CPUWorker,
	}
	if err := l.Insert(id, fd, loop.Readable, p.drain); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("cpuworker: registering completion dispatcher: %w", err)
	}
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p, nil
}

func (p *Pool) worker() {
	for j := range p.jobs {
		val := j.fn()
		p.mu.Lock()
		p.completed = append(p.completed, result{id: j.id, done: j.done, val: val})
		p.mu.Unlock()
		var b [8]byte
		b[0] = 1
		unix.Write(p.notifyFd, b[:])
	}
}

// Submit queues fn to run on a worker goroutine; done is invoked on
// the main loop thread (from within the event loop's dispatch) with
// fn's return value once it completes. Submit must only be called
// from the main loop thread.
func (p *Pool) Submit(fn Job, done func(any)) {
	p.idCounter++
	p.jobs <- job{fn: fn, id: p.idCounter, done: done}
}

// drain is the loop.Dispatcher invoked when the completion eventfd
// becomes readable; it runs every done callback queued since the last
// drain, in completion order.
func (p *Pool) drain(_ time.Time) error {
	var b [8]byte
	unix.Read(p.notifyFd, b[:])

	p.mu.Lock()
	pending := p.completed
	p.completed = nil
	p.mu.Unlock()

	for _, r := range pending {
		if r.done != nil {
			r.done(r.val)
		}
	}
	return nil
}

func (p *Pool) Close() {
	close(p.jobs)
	unix.Close(p.notifyFd)
}
