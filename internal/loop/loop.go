// Package loop implements the compositor's single-threaded event loop
// (spec.md §4.1): an epoll-backed dispatcher over registered file
// descriptors, one-shot timeouts, and explicit schedule() wake-ups,
// all invoked in a deterministic per-iteration order.
//
// The shape follows gogpu-gogpu/internal/platform/x11/connection.go's
// habit of extracting a raw *os.File from a net.Conn to get at its fd;
// here we go one step further and multiplex many such fds ourselves
// with epoll, since (unlike the teacher, which hands the single
// display fd to libwayland's own poll loop) we are the server and own
// the whole poll set.
package loop

import (
	"container/heap"
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"jaywl/internal/wlog"
)

// ID identifies a registration. IDs are caller-chosen 64-bit handles
// (spec.md §4.1).
type ID uint64

// Interest describes which readiness a dispatcher cares about.
type Interest uint8

const (
	Readable Interest = 1 << iota
	Writable
)

// Dispatcher is invoked when its registration becomes ready, is
// explicitly scheduled, or a timeout it owns fires. now is a
// consistent wall-clock snapshot for the whole iteration.
type Dispatcher func(now time.Time) error

type registration struct {
	id       ID
	fd       int
	hasFd    bool
	interest Interest
	dispatch Dispatcher
}

type timer struct {
	at       time.Time
	index    int
	callback func(now time.Time)
}

type timerHeap []*timer

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *timerHeap) Push(x any)         { t := x.(*timer); t.index = len(*h); *h = append(*h, t) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Loop is the event loop. It is not safe for concurrent use; the whole
// point is that everything runs on one goroutine (spec.md §5).
type Loop struct {
	epfd int

	regs     map[ID]*registration
	order    []ID // insertion order, for fd-ready dispatch ordering
	schedule []ID // pending explicit schedule() wakeups, FIFO
	queued   map[ID]bool

	timers timerHeap

	wakeFd   int // eventfd used to break epoll_wait for schedule()/stop()
	stopped  bool
	log      *wlog.Logger
}

// New creates an empty Loop backed by an epoll instance and an eventfd
// used to interrupt a blocked epoll_wait when schedule()/stop() are
// called (possibly from a CpuWorker completion callback posting back
// onto the loop's own wake mechanism, never from another goroutine
// touching Loop state directly).
func New() (*Loop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("loop: epoll_create1: %w", err)
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("loop: eventfd: %w", err)
	}
	l := &Loop{
		epfd:   epfd,
		regs:   map[ID]*registration{},
		queued: map[ID]bool{},
		wakeFd: wakeFd,
		log:    wlog.Loop,
	}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, l.wakeFd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(l.wakeFd),
	}); err != nil {
		unix.Close(epfd)
		unix.Close(wakeFd)
		return nil, fmt.Errorf("loop: epoll_ctl(wakeFd): %w", err)
	}
	return l, nil
}

// Insert registers a dispatcher for id. If fd >= 0, it is polled for
// the given interest; fd may be -1 for an id that is only ever driven
// via Schedule.
func (l *Loop) Insert(id ID, fd int, interest Interest, dispatch Dispatcher) error {
	if _, exists := l.regs[id]; exists {
		return fmt.Errorf("loop: id %d already registered", id)
	}
	r := &registration{id: id, fd: fd, interest: interest, dispatch: dispatch}
	if fd >= 0 {
		r.hasFd = true
		var events uint32
		if interest&Readable != 0 {
			events |= unix.EPOLLIN
		}
		if interest&Writable != 0 {
			events |= unix.EPOLLOUT
		}
		if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
			Events: events,
			Fd:     int32(fd),
		}); err != nil {
			return fmt.Errorf("loop: epoll_ctl(add, fd=%d): %w", fd, err)
		}
	}
	l.regs[id] = r
	l.order = append(l.order, id)
	return nil
}

// Remove deregisters id. Any pending wake-up for it is dropped.
func (l *Loop) Remove(id ID) {
	r, ok := l.regs[id]
	if !ok {
		return
	}
	if r.hasFd {
		unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, r.fd, nil)
	}
	delete(l.regs, id)
	delete(l.queued, id)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	next := l.schedule[:0]
	for _, sid := range l.schedule {
		if sid != id {
			next = append(next, sid)
		}
	}
	l.schedule = next
}

// Schedule marks id dispatchable at the next iteration regardless of
// fd readiness (spec.md §4.1).
func (l *Loop) Schedule(id ID) {
	if _, ok := l.regs[id]; !ok {
		return
	}
	if l.queued[id] {
		return
	}
	l.queued[id] = true
	l.schedule = append(l.schedule, id)
	l.wake()
}

func (l *Loop) wake() {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], 1)
	unix.Write(l.wakeFd, b[:])
}

// Timeout arms a one-shot callback for the monotonic instant `at`.
func (l *Loop) Timeout(at time.Time, callback func(now time.Time)) {
	heap.Push(&l.timers, &timer{at: at, callback: callback})
	l.wake()
}

// Stop causes Run to return after the current iteration completes.
func (l *Loop) Stop() {
	l.stopped = true
	l.wake()
}

// Run enters the loop. It returns when Stop is called.
func (l *Loop) Run() error {
	events := make([]unix.EpollEvent, 64)
	for !l.stopped {
		timeout := l.nextTimeout()
		n, err := unix.EpollWait(l.epfd, events, timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("loop: epoll_wait: %w", err)
		}
		now := time.Now()

		// Drain the wake eventfd if it fired; it carries no
		// dispatch of its own, it only interrupts the wait.
		for i := 0; i < n; i++ {
			if int(events[i].Fd) == l.wakeFd {
				var buf [8]byte
				unix.Read(l.wakeFd, buf[:])
			}
		}

		l.runTimers(now)

		// fd-ready dispatchers run in insertion order (spec.md §4.1),
		// not epoll's arbitrary return order.
		ready := make(map[ID]bool, n)
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == l.wakeFd {
				continue
			}
			for _, r := range l.regs {
				if r.hasFd && r.fd == fd {
					ready[r.id] = true
				}
			}
		}
		for _, id := range l.order {
			if !ready[id] {
				continue
			}
			r, ok := l.regs[id]
			if !ok {
				continue
			}
			if err := r.dispatch(now); err != nil {
				l.log.Printf("dispatcher %d error, dropping registration: %v", id, err)
				l.Remove(id)
			}
		}

		// explicit schedules run FIFO
		pending := l.schedule
		l.schedule = nil
		for _, id := range pending {
			delete(l.queued, id)
			r, ok := l.regs[id]
			if !ok {
				continue
			}
			if err := r.dispatch(now); err != nil {
				l.log.Printf("scheduled dispatcher %d error, dropping registration: %v", id, err)
				l.Remove(id)
			}
		}
	}
	return nil
}

func (l *Loop) runTimers(now time.Time) {
	for l.timers.Len() > 0 {
		t := l.timers[0]
		if t.at.After(now) {
			break
		}
		heap.Pop(&l.timers)
		t.callback(now)
	}
}

func (l *Loop) nextTimeout() int {
	if len(l.schedule) > 0 {
		return 0
	}
	if l.timers.Len() == 0 {
		return -1
	}
	d := time.Until(l.timers[0].at)
	if d < 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms > 1<<31-1 {
		ms = 1<<31 - 1
	}
	return int(ms)
}

// Close releases the loop's kernel resources.
func (l *Loop) Close() error {
	unix.Close(l.wakeFd)
	return unix.Close(l.epfd)
}
