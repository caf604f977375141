// Package async implements the phase-based cooperative task executor
// described in spec.md §4.2, ported (not translated) from the idiom in
// original_source/src/async_engine/ae_queue.rs: a small fixed array of
// FIFO phase queues, each task carrying a "queued" bit so waking an
// already-queued task is a no-op, and a restart-at-earlier-phase rule
// so a Phase-N task waking a Phase-M<N task is honored within the same
// loop iteration.
//
// Without native coroutines, each long-lived task is an explicit state
// machine: Step is called repeatedly by the engine until it returns
// Done or an error; between calls all task-local state must be stored
// on the Task implementation itself (Design Notes §9, "Async state
// machines").
package async

import (
	"fmt"
	"time"

	"jaywl/internal/loop"
	"jaywl/internal/wlog"
)

// NumPhases is the number of priority bands the engine drains in order
// each iteration (spec.md §4.2: "a small fixed number, e.g. five").
const NumPhases = 5

// Status is returned by a Task's Step to tell the engine what to do next.
type Status int

const (
	// Suspended means the task is waiting on something external (an
	// I/O op, another task) and will be re-woken via Wake.
	Suspended Status = iota
	// Runnable means the task should be re-enqueued immediately, in
	// the phase it requests via its next call.
	Runnable
	// Done means the task has finished; it is dropped and never
	// stepped again.
	Done
)

// Task is a single long-lived unit of cooperative work.
type Task interface {
	// Step runs the task until its next suspension point. phase is
	// the phase the engine is currently draining. The returned phase
	// is where the task should be re-enqueued if Runnable (ignored
	// otherwise).
	Step(phase int) (Status, int)
	// Name is used for diagnostics.
	Name() string
}

type taskState struct {
	task   Task
	queued bool
	phase  int
	handle *Handle
}

// Handle is returned by Spawn. Dropping it (calling Cancel) cancels
// the task at its next suspension point (spec.md §4.2, §5).
type Handle struct {
	engine    *Engine
	cancelled bool
	state     *taskState
}

// Cancel requests cancellation. The task's Step will not be invoked
// again after this call returns, even if it is currently queued.
func (h *Handle) Cancel() {
	if h.cancelled {
		return
	}
	h.cancelled = true
	h.engine.remove(h.state)
}

// Engine wraps an event Loop with the phase-queue executor.
type Engine struct {
	l          *loop.Loop
	queues     [NumPhases][]*taskState
	inQueue    map[*taskState]bool
	scheduleID loop.ID
	log        *wlog.Logger
}

// New creates an Engine driven by l. id is the loop.ID the engine
// registers itself under for Schedule-driven draining.
func New(l *loop.Loop, id loop.ID) (*Engine, error) {
	e := &Engine{l: l, inQueue: map[*taskState]bool{}, scheduleID: id, log: wlog.Async}
	if err := l.Insert(id, -1, 0, e.drain); err != nil {
		return nil, fmt.Errorf("async: registering engine dispatcher: %w", err)
	}
	return e, nil
}

// Spawn registers a new task, runnable starting at phase 0 on the
// engine's next drain.
func (e *Engine) Spawn(task Task) *Handle {
	st := &taskState{task: task, phase: 0}
	h := &Handle{engine: e, state: st}
	st.handle = h
	e.enqueue(st, 0)
	return h
}

// enqueue appends st at the end of phase's queue, moving it there if
// it is already queued in a later phase. A task yields by returning
// (Runnable, phase) from Step; the engine then calls enqueue for it.
func (e *Engine) enqueue(st *taskState, phase int) {
	if e.inQueue[st] {
		// Already queued somewhere; if the new phase is earlier,
		// move it — this is the "restart at the earlier phase" rule.
		for p := 0; p < NumPhases; p++ {
			q := e.queues[p]
			for i, s := range q {
				if s == st {
					if phase < p {
						e.queues[p] = append(q[:i], q[i+1:]...)
						break
					}
					return
				}
			}
		}
	}
	e.inQueue[st] = true
	st.phase = phase
	e.queues[phase] = append(e.queues[phase], st)
	e.l.Schedule(e.scheduleID)
}

func (e *Engine) remove(st *taskState) {
	delete(e.inQueue, st)
	for p := 0; p < NumPhases; p++ {
		q := e.queues[p]
		for i, s := range q {
			if s == st {
				e.queues[p] = append(q[:i], q[i+1:]...)
				return
			}
		}
	}
}

// Wake re-enqueues a suspended task at its last-known phase. Callers
// (e.g. an I/O completion dispatcher) hold the Handle returned from
// Spawn.
func (h *Handle) Wake() {
	if h.cancelled {
		return
	}
	h.engine.enqueue(h.state, h.state.phase)
}

// drain runs every queued task to quiescence or suspension, phase by
// phase, restarting at phase 0 whenever a later phase's task wakes an
// earlier one (spec.md §4.2).
func (e *Engine) drain(_ time.Time) error {
	return e.drainLoop()
}

func (e *Engine) drainLoop() error {
	for {
		progressed := false
		for phase := 0; phase < NumPhases; phase++ {
			for len(e.queues[phase]) > 0 {
				st := e.queues[phase][0]
				e.queues[phase] = e.queues[phase][1:]
				delete(e.inQueue, st)
				progressed = true

				status, nextPhase := st.task.Step(phase)
				switch status {
				case Done:
					// task finished; nothing further to do
				case Runnable:
					e.enqueue(st, nextPhase)
					if nextPhase < phase {
						// restart the whole drain at the earlier phase
						phase = -1
					}
				case Suspended:
					// left off the queues until Wake is called
				}
				// a Wake issued during this step may also have queued a
				// task in an earlier phase; restart the drain for that too
				for p := 0; p < phase; p++ {
					if len(e.queues[p]) > 0 {
						phase = -1
					}
				}
				if phase == -1 {
					break
				}
			}
		}
		if !progressed {
			return nil
		}
		// Check whether anything landed back in an earlier phase
		// during this pass; if all queues are empty we're done.
		empty := true
		for _, q := range e.queues {
			if len(q) > 0 {
				empty = false
				break
			}
		}
		if empty {
			return nil
		}
	}
}
