// Package workerpool implements a fixed size pool of goroutine workers that supports recursive task
// submission, along with a fork/join Group that decides per call whether to offload work to the
// pool or run it inline.
package workerpool

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"go.viam.com/navvolume/logging"
)

// ErrPoolClosed is returned when submitting to a pool that has been disposed.
var ErrPoolClosed = errors.New("pool closed")

// Task is a unit of work. A task accepted by Submit runs exactly once on one of the pool's workers.
type Task func()

// Stats is a snapshot of a pool's counters.
type Stats struct {
	Size      int
	Submitted int64
	Executed  int64
}

// Pool is a fixed set of long-lived workers consuming a shared FIFO queue. Tasks may submit more
// tasks to the pool they are running on.
type Pool struct {
	logger logging.Logger
	size   int

	// mu guards queue and the transition of disposed; cond is signaled on every enqueue and
	// broadcast on disposal.
	mu    sync.Mutex
	cond  *sync.Cond
	queue []Task

	disposed atomic.Bool
	// idle counts workers that are not currently running a task. pending counts tasks sitting in
	// the queue. Both are only read for the advisory capacity figure.
	idle    atomic.Int32
	pending atomic.Int32

	submitted atomic.Int64
	executed  atomic.Int64

	activeWorkers sync.WaitGroup
}

// New starts a pool with `threadCount` workers which immediately begin polling for work.
func New(threadCount int, logger logging.Logger) (*Pool, error) {
	if threadCount < 1 {
		return nil, errors.Errorf("invalid thread count (%d) for worker pool", threadCount)
	}

	p := &Pool{
		logger: logger,
		size:   threadCount,
	}
	p.cond = sync.NewCond(&p.mu)
	p.idle.Store(int32(threadCount))

	p.activeWorkers.Add(threadCount)
	for i := 0; i < threadCount; i++ {
		// ManagedGo logs a task panic and restarts the worker loop.
		goutils.ManagedGo(p.work, p.activeWorkers.Done)
	}
	p.logger.Debugw("worker pool started", "workers", threadCount)
	return p, nil
}

// Size returns the number of workers, fixed at construction.
func (p *Pool) Size() int {
	return p.size
}

// Submit appends the task to the queue and wakes one blocked worker. It returns ErrPoolClosed if
// Dispose has begun. The closed check and the enqueue happen under the lock Dispose takes to flip
// the flag, so an accepted task always runs before Dispose returns.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("cannot submit a nil task")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed.Load() {
		return ErrPoolClosed
	}
	p.queue = append(p.queue, task)
	p.pending.Inc()
	p.submitted.Inc()
	p.cond.Signal()
	return nil
}

// AvailableCapacity returns how many workers looked free at the moment of the call: idle workers
// minus tasks already waiting in the queue, or 0 once the pool is disposed. The value is a hint and
// may be stale by the time the caller acts on it; it does not reserve anything.
func (p *Pool) AvailableCapacity() int {
	if p.disposed.Load() {
		return 0
	}
	free := int(p.idle.Load() - p.pending.Load())
	if free < 0 {
		return 0
	}
	return free
}

// Dispose stops accepting tasks, wakes every blocked worker and waits for all of them to exit.
// Workers finish the tasks that were accepted before the flag flipped. Calling Dispose more than
// once is safe; later calls only wait for the workers. Dispose must not be called from a task
// running on this pool.
func (p *Pool) Dispose() {
	p.mu.Lock()
	if !p.disposed.Load() {
		p.disposed.Store(true)
		p.cond.Broadcast()
		p.logger.Debugw("worker pool disposing", "queued", len(p.queue))
	}
	p.mu.Unlock()

	p.activeWorkers.Wait()
}

// Stats returns the pool's counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Size:      p.size,
		Submitted: p.submitted.Load(),
		Executed:  p.executed.Load(),
	}
}

func (p *Pool) work() {
	for {
		task, ok := p.next()
		if !ok {
			return
		}
		p.run(task)
	}
}

// next blocks until a task is available or the pool is disposed and drained.
func (p *Pool) next() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 {
		if p.disposed.Load() {
			return nil, false
		}
		p.cond.Wait()
	}

	task := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	if len(p.queue) == 0 {
		p.queue = nil
	}
	// Mark the worker busy before the task leaves the queue count so the capacity figure never
	// briefly overstates free workers.
	p.idle.Dec()
	p.pending.Dec()
	return task, true
}

func (p *Pool) run(task Task) {
	defer p.idle.Inc()
	defer p.executed.Inc()
	task()
}
