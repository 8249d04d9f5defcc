package workerpool

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"go.viam.com/navvolume/logging"
)

// GroupStats counts how a Group scheduled its work.
type GroupStats struct {
	Forked int64
	Inline int64
}

// Group tracks a tree of recursive calls scheduled over a Pool. Each call to Go either forks the
// function onto the pool, when the pool reports spare capacity, or runs it inline on the calling
// goroutine. Wait joins every forked function and returns their combined errors.
type Group struct {
	ctx    context.Context
	pool   *Pool
	logger logging.Logger

	wg sync.WaitGroup

	mu  sync.Mutex
	err error

	stopOnce sync.Once

	forked atomic.Int64
	inline atomic.Int64
}

// NewGroup returns a Group scheduling onto `pool`. Once `ctx` is done the group stops scheduling
// new work; functions that already started are left to finish.
func NewGroup(ctx context.Context, pool *Pool, logger logging.Logger) *Group {
	return &Group{
		ctx:    ctx,
		pool:   pool,
		logger: logger,
	}
}

// Go runs fn, forked or inline. It is safe to call from inside a function that is itself running
// under this group, on a pool worker or not.
//
// The fork decision reads the pool's advisory capacity and may race with other submitters; the
// pool queue absorbs any oversubmission. A rejected submission (the pool was disposed) falls back
// to running inline so no work is lost.
func (g *Group) Go(fn func(ctx context.Context) error) {
	if err := g.ctx.Err(); err != nil {
		g.stopOnce.Do(func() {
			g.logger.CDebugw(g.ctx, "group stopped scheduling work", "error", err)
			g.record(errors.Wrap(err, "stopped scheduling work"))
		})
		return
	}

	if g.pool.AvailableCapacity() > 0 {
		g.wg.Add(1)
		err := g.pool.Submit(func() {
			defer g.wg.Done()
			g.run(fn)
		})
		if err == nil {
			g.forked.Inc()
			return
		}
		g.wg.Done()
		if !errors.Is(err, ErrPoolClosed) {
			g.record(err)
			return
		}
		g.logger.CDebugw(g.ctx, "pool closed while forking, running inline")
	}

	g.inline.Inc()
	g.run(fn)
}

// Wait blocks until every function forked by this group has returned, then returns all errors and
// panics they produced, combined.
func (g *Group) Wait() error {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Stats returns how many functions were forked and how many ran inline so far.
func (g *Group) Stats() GroupStats {
	return GroupStats{
		Forked: g.forked.Load(),
		Inline: g.inline.Load(),
	}
}

func (g *Group) run(fn func(ctx context.Context) error) {
	defer func() {
		if thePanic := recover(); thePanic != nil {
			g.record(errors.Errorf("got panic running task: %v", thePanic))
		}
	}()
	if err := fn(g.ctx); err != nil {
		g.record(err)
	}
}

func (g *Group) record(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = multierr.Append(g.err, err)
}
