package navvolume

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"go.viam.com/navvolume/logging"
	"go.viam.com/navvolume/octree"
	"go.viam.com/navvolume/workerpool"
)

// Run is a single construction run. Each phase runs on its own pool, which is disposed before the
// run advances, so the next phase never observes work still in flight from the previous one.
type Run struct {
	id     uuid.UUID
	req    Request
	logger logging.Logger

	clock     clock.Clock
	listeners []StateListener
	debug     bool

	state atomic.Int32

	once   sync.Once
	volume *NavVolume
	err    error
}

// StateListener is called after every state change of a run, on the goroutine executing the run.
type StateListener func(from, to State)

// RunOption configures a Run.
type RunOption func(r *Run)

// WithStateListener registers a listener for state changes.
func WithStateListener(listener StateListener) RunOption {
	return func(r *Run) {
		r.listeners = append(r.listeners, listener)
	}
}

// WithClock sets the clock phases are timed with.
func WithClock(clk clock.Clock) RunOption {
	return func(r *Run) {
		r.clock = clk
	}
}

// WithDebugMode logs the run's phase and scheduling details at debug level even when its logger is
// not at debug level. The entries carry the run id.
func WithDebugMode() RunOption {
	return func(r *Run) {
		r.debug = true
	}
}

// NewRun validates req and returns a run in the Idle state.
func NewRun(req Request, logger logging.Logger, opts ...RunOption) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid construction request")
	}
	r := &Run{
		id:     uuid.New(),
		req:    req,
		logger: logger,
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Build validates req and executes a run for it.
func Build(ctx context.Context, req Request, logger logging.Logger, opts ...RunOption) (*NavVolume, error) {
	run, err := NewRun(req, logger, opts...)
	if err != nil {
		return nil, err
	}
	return run.Execute(ctx)
}

// ID identifies the run in logs and on the resulting volume.
func (r *Run) ID() uuid.UUID {
	return r.id
}

// State returns the current state of the run.
func (r *Run) State() State {
	return State(r.state.Load())
}

// Execute runs both phases and returns the volume once the run is Done. Only the first call does
// any work; later calls return the same result. A run that fails or is canceled ends Failed and
// returns no volume.
func (r *Run) Execute(ctx context.Context) (*NavVolume, error) {
	r.once.Do(func() {
		if r.debug {
			ctx = logging.EnableDebugMode(ctx, r.id.String())
		}
		r.volume, r.err = r.execute(ctx)
		if r.err != nil {
			goutils.UncheckedError(r.transition(r.State(), Failed))
			r.logger.Errorw("construction failed", "run", r.id, "error", r.err)
		}
	})
	return r.volume, r.err
}

func (r *Run) execute(ctx context.Context) (*NavVolume, error) {
	var stats Stats
	stats.OccupiedCells = r.req.Grid.Count()

	tree, err := octree.NewBuildTree(r.req.Depth, r.logger.Sublogger("octree"))
	if err != nil {
		return nil, err
	}
	stats.ArenaNodes = tree.Len()

	if err := r.transition(Idle, Constructing); err != nil {
		return nil, err
	}
	stats.Construct, err = r.phase(ctx, "construct", func(group *workerpool.Group) error {
		return octree.Construct(tree, r.req.Grid, group)
	})
	if err != nil {
		return nil, errors.Wrap(err, "constructing")
	}

	if err := r.transition(Constructing, Reducing); err != nil {
		return nil, err
	}
	stats.Reduce, err = r.phase(ctx, "reduce", func(group *workerpool.Group) error {
		return octree.Reduce(tree, group)
	})
	if err != nil {
		return nil, errors.Wrap(err, "reducing")
	}

	start := r.clock.Now()
	reduced, err := octree.Compact(tree, r.req.Center, r.req.sideLength())
	if err != nil {
		return nil, err
	}
	stats.Compact = r.clock.Since(start)
	stats.Nodes = reduced.Size()
	stats.LevelCounts = reduced.LevelCounts()

	volume := &NavVolume{
		id:         r.id,
		center:     r.req.Center,
		depth:      r.req.Depth,
		sideLength: r.req.sideLength(),
		tree:       reduced,
		stats:      stats,
	}
	if err := r.transition(Reducing, Done); err != nil {
		return nil, err
	}
	r.logger.Infow("construction done",
		"run", r.id,
		"nodes", stats.Nodes,
		"occupied_cells", stats.OccupiedCells,
		"duration", stats.Total(),
	)
	return volume, nil
}

// phase runs fn on a fresh pool, waits for fn's group and then disposes the pool.
func (r *Run) phase(ctx context.Context, name string, fn func(group *workerpool.Group) error) (PhaseStats, error) {
	start := r.clock.Now()
	pool, err := workerpool.New(r.req.PoolSize, r.logger.Sublogger("pool"))
	if err != nil {
		return PhaseStats{}, err
	}
	group := workerpool.NewGroup(ctx, pool, r.logger.Sublogger(name))
	err = fn(group)
	pool.Dispose()

	stats := PhaseStats{Duration: r.clock.Since(start), GroupStats: group.Stats()}
	r.logger.CDebugw(ctx, "phase joined",
		"run", r.id,
		"phase", name,
		"duration", stats.Duration,
		"forked", stats.Forked,
		"inline", stats.Inline,
	)
	return stats, err
}

func (r *Run) transition(from, to State) error {
	if !r.state.CompareAndSwap(int32(from), int32(to)) {
		return errors.Errorf("cannot move from %v to %v, run is %v", from, to, r.State())
	}
	r.logger.Debugw("state transition", "run", r.id, "from", from.String(), "to", to.String())
	for _, listener := range r.listeners {
		listener(from, to)
	}
	return nil
}
