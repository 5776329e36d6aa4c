package taskgraph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"taskgraph/internal/dag"
	"taskgraph/internal/metrics"
	"taskgraph/overlap"
	"taskgraph/tracelog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// TaskGraph is the scheduler facade: it owns a bounded DAG, a finished
// channel, and a single cleanup worker, and orchestrates the
// insert/spawn/fetch/wait/empty lifecycle on top of them.
//
// Actual closure dispatch is delegated to an errgroup.Group rather than a
// bespoke worker pool; TaskGraph's own responsibility is the dependency
// bookkeeping and back-pressure around that dispatch.
type TaskGraph struct {
	id uuid.UUID

	dag      *dag.Graph
	finished *finishedQueue
	logSink  tracelog.Sink

	workerSeq atomic.Int64
	wedged    atomic.Bool

	// resetMu serializes Empty against itself; it is not held during
	// ordinary Spawn traffic.
	resetMu sync.Mutex

	// genMu guards eg/stopCh, which are replaced wholesale by Empty.
	genMu  sync.RWMutex
	eg     *errgroup.Group
	stopCh chan struct{}

	cleanupWG sync.WaitGroup

	tasksMu sync.Mutex
	tasks   map[Tag]*Task
}

// GraphOption configures a TaskGraph at construction.
type GraphOption func(*graphConfig)

type graphConfig struct {
	logSink     tracelog.Sink
	registry    prometheus.Registerer
	wantMetrics bool
}

// WithLog installs l as the sink every task and insertion timing entry is
// recorded to, when the log_enabled switch is on. Without this option,
// entries are recorded to a NopSink and discarded.
func WithLog(l *tracelog.Log) GraphOption {
	return func(c *graphConfig) { c.logSink = l }
}

// WithMetrics registers the graph's observable state with reg as soon
// as it is constructed, labeled by the graph's generated ID. Passing nil
// registers with the default Prometheus registry.
func WithMetrics(reg prometheus.Registerer) GraphOption {
	return func(c *graphConfig) { c.registry = reg; c.wantMetrics = true }
}

// NewTaskGraph constructs a TaskGraph with the given capacity bound.
// capacity must be at least 1.
func NewTaskGraph(capacity int, opts ...GraphOption) (*TaskGraph, error) {
	g, err := dag.NewGraph(capacity)
	if err != nil {
		return nil, err
	}

	cfg := graphConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	sink := cfg.logSink
	if sink == nil {
		sink = tracelog.NopSink{}
	}

	tg := &TaskGraph{
		id:       uuid.New(),
		dag:      g,
		finished: newFinishedQueue(),
		logSink:  sink,
		eg:       &errgroup.Group{},
		stopCh:   make(chan struct{}),
		tasks:    make(map[Tag]*Task),
	}
	tg.startCleanupWorker()

	if cfg.wantMetrics {
		if err := metrics.Register(cfg.registry, tg.id.String(), tg); err != nil {
			return nil, fmt.Errorf("taskgraph: register metrics: %w", err)
		}
	}
	return tg, nil
}

// ID uniquely identifies this TaskGraph for diagnostics and metrics labels,
// so that multiple coexisting graphs can be told apart in logs and scrapes.
func (tg *TaskGraph) ID() uuid.UUID { return tg.id }

// SpawnOption configures a single Spawn call.
type SpawnOption func(*spawnConfig)

type spawnConfig struct {
	label    string
	priority float64
}

// WithLabel sets a task's free-form diagnostic label.
func WithLabel(label string) SpawnOption {
	return func(c *spawnConfig) { c.label = label }
}

// WithPriority sets a task's priority. Accepted and preserved, but the
// scheduler does not act on it.
func WithPriority(p float64) SpawnOption {
	return func(c *spawnConfig) { c.priority = p }
}

// Spawn constructs a Task from closure, data, and modes, and schedules it.
// data and modes must have equal length. If a value in data is itself a
// live *Task produced by a prior Spawn on this graph, it is wired in as an
// explicit predecessor regardless of the memory-overlap relation.
//
// If ForceSequential is enabled, the closure runs synchronously on the
// calling goroutine before Spawn returns, and no node is inserted into the
// DAG.
//
// Spawn blocks while the DAG is at capacity,
// respecting ctx cancellation.
func (tg *TaskGraph) Spawn(ctx context.Context, closure func() (any, error), data []any, modes []overlap.AccessMode, opts ...SpawnOption) (*Task, error) {
	if len(data) != len(modes) {
		return nil, ErrAccessLengthMismatch
	}

	cfg := spawnConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	if ForceSequential() {
		val, err := tg.runClosure(closure)
		t := &Task{tag: nextTag(), label: cfg.label, priority: cfg.priority, graph: tg, inner: newInnerTask()}
		t.inner.finish(val, err)
		return t, nil
	}

	accesses := make([]access, len(data))
	for i := range data {
		accesses[i] = access{data: data[i], mode: modes[i]}
	}

	tag := nextTag()
	t := &Task{tag: tag, label: cfg.label, priority: cfg.priority, accesses: accesses, graph: tg, inner: newInnerTask()}

	tg.tasksMu.Lock()
	tg.tasks[tag] = t
	tg.tasksMu.Unlock()

	insertStart := time.Now()

	if err := tg.dag.Insert(ctx, tag, t); err != nil {
		tg.tasksMu.Lock()
		delete(tg.tasks, tag)
		tg.tasksMu.Unlock()
		return nil, err
	}
	// Insert only returns once a slot is available, so its extent is the
	// time this submitter spent blocked on capacity back-pressure.
	blockedFor := time.Since(insertStart)

	var preds []*Task
	seen := make(map[Tag]struct{})
	onEdge := func(_ dag.Tag, payload any) {
		p := payload.(*Task)
		if _, ok := seen[p.tag]; ok {
			return
		}
		seen[p.tag] = struct{}{}
		preds = append(preds, p)
	}
	if err := tg.dag.ComputeDependencies(tag, conflict, ForceLinearDAG(), onEdge); err != nil {
		return nil, err
	}

	// Nested-dependency case: a Task value referenced directly in the
	// data list is wired in as a predecessor even if it declared no
	// conflicting access, as long as it is still live in the DAG.
	for _, d := range data {
		ref, ok := d.(*Task)
		if !ok || ref == nil {
			continue
		}
		if _, already := seen[ref.tag]; already {
			continue
		}
		if payload, added := tg.dag.AddExplicitEdge(ref.tag, tag); added {
			seen[ref.tag] = struct{}{}
			preds = append(preds, payload.(*Task))
		}
	}
	t.predecessors = preds

	insertFinish := time.Now()
	if LogEnabled() {
		tracelog.SafeRecordInsertion(tg.logSink, tracelog.InsertionEntry{
			TaskID:  int64(tag),
			TStart:  insertStart.UnixNano(),
			TFinish: insertFinish.UnixNano(),
			GCTime:  blockedFor.Nanoseconds(),
		})
	}

	tg.dispatch(t, closure)
	return t, nil
}

// dispatch hands closure to the host concurrency runtime with a guard that
// awaits t's predecessors (captured at insertion time) before running it.
func (tg *TaskGraph) dispatch(t *Task, closure func() (any, error)) {
	tg.genMu.RLock()
	eg, stopCh := tg.eg, tg.stopCh
	tg.genMu.RUnlock()

	preds := t.predecessors

	eg.Go(func() error {
		for _, p := range preds {
			select {
			case <-p.inner.done:
				if err := p.inner.errValue(); err != nil {
					tg.finishTask(t, nil, wrapErr(ErrClosureFailed, fmt.Sprintf("Spawn: predecessor tag=%d failed", p.tag), t.tag))
					return nil
				}
			case <-stopCh:
				tg.finishTask(t, nil, wrapErr(ErrGraphStopped, "Spawn: graph reset before predecessor finished", t.tag))
				return nil
			}
		}

		select {
		case <-stopCh:
			tg.finishTask(t, nil, wrapErr(ErrGraphStopped, "Spawn: graph reset before closure started", t.tag))
			return nil
		default:
		}

		workerID := int(tg.workerSeq.Inc())
		tStart := time.Now()
		val, err := tg.runClosure(closure)
		tFinish := time.Now()

		if LogEnabled() {
			predTags := make([]int64, len(preds))
			for i, p := range preds {
				predTags[i] = int64(p.tag)
			}
			tracelog.SafeRecordTask(tg.logSink, tracelog.TaskEntry{
				Tag:          int64(t.tag),
				Label:        t.label,
				WorkerID:     workerID,
				Predecessors: predTags,
				TStart:       tStart.UnixNano(),
				TFinish:      tFinish.UnixNano(),
			})
		}

		tg.finishTask(t, val, err)
		return nil
	})
}

// runClosure invokes closure, recovering a panic in every case so a single
// misbehaving task can never crash the process out from under sibling
// tasks. In debug mode the failure context is logged and the graph is
// marked wedged; with debug mode off the same recovery happens silently
// and the failure surfaces only through the task's error.
func (tg *TaskGraph) runClosure(closure func() (any, error)) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if DebugMode() {
				l := currentLogger()
				l.Error().
					Interface("panic", r).
					Msg("taskgraph: closure panicked, graph is wedged until Empty")
				tg.wedged.Store(true)
			}
			err = wrapErr(ErrClosureFailed, fmt.Sprintf("runClosure: recovered panic: %v", r), 0)
		}
	}()
	return closure()
}

// finishTask publishes t's outcome on its inner task and pushes it onto the
// finished channel for the cleanup worker.
func (tg *TaskGraph) finishTask(t *Task, val any, err error) {
	t.inner.finish(val, err)
	tg.finished.put(finishedItem{task: t})
}

// startCleanupWorker launches the single long-lived cleanup task,
// serializing every DAG removal on one goroutine.
func (tg *TaskGraph) startCleanupWorker() {
	tg.cleanupWG.Add(1)
	go func() {
		defer tg.cleanupWG.Done()
		for {
			item := tg.finished.take()
			if item.stop {
				return
			}
			if item.task == nil {
				continue
			}
			// A tag missing from the DAG means the task is a straggler from
			// before an Empty reset already cleared it; nothing to remove.
			if err := tg.dag.Remove(item.task.tag); err != nil && !errors.Is(err, dag.ErrUnknownTag) {
				l := currentLogger()
				l.Warn().
					Int64("tag", int64(item.task.tag)).
					Err(err).
					Msg("taskgraph: cleanup worker removed node with a warning")
			}
			tg.tasksMu.Lock()
			delete(tg.tasks, item.task.tag)
			tg.tasksMu.Unlock()
		}
	}()
}

// Wait blocks until the DAG's empty condition fires: every spawned task has
// finished and been removed by the cleanup worker.
func (tg *TaskGraph) Wait(ctx context.Context) error {
	return tg.dag.WaitEmpty(ctx)
}

// Resize forwards to the DAG.
func (tg *TaskGraph) Resize(capacity int) error {
	return tg.dag.Resize(capacity)
}

// Empty is the emergency reset: it stops the cleanup worker, drains
// the finished channel, signals stop to every pending inner task (errors
// swallowed), clears the DAG, and restarts the cleanup worker.
//
// A task whose closure has not yet started observes the stop signal and is
// cancelled. A closure already running cannot be interrupted mid-flight; it
// is abandoned to finish in the background, and its late finish
// notification is discarded by the fresh cleanup worker, since its node is
// no longer in the DAG.
func (tg *TaskGraph) Empty(ctx context.Context) error {
	tg.resetMu.Lock()
	defer tg.resetMu.Unlock()

	tg.finished.put(finishedItem{stop: true})
	tg.cleanupWG.Wait()

	for _, t := range tg.finished.drain() {
		_ = tg.dag.Remove(t.tag)
		tg.tasksMu.Lock()
		delete(tg.tasks, t.tag)
		tg.tasksMu.Unlock()
	}

	tg.genMu.Lock()
	close(tg.stopCh)
	tg.genMu.Unlock()

	tg.dag.Clear()

	tg.tasksMu.Lock()
	tg.tasks = make(map[Tag]*Task)
	tg.tasksMu.Unlock()

	tg.genMu.Lock()
	tg.eg = &errgroup.Group{}
	tg.stopCh = make(chan struct{})
	tg.genMu.Unlock()

	tg.wedged.Store(false)
	tg.startCleanupWorker()

	if ctx != nil {
		return ctx.Err()
	}
	return nil
}

// Wedged reports whether a debug-mode closure panic has left the graph in
// the wedged state; the caller should invoke Empty before
// relying on the graph's state further.
func (tg *TaskGraph) Wedged() bool { return tg.wedged.Load() }

// NumNodes reports the current live node count.
func (tg *TaskGraph) NumNodes() int { return tg.dag.NumNodes() }

// NumEdges reports the current live edge count.
func (tg *TaskGraph) NumEdges() int { return tg.dag.NumEdges() }

// Capacity reports the DAG's current capacity bound.
func (tg *TaskGraph) Capacity() int { return tg.dag.Capacity() }

// FinishedQueueLen reports the finished channel's current depth: readable
// but not subscribable.
func (tg *TaskGraph) FinishedQueueLen() int { return tg.finished.len() }

// LiveTask is a diagnostic snapshot of one live task.
type LiveTask struct {
	Tag          Tag
	Label        string
	Predecessors []Tag
}

// LiveTasks returns a snapshot of every task currently live in the DAG, in
// insertion order.
func (tg *TaskGraph) LiveTasks() []LiveTask {
	nodes := tg.dag.LiveNodes()
	out := make([]LiveTask, 0, len(nodes))

	tg.tasksMu.Lock()
	defer tg.tasksMu.Unlock()
	for _, n := range nodes {
		label := ""
		if t, ok := tg.tasks[n.Tag]; ok {
			label = t.label
		}
		out = append(out, LiveTask{Tag: n.Tag, Label: label, Predecessors: n.Predecessors})
	}
	return out
}

// activeGraph is the process-wide default TaskGraph used by the
// package-level Spawn convenience function when ctx carries none.
var (
	activeGraphMu sync.RWMutex
	activeGraph   *TaskGraph
)

// SetDefaultGraph installs tg as the process-wide fallback graph consulted
// by the package-level Spawn when ctx carries no active graph via
// WithGraph. Passing nil clears it.
func SetDefaultGraph(tg *TaskGraph) {
	activeGraphMu.Lock()
	activeGraph = tg
	activeGraphMu.Unlock()
}

// Spawn resolves the active TaskGraph from ctx (via WithGraph/FromContext),
// falling back to the process-wide default graph, and spawns a task on it.
// It returns ErrNoActiveGraph if neither is set.
func Spawn(ctx context.Context, closure func() (any, error), data []any, modes []overlap.AccessMode, opts ...SpawnOption) (*Task, error) {
	tg, ok := FromContext(ctx)
	if !ok {
		activeGraphMu.RLock()
		tg = activeGraph
		activeGraphMu.RUnlock()
	}
	if tg == nil {
		return nil, ErrNoActiveGraph
	}
	return tg.Spawn(ctx, closure, data, modes, opts...)
}
