package pool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/anortham/miller-embeddings/internal/engine"
	"github.com/anortham/miller-embeddings/pkg/types"
)

// MaxWorkers caps the worker count regardless of configuration.
const MaxWorkers = 32

// Default configuration values applied by New for zero-value fields.
const (
	DefaultMaxQueueSize  = 1000
	DefaultInitTimeout   = 10 * time.Second
	DefaultWorkerTimeout = 30 * time.Second
	DefaultQueryTimeout  = 5 * time.Second
	DefaultHealthTimeout = 2 * time.Second
	DefaultPollInterval  = 50 * time.Millisecond
)

// State is the pool lifecycle state.
type State int32

const (
	StateNotInitialized State = iota
	StateInitializing
	StateReady
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNotInitialized:
		return "not_initialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Config contains configuration for the worker pool.
type Config struct {
	Workers       int           // number of workers (default: runtime.NumCPU, capped at MaxWorkers)
	MaxQueueSize  int           // queue capacity before rejection (default: 1000)
	InitTimeout   time.Duration // per-worker init handshake deadline (default: 10s)
	WorkerTimeout time.Duration // staleness threshold for the error sweep (default: 30s)
	QueryTimeout  time.Duration // query-path deadline, independent of WorkerTimeout (default: 5s)
	HealthTimeout time.Duration // health probe deadline (default: 2s)
	PollInterval  time.Duration // WaitForCompletion poll interval (default: 50ms)

	// Engine configures each worker's private TF-IDF engine.
	Engine engine.Config

	// Vocabulary, when set, ships read-only to every worker in the init
	// payload so all workers produce comparable vectors for identical
	// input. Changing it requires Terminate followed by Initialize.
	Vocabulary *engine.Vocabulary

	// EngineFactory overrides how a worker builds its embedder.
	// Defaults to the TF-IDF engine; tests inject gated fakes.
	EngineFactory EngineFactory
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Workers > MaxWorkers {
		c.Workers = MaxWorkers
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = DefaultMaxQueueSize
	}
	if c.InitTimeout <= 0 {
		c.InitTimeout = DefaultInitTimeout
	}
	if c.WorkerTimeout <= 0 {
		c.WorkerTimeout = DefaultWorkerTimeout
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = DefaultQueryTimeout
	}
	if c.HealthTimeout <= 0 {
		c.HealthTimeout = DefaultHealthTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.EngineFactory == nil {
		c.EngineFactory = defaultEngineFactory
	}
	return c
}

// activeTask tracks a task dispatched to a worker.
type activeTask struct {
	task      *types.EmbeddingTask
	worker    int
	startedAt time.Time
}

// pendingQuery tracks a query-path embedding awaiting its worker.
type pendingQuery struct {
	worker    int
	reply     chan queryOutcome
	startedAt time.Time
}

type queryOutcome struct {
	result *types.EmbeddingResult
	err    error
}

// batchState tracks an in-flight batch until every member is retired.
type batchState struct {
	remaining int
	results   []types.BatchResult
}

// healthProbe tracks one outstanding health broadcast.
type healthProbe struct {
	pending map[string]struct{}
	reply   chan bool
}

// Pool converts a stream of embedding requests into bounded, parallel,
// prioritized, fault-tolerant execution across a fixed worker set.
//
// A Pool owns one long-lived scheduling goroutine. All queue, worker,
// and active-task state is touched only by that goroutine; public
// methods post commands onto its channel and wait for replies.
type Pool struct {
	cfg   Config
	hooks Hooks

	commands  chan func()
	responses chan WorkerResponse

	// Owned by the run loop.
	workers   []*worker
	busy      []bool
	queue     []*types.EmbeddingTask
	active    map[string]*activeTask
	queries   map[string]*pendingQuery
	batches   map[string]*batchState
	health    *healthProbe
	meanCount int64

	// Readable without entering the run loop.
	stateVal     atomic.Int32
	completed    atomic.Int64
	failed       atomic.Int64
	queueSize    atomic.Int64
	busyWorkers  atomic.Int64
	pendingTasks atomic.Int64
	meanBits     atomic.Uint64
}

// New creates a pool and starts its scheduling goroutine. The pool is
// not usable until Initialize succeeds. A nil hooks falls back to
// NopHooks.
func New(cfg Config, hooks Hooks) *Pool {
	if hooks == nil {
		hooks = NopHooks{}
	}
	p := &Pool{
		cfg:       cfg.withDefaults(),
		hooks:     hooks,
		commands:  make(chan func(), 64),
		responses: make(chan WorkerResponse, 256),
		active:    make(map[string]*activeTask),
		queries:   make(map[string]*pendingQuery),
		batches:   make(map[string]*batchState),
	}
	go p.run()
	return p
}

// run is the scheduling loop: the single consumer of commands and
// worker responses. It never blocks on anything it did not issue.
func (p *Pool) run() {
	for {
		select {
		case cmd := <-p.commands:
			cmd()
		case resp := <-p.responses:
			p.handleResponse(resp)
		}
	}
}

// post hands a closure to the run loop.
func (p *Pool) post(fn func()) {
	p.commands <- fn
}

// State returns the current lifecycle state.
func (p *Pool) State() State {
	return State(p.stateVal.Load())
}

func (p *Pool) setState(s State) {
	p.stateVal.Store(int32(s))
}

// Initialize fans out the init handshake to all workers. Any single
// worker's failure or timeout aborts the whole startup and tears down
// already-started workers. A terminated pool may be re-initialized.
func (p *Pool) Initialize(ctx context.Context) error {
	claim := make(chan error, 1)
	p.post(func() {
		switch p.State() {
		case StateNotInitialized, StateTerminated:
			p.setState(StateInitializing)
			claim <- nil
		default:
			claim <- fmt.Errorf("cannot initialize pool in state %s", p.State())
		}
	})
	if err := <-claim; err != nil {
		return err
	}

	workers := make([]*worker, p.cfg.Workers)
	for i := range workers {
		workers[i] = newWorker(i, p.responses, p.cfg.EngineFactory)
		go workers[i].run()
	}

	init := &InitPayload{Engine: p.cfg.Engine, Vocabulary: p.cfg.Vocabulary}
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error {
			w.requests <- WorkerRequest{ID: uuid.NewString(), Type: MsgInit, Init: init}
			timer := time.NewTimer(p.cfg.InitTimeout)
			defer timer.Stop()
			select {
			case ack := <-w.initAck:
				if ack.Type != MsgInitialized {
					return fmt.Errorf("worker %d init failed: %s", w.id, ack.Err)
				}
				return nil
			case <-timer.C:
				return fmt.Errorf("%w: worker %d", types.ErrInitTimeout, w.id)
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		for _, w := range workers {
			close(w.requests)
		}
		reset := make(chan struct{})
		p.post(func() {
			p.setState(StateNotInitialized)
			close(reset)
		})
		<-reset
		return fmt.Errorf("pool initialization failed: %w", err)
	}

	installed := make(chan struct{})
	p.post(func() {
		defer close(installed)
		if p.State() != StateInitializing {
			// Terminated mid-startup; discard the workers.
			for _, w := range workers {
				close(w.requests)
			}
			return
		}
		p.workers = workers
		p.busy = make([]bool, len(workers))
		p.queue = nil
		p.active = make(map[string]*activeTask)
		p.queries = make(map[string]*pendingQuery)
		p.batches = make(map[string]*batchState)
		p.health = nil
		p.resetStats()
		p.setState(StateReady)
	})
	<-installed
	return nil
}

// QueueEmbedding builds a task with a fresh id and enqueues it. Rejects
// with types.ErrQueueFull at capacity (no state is mutated on
// rejection) and types.ErrPoolNotReady outside the Ready state.
// Embedding-level failures never surface here; they arrive via hooks.
func (p *Pool) QueueEmbedding(symbolID, code, context string, priority types.Priority) (string, error) {
	task := types.NewEmbeddingTask(symbolID, code, context, priority)
	errc := make(chan error, 1)
	p.post(func() { errc <- p.enqueue(task) })
	if err := <-errc; err != nil {
		return "", err
	}
	return task.ID, nil
}

// QueueBatch fans out to one enqueue per item under a shared batch id.
// Not all-or-nothing: a rejected item does not roll back members
// already enqueued. Returns the task ids that were accepted, plus a
// non-nil error when any item was rejected.
func (p *Pool) QueueBatch(items []types.BatchItem, priority types.Priority) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	batchID := uuid.NewString()
	tasks := make([]*types.EmbeddingTask, len(items))
	for i, item := range items {
		task := types.NewEmbeddingTask(item.SymbolID, item.Code, item.Context, priority)
		task.BatchID = batchID
		tasks[i] = task
	}

	type outcome struct {
		ids []string
		err error
	}
	outc := make(chan outcome, 1)
	p.post(func() {
		ids := make([]string, 0, len(tasks))
		var firstErr error
		rejected := 0
		for _, task := range tasks {
			if err := p.enqueue(task); err != nil {
				rejected++
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			ids = append(ids, task.ID)
		}
		if len(ids) > 0 {
			p.batches[batchID] = &batchState{remaining: len(ids)}
		}
		var err error
		if firstErr != nil {
			err = fmt.Errorf("%d of %d batch items rejected: %w", rejected, len(tasks), firstErr)
		}
		outc <- outcome{ids: ids, err: err}
	})
	o := <-outc
	return o.ids, o.err
}

// enqueue inserts a task and triggers scheduling. Run loop only.
func (p *Pool) enqueue(task *types.EmbeddingTask) error {
	if p.State() != StateReady {
		return types.ErrPoolNotReady
	}
	if len(p.queue) >= p.cfg.MaxQueueSize {
		return fmt.Errorf("%w: %d tasks queued", types.ErrQueueFull, len(p.queue))
	}
	if task.Priority == types.PriorityHigh {
		p.queue = append([]*types.EmbeddingTask{task}, p.queue...)
	} else {
		p.queue = append(p.queue, task)
	}
	p.pendingTasks.Add(1)
	p.processQueue()
	return nil
}

// processQueue assigns queued tasks to idle workers. Run loop only;
// never suspends mid-pass. Reports progress after each pass.
func (p *Pool) processQueue() {
	for len(p.queue) > 0 {
		idx := p.idleWorker()
		if idx < 0 {
			break
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.markBusy(idx)
		p.active[task.ID] = &activeTask{task: task, worker: idx, startedAt: time.Now()}
		p.workers[idx].requests <- WorkerRequest{ID: task.ID, Type: MsgEmbed, Task: task}
	}
	p.queueSize.Store(int64(len(p.queue)))

	completed := p.completed.Load()
	total := completed + int64(len(p.active)) + int64(len(p.queue))
	p.invokeProgress(int(completed), int(total), len(p.queue))
}

func (p *Pool) idleWorker() int {
	for i, b := range p.busy {
		if !b {
			return i
		}
	}
	return -1
}

func (p *Pool) markBusy(idx int) {
	if !p.busy[idx] {
		p.busy[idx] = true
		p.busyWorkers.Add(1)
	}
}

func (p *Pool) freeWorker(idx int) {
	if idx >= 0 && idx < len(p.busy) && p.busy[idx] {
		p.busy[idx] = false
		p.busyWorkers.Add(-1)
	}
}

// handleResponse routes one worker response. Run loop only.
func (p *Pool) handleResponse(resp WorkerResponse) {
	if q, ok := p.queries[resp.ID]; ok {
		delete(p.queries, resp.ID)
		p.freeWorker(q.worker)
		if resp.Type == MsgEmbedded {
			q.reply <- queryOutcome{result: resp.Result}
		} else {
			q.reply <- queryOutcome{err: fmt.Errorf("query embedding failed: %s", resp.Err)}
		}
		p.processQueue()
		return
	}

	if at, ok := p.active[resp.ID]; ok {
		delete(p.active, resp.ID)
		p.freeWorker(at.worker)
		if resp.Type == MsgEmbedded {
			p.completed.Add(1)
			p.observeLatency(time.Since(at.startedAt))
			p.completeTask(at.task, resp.Result)
		} else {
			p.failTask(at.task, errors.New(resp.Err))
		}
		// Dropped only after the hooks ran, so WaitForCompletion
		// returning implies completed work has been delivered.
		p.pendingTasks.Add(-1)
		p.processQueue()
		return
	}

	switch resp.Type {
	case MsgHealthOK:
		p.handleHealthAck(resp)
	case MsgError:
		p.handleWorkerError(resp.WorkerID, resp.Err)
	default:
		// Stale response from a terminated incarnation; drop it.
	}
}

// completeTask retires a successful task: completion hook first (its
// errors and panics route to the error hook, never into the
// scheduler), then batch bookkeeping.
func (p *Pool) completeTask(task *types.EmbeddingTask, result *types.EmbeddingResult) {
	if err := p.invokeComplete(task.SymbolID, result); err != nil {
		p.invokeError(fmt.Errorf("completion hook: %w", err), task)
	}
	p.settleBatch(task, result)
}

func (p *Pool) failTask(task *types.EmbeddingTask, err error) {
	p.failed.Add(1)
	p.invokeError(err, task)
	p.settleBatch(task, nil)
}

func (p *Pool) settleBatch(task *types.EmbeddingTask, result *types.EmbeddingResult) {
	if task.BatchID == "" {
		return
	}
	bs, ok := p.batches[task.BatchID]
	if !ok {
		return
	}
	if result != nil {
		bs.results = append(bs.results, types.BatchResult{SymbolID: task.SymbolID, Result: result})
	}
	bs.remaining--
	if bs.remaining <= 0 {
		delete(p.batches, task.BatchID)
		p.invokeBatchComplete(bs.results)
	}
}

// handleWorkerError recovers from a worker-level error: the worker is
// returned to idle and its active tasks older than WorkerTimeout are
// failed. The sweep is a heuristic and can misattribute an unrelated
// slow task; callers must tolerate that.
func (p *Pool) handleWorkerError(workerID int, msg string) {
	p.freeWorker(workerID)

	now := time.Now()
	for id, at := range p.active {
		if at.worker != workerID || now.Sub(at.startedAt) < p.cfg.WorkerTimeout {
			continue
		}
		delete(p.active, id)
		p.failTask(at.task, fmt.Errorf("worker %d error: %s", workerID, msg))
		p.pendingTasks.Add(-1)
	}
	for id, q := range p.queries {
		if q.worker != workerID || now.Sub(q.startedAt) < p.cfg.WorkerTimeout {
			continue
		}
		delete(p.queries, id)
		q.reply <- queryOutcome{err: fmt.Errorf("worker %d error: %s", workerID, msg)}
	}

	p.processQueue()
}

// EmbedQuery is the low-latency bypass for interactive callers. It
// requires an idle worker immediately and rejects with
// types.ErrNoIdleWorker instead of waiting; the result is bounded by
// QueryTimeout, independent of WorkerTimeout.
func (p *Pool) EmbedQuery(ctx context.Context, query, queryContext string) (*types.EmbeddingResult, error) {
	task := types.NewEmbeddingTask("", query, queryContext, types.PriorityHigh)
	reply := make(chan queryOutcome, 1)

	p.post(func() {
		if p.State() != StateReady {
			reply <- queryOutcome{err: types.ErrPoolNotReady}
			return
		}
		idx := p.idleWorker()
		if idx < 0 {
			reply <- queryOutcome{err: types.ErrNoIdleWorker}
			return
		}
		p.markBusy(idx)
		p.queries[task.ID] = &pendingQuery{worker: idx, reply: reply, startedAt: time.Now()}
		p.workers[idx].requests <- WorkerRequest{ID: task.ID, Type: MsgEmbed, Task: task}
	})

	timer := time.NewTimer(p.cfg.QueryTimeout)
	defer timer.Stop()
	select {
	case out := <-reply:
		return out.result, out.err
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", types.ErrQueryTimeout, p.cfg.QueryTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HealthCheck broadcasts a probe to every worker and reports true only
// if all respond within HealthTimeout. An operational diagnostic, not
// part of the scheduler: busy workers answer after their current task.
func (p *Pool) HealthCheck(ctx context.Context) bool {
	reply := make(chan bool, 1)
	p.post(func() {
		if p.State() != StateReady || len(p.workers) == 0 {
			reply <- false
			return
		}
		probe := &healthProbe{pending: make(map[string]struct{}, len(p.workers)), reply: reply}
		for _, w := range p.workers {
			id := uuid.NewString()
			select {
			case w.requests <- WorkerRequest{ID: id, Type: MsgHealth}:
				probe.pending[id] = struct{}{}
			default:
				// Request channel backed up; the worker cannot be healthy.
				reply <- false
				return
			}
		}
		p.health = probe
	})

	timer := time.NewTimer(p.cfg.HealthTimeout)
	defer timer.Stop()
	select {
	case ok := <-reply:
		return ok
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

func (p *Pool) handleHealthAck(resp WorkerResponse) {
	if p.health == nil {
		return
	}
	if _, ok := p.health.pending[resp.ID]; !ok {
		return
	}
	delete(p.health.pending, resp.ID)
	if len(p.health.pending) == 0 {
		p.health.reply <- true
		p.health = nil
	}
}

// WaitForCompletion polls until no tasks are queued or active. It does
// not wait for query-path embeddings.
func (p *Pool) WaitForCompletion(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if p.pendingTasks.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Terminate stops every worker, clears all queues and maps, resets
// statistics, and permits re-initialization. Outstanding query callers
// are unblocked with types.ErrPoolNotReady.
func (p *Pool) Terminate() {
	done := make(chan struct{})
	p.post(func() {
		defer close(done)
		for _, w := range p.workers {
			close(w.requests)
		}
		for id, q := range p.queries {
			delete(p.queries, id)
			q.reply <- queryOutcome{err: types.ErrPoolNotReady}
		}
		p.workers = nil
		p.busy = nil
		p.queue = nil
		p.active = make(map[string]*activeTask)
		p.queries = make(map[string]*pendingQuery)
		p.batches = make(map[string]*batchState)
		p.health = nil
		p.resetStats()
		p.setState(StateTerminated)
	})
	<-done
}

// SetVocabulary replaces the vocabulary shipped to workers on the next
// Initialize. It is rejected while the pool is running: changing the
// vocabulary means Terminate followed by Initialize.
func (p *Pool) SetVocabulary(v *engine.Vocabulary) error {
	errc := make(chan error, 1)
	p.post(func() {
		if p.State() == StateReady || p.State() == StateInitializing {
			errc <- fmt.Errorf("cannot change vocabulary in state %s", p.State())
			return
		}
		p.cfg.Vocabulary = v
		errc <- nil
	})
	return <-errc
}

// GetStats returns a read-only snapshot without entering the run loop.
func (p *Pool) GetStats() types.PoolStats {
	mean := math.Float64frombits(p.meanBits.Load())
	throughput := 0.0
	if mean > 0 {
		throughput = 1000.0 / mean
	}
	return types.PoolStats{
		ActiveWorkers:   int(p.busyWorkers.Load()),
		QueueSize:       int(p.queueSize.Load()),
		Completed:       p.completed.Load(),
		Failed:          p.failed.Load(),
		AverageTaskTime: mean,
		Throughput:      throughput,
	}
}

// observeLatency folds one task duration into the running mean using an
// incremental update, which stays numerically stable over long runs.
// Run loop only.
func (p *Pool) observeLatency(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0
	p.meanCount++
	mean := math.Float64frombits(p.meanBits.Load())
	mean += (ms - mean) / float64(p.meanCount)
	p.meanBits.Store(math.Float64bits(mean))
}

func (p *Pool) resetStats() {
	p.completed.Store(0)
	p.failed.Store(0)
	p.queueSize.Store(0)
	p.busyWorkers.Store(0)
	p.pendingTasks.Store(0)
	p.meanBits.Store(0)
	p.meanCount = 0
}

// Hook invocations. Panics inside user hooks are contained here so they
// can never corrupt scheduler state.

func (p *Pool) invokeComplete(symbolID string, result *types.EmbeddingResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.hooks.EmbeddingComplete(symbolID, result)
}

func (p *Pool) invokeError(err error, task *types.EmbeddingTask) {
	defer func() { _ = recover() }()
	p.hooks.Error(err, task)
}

func (p *Pool) invokeBatchComplete(results []types.BatchResult) {
	defer func() { _ = recover() }()
	p.hooks.BatchComplete(results)
}

func (p *Pool) invokeProgress(completed, total, queueSize int) {
	defer func() { _ = recover() }()
	p.hooks.Progress(completed, total, queueSize)
}
