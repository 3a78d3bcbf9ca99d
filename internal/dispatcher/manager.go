package dispatcher

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-dbscan/dbscan/internal/cluster"
	"github.com/go-dbscan/dbscan/internal/database"
	"github.com/go-dbscan/dbscan/internal/geom"
	"github.com/go-dbscan/dbscan/internal/logging"
	"github.com/go-dbscan/dbscan/internal/notify"
	runDb "github.com/go-dbscan/dbscan/internal/run/database"
	"github.com/go-dbscan/dbscan/internal/run/model"
	"github.com/go-dbscan/dbscan/pkg/container/kdtree"
	"github.com/go-dbscan/dbscan/pkg/iqueue"
	"github.com/google/uuid"
	"go.opencensus.io/stats"
)

// Contract for returning the Manager instance
type ProvideFn func(notify.Manager, chan<- error) (Manager, error)

// Manager is the background service: it owns the run queue, executes
// clustering runs and persists their results.
type Manager interface {
	SubmitFinder
	Run(context.Context) error
	Stop()
}

// Submitter accepts new runs and writes them to the queue
type Submitter interface {
	Submit(runs ...model.Run) error
}

// Finder reads runs back from the store
type Finder interface {
	FindRun(ctx context.Context, id uuid.UUID) (model.Run, error)
}

type SubmitFinder interface {
	Submitter
	Finder
}

// Abstractions for getting dependencies
type (
	fetchRunsFn         func(context.Context, runDb.FilterFn) ([]model.Run, error)
	fetchRunsByEntityFn func(string, runDb.FilterFn) ([]model.Run, error)
	fetchRunByIDFn      func(context.Context, uuid.UUID) (model.Run, error)
	deleteRunsFn        func(context.Context, []model.Run) error
	appendRunsFn        func(context.Context, []model.Run) error
	fetchKeysFn         func() ([]string, error)
	countByEntityFn     func(string) (int, error)
)

// General structure for aggregation of dependency pulling functions
type pullDependencies struct {
	fetchRuns         fetchRunsFn
	fetchRunsByEntity fetchRunsByEntityFn
	fetchRunByID      fetchRunByIDFn
	deleteRuns        deleteRunsFn
	appendRuns        appendRunsFn
	fetchKeys         fetchKeysFn
	countByEntity     countByEntityFn
}

type Options struct {
	maxItemsStored int
	maxStorageTime time.Duration
	dbFlushTime    time.Duration
	dbFlushSize    int
	rebuildDBTime  time.Duration
	deps           pullDependencies
}

type Option func(*manager)

func WithDBFlushTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.dbFlushTime = t
	}
}

func WithDBFlushSize(n int) Option {
	return func(o *manager) {
		o.opts.dbFlushSize = n
	}
}

func WithRebuildDBTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.rebuildDBTime = t
	}
}

func WithMaxItemsStored(n int) Option {
	return func(o *manager) {
		o.opts.maxItemsStored = n
	}
}

func WithMaxStorageTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.maxStorageTime = t
	}
}

// New return manager
func New(
	db *database.DB,
	provideClustererFn cluster.ProvideFn,
	notifier notify.Manager,
	shutdownCh chan<- error,
	opts ...Option,
) (*manager, error) {
	if notifier == nil {
		return nil, fmt.Errorf("notifier instance is not created")
	}

	if provideClustererFn == nil {
		return nil, fmt.Errorf("clusterer instance is not created")
	}

	d := &manager{
		runDB:              runDb.New(db),
		submitCh:           make(chan model.Run, 1),
		shutDownCh:         shutdownCh,
		clustererProvideFn: provideClustererFn,
		queue:              map[string]*iqueue.Queue{},
		notifier:           notifier,
	}

	for _, f := range opts {
		f(d)
	}

	// structure containing functions for getting and adding runs
	d.opts.deps = pullDependencies{
		fetchRuns:         d.runDB.FindAll,
		fetchRunsByEntity: d.runDB.FindByEntity,
		fetchRunByID:      d.runDB.FindByID,
		deleteRuns:        d.runDB.DeleteMany,
		appendRuns:        d.runDB.AppendMany,
		fetchKeys:         d.runDB.Keys,
		countByEntity:     d.runDB.CountByEntity,
	}

	d.dbScheduler = newDBScheduler(dbSchedulerConfig{
		deps:           d.opts.deps,
		maxItemsStored: d.opts.maxItemsStored,
		maxStorageTime: d.opts.maxStorageTime,
		rebuildDBTime:  d.opts.rebuildDBTime,
	})

	d.dbTxExecutor = newDBTxExecutor(
		dbTxExecutorOptions{
			deps:      d.opts.deps,
			flushTime: d.opts.dbFlushTime,
			flushSize: d.opts.dbFlushSize,
		},
		shutdownCh,
	)

	return d, nil
}

// The queue management structure. Distributes incoming runs over per entity
// queues, executes them and hands finished runs to the notifier.
type manager struct {
	mtx sync.RWMutex

	opts Options
	// Main run storage
	runDB *runDb.DB
	// The notification manager
	notifier notify.Manager
	// The transaction manager in the store
	dbTxExecutor *dbTxExecutor
	// Managing data in storage
	dbScheduler *dbScheduler

	// Queue for new runs to be processed
	queue map[string]*iqueue.Queue
	// New run channel for processing
	submitCh chan model.Run
	// Channel to shutdown the application
	shutDownCh chan<- error

	closed bool
	// The factory returns an instance of the clusterer
	clustererProvideFn cluster.ProvideFn

	// cancellation
	cancelNotifier func()
	cancel         func()
}

// The Run method starts the queue consumers and background storage services
func (d *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	c, cancel := context.WithCancel(context.Background())
	d.cancelNotifier = cancel

	go d.collector(ctx)
	go d.dbTxExecutor.flusher(ctx)
	go d.dbScheduler.schedule(ctx)

	// Requeueing unprocessed runs from storage
	if err := d.bulkLoad(ctx); err != nil {
		return fmt.Errorf("can not start dispatcher manager: %w", err)
	}
	// Launching the notification service
	if err := d.notifier.Run(c); err != nil {
		return fmt.Errorf("notify.Run: %w", err)
	}

	return nil
}

// Stop the manager
func (d *manager) Stop() {
	d.cancel()
}

// FindRun reads a run back from the store, whatever its status
func (d *manager) FindRun(ctx context.Context, id uuid.UUID) (model.Run, error) {
	return d.opts.deps.fetchRunByID(ctx, id)
}

// Submit adds runs to the feed for saving to the queue
func (d *manager) Submit(runs ...model.Run) error {
	d.mtx.RLock()
	if d.closed {
		d.mtx.RUnlock()
		return fmt.Errorf("error send to submit, shutting down")
	}
	for i := range runs {
		d.submitCh <- runs[i]
	}
	d.mtx.RUnlock()
	return nil
}

// bulkLoad requeues runs that were accepted but not finished before the last
// shutdown
func (d *manager) bulkLoad(ctx context.Context) error {
	newRuns, err := d.opts.deps.fetchRuns(ctx, func(run model.Run) bool {
		return run.IsNew()
	})
	if err != nil {
		return fmt.Errorf("error fetching unprocessed runs: %w", err)
	}

	for i := range newRuns {
		d.submitCh <- newRuns[i]
	}

	return nil
}

// execute builds the point set of a run and partitions it
func (d *manager) execute(run model.Run) (cluster.Result, error) {
	metric, err := geom.MetricFor(geom.MetricFuncType(run.Metric))
	if err != nil {
		return cluster.Result{}, fmt.Errorf("unable resolve metric: %w", err)
	}
	clusterer, err := d.clustererProvideFn(run.Eps, int(run.MinPoints))
	if err != nil {
		return cluster.Result{}, fmt.Errorf("can not create clusterer instance: %w", err)
	}

	points := make([]kdtree.Point, len(run.Data))
	for i, dp := range run.Data {
		points[i] = geom.NewPoint(dp.ID, dp.Vec, metric)
	}

	outcome := <-clusterer.RunAsync(points...)
	if outcome.Err != nil {
		return cluster.Result{}, outcome.Err
	}
	return outcome.Result, nil
}

func (d *manager) process(ctx context.Context, run model.Run) error {
	started := time.Now()
	stats.Record(ctx, mRunsStarted.M(1))

	result, err := d.execute(run)
	if err != nil {
		run.Status = model.StatusFailed
		run.Error = err.Error()
		run.FinishedAt = time.Now()
		stats.Record(ctx, mRunsFailed.M(1))
		d.dbTxExecutor.write(ctx, run)
		d.notify(run)
		return fmt.Errorf("unable process run %s: %w", run.ID, err)
	}

	run.Clusters = make(map[int32][]string, len(result.Clusters))
	for id, members := range result.Clusters {
		ids := make([]string, len(members))
		for i := range members {
			ids[i] = members[i].ID()
		}
		run.Clusters[int32(id)] = ids
	}
	run.Labels = make(map[string]int32, len(result.Labels))
	for id, label := range result.Labels {
		run.Labels[id] = int32(label)
	}
	run.Status = model.StatusDone
	run.FinishedAt = time.Now()

	stats.Record(ctx, mRunsCompleted.M(1))
	stats.Record(ctx, mRunLatency.M(float64(time.Since(started).Milliseconds())))

	d.dbTxExecutor.write(ctx, run)
	d.notify(run)

	return nil
}

func (d *manager) notify(runs ...model.Run) {
	d.mtx.RLock()
	if !d.closed {
		d.mtx.RUnlock()
		d.notifier.Notify(runs...)
		return
	}
	d.mtx.RUnlock()
}

func (d *manager) shutdown(ctx context.Context, q *iqueue.Queue) error {
	for {
		front := q.Queue().Front()
		if front == nil {
			if !d.recvShutdown() {
				return fmt.Errorf("dispatcher shutdown: closed num receivers not equal created")
			}
			d.cancelNotifier()
			break
		}

		if err := d.process(ctx, front.Value.(model.Run)); err != nil {
			return fmt.Errorf("dispatcher shutdown: unable processed run: %w", err)
		}

		q.Queue().Remove(front)
	}
	return nil
}

func (d *manager) recvShutdown() bool {
	finishedNum, queuesNum := 0, len(d.queue)
	for _, q := range d.queue {
		if q.Queue().Len() == 0 {
			finishedNum += 1
		}
	}

	return finishedNum == queuesNum
}

func (d *manager) receive(ctx context.Context, q *iqueue.Queue) {
	logger := logging.FromContext(ctx)
	defer func() {
		d.shutDownCh <- d.shutdown(ctx, q)
	}()

	for {
		select {
		case recv := <-q.Receive():
			if err := d.process(ctx, recv.(model.Run)); err != nil {
				logger.Errorf("unable processed run: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

const workerMul = 2

func (d *manager) worker(ctx context.Context, queue *iqueue.Queue, num int) {
	for i := 0; i < num; i++ {
		go d.receive(ctx, queue)
	}
}

func (d *manager) collector(ctx context.Context) {
	defer close(d.submitCh)
	for {
		select {
		case in := <-d.submitCh:
			q, ok := d.queue[in.EntityID]
			if !ok {
				queue := iqueue.New()
				go queue.Loop()
				d.worker(ctx, queue, runtime.NumCPU()*workerMul)
				d.queue[in.EntityID] = queue
				q = queue
			}
			q.Send(in)
		case <-ctx.Done():
			d.mtx.Lock()
			d.closed = true
			d.mtx.Unlock()
			return
		}
	}
}
