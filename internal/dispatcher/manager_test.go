package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-dbscan/dbscan/internal/cluster"
	"github.com/go-dbscan/dbscan/internal/notify"
	"github.com/go-dbscan/dbscan/internal/run/model"
)

type fakeNotifier struct {
	mtx  sync.Mutex
	runs []model.Run
}

func (f *fakeNotifier) Notify(runs ...model.Run) {
	f.mtx.Lock()
	f.runs = append(f.runs, runs...)
	f.mtx.Unlock()
}

func (f *fakeNotifier) Run(context.Context) error { return nil }
func (f *fakeNotifier) Stop()                     {}

var _ notify.Manager = (*fakeNotifier)(nil)

func provideClusterer(eps float64, minPoints int) (*cluster.Clusterer, error) {
	return cluster.New(cluster.WithEps(eps), cluster.WithMinPoints(minPoints))
}

func newTestManager(t *testing.T, rec *appendRecorder, notifier *fakeNotifier) *manager {
	t.Helper()
	d := &manager{
		clustererProvideFn: provideClusterer,
		notifier:           notifier,
	}
	d.opts.deps = pullDependencies{appendRuns: rec.append}
	d.dbTxExecutor = newDBTxExecutor(dbTxExecutorOptions{
		flushSize: 1,
		deps:      d.opts.deps,
	}, make(chan error, 1))
	return d
}

func testRunData() []model.DataPoint {
	now := time.Now()
	return []model.DataPoint{
		{ID: "p-0", Vec: []float64{1, 1}, CreatedAt: now},
		{ID: "p-1", Vec: []float64{2, 2}, CreatedAt: now},
		{ID: "p-2", Vec: []float64{3, 3}, CreatedAt: now},
		{ID: "p-3", Vec: []float64{100, 100}, CreatedAt: now},
	}
}

func TestProcessRun(t *testing.T) {
	rec := &appendRecorder{}
	notifier := &fakeNotifier{}
	d := newTestManager(t, rec, notifier)

	run := model.NewRun("orders", 3, 2, "EUCLIDEAN", testRunData())
	if err := d.process(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	notifier.mtx.Lock()
	defer notifier.mtx.Unlock()
	if len(notifier.runs) != 1 {
		t.Fatalf("got %d notified runs, expected 1", len(notifier.runs))
	}
	out := notifier.runs[0]
	if !out.IsDone() {
		t.Errorf("got status %d, expected done", out.Status)
	}
	if len(out.Clusters) != 1 {
		t.Fatalf("got %d clusters, expected 1", len(out.Clusters))
	}
	if len(out.Clusters[1]) != 3 {
		t.Errorf("got cluster %v, expected the three dense points", out.Clusters[1])
	}
	if out.Labels["p-3"] != -1 {
		t.Errorf("got label %d for the isolated point, expected noise", out.Labels["p-3"])
	}
	if out.FinishedAt.IsZero() {
		t.Errorf("finished timestamp is not set")
	}
}

func TestProcessRunUnknownMetric(t *testing.T) {
	rec := &appendRecorder{}
	notifier := &fakeNotifier{}
	d := newTestManager(t, rec, notifier)

	run := model.NewRun("orders", 3, 2, "COSINE", testRunData())
	if err := d.process(context.Background(), run); err == nil {
		t.Fatalf("expected an error for an unknown metric")
	}

	notifier.mtx.Lock()
	defer notifier.mtx.Unlock()
	if len(notifier.runs) != 1 {
		t.Fatalf("got %d notified runs, expected the failed run", len(notifier.runs))
	}
	if !notifier.runs[0].IsFailed() {
		t.Errorf("got status %d, expected failed", notifier.runs[0].Status)
	}
	if notifier.runs[0].Error == "" {
		t.Errorf("failed run carries no error message")
	}
}

func TestProcessRunInvalidEps(t *testing.T) {
	rec := &appendRecorder{}
	notifier := &fakeNotifier{}
	d := newTestManager(t, rec, notifier)

	run := model.NewRun("orders", -1, 2, "EUCLIDEAN", testRunData())
	if err := d.process(context.Background(), run); err == nil {
		t.Fatalf("expected an error for invalid eps")
	}

	notifier.mtx.Lock()
	defer notifier.mtx.Unlock()
	if len(notifier.runs) != 1 || !notifier.runs[0].IsFailed() {
		t.Errorf("expected the failed run to be notified")
	}
}

func TestExecuteEmptyRun(t *testing.T) {
	rec := &appendRecorder{}
	d := newTestManager(t, rec, &fakeNotifier{})

	run := model.NewRun("orders", 0.5, 5, "EUCLIDEAN", nil)
	result, err := d.execute(run)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Clusters) != 0 || len(result.Labels) != 0 {
		t.Errorf("expected an empty result, got %v", result)
	}
}
