package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-dbscan/dbscan/internal/httputil"
	"github.com/go-dbscan/dbscan/internal/logging"
	"github.com/go-dbscan/dbscan/internal/run/model"
	"github.com/go-dbscan/dbscan/pkg/rworker"
)

type ProvideFn = func(chan<- error) (Manager, error)

const UserAgent = "DBS/0.1"

type Options struct {
	maxConcurrentRequest int
	requestTimeout       time.Duration
	notifyInterval       time.Duration
	targets              Targets
}

type Option func(*manager)

func WithMaxConcurrentRequest(n int) Option {
	return func(o *manager) {
		o.opts.maxConcurrentRequest = n
	}
}

func WithNotifyInterval(t time.Duration) Option {
	return func(o *manager) {
		o.opts.notifyInterval = t
	}
}

func WithRequestTimeout(t time.Duration) Option {
	return func(o *manager) {
		o.opts.requestTimeout = t
	}
}

func WithTargets(m Targets) Option {
	return func(o *manager) {
		o.opts.targets = m
	}
}

type payload struct {
	RunID     string             `json:"runId"`
	EntityID  string             `json:"entityId"`
	Status    string             `json:"status"`
	Clusters  map[int32][]string `json:"clusters,omitempty"`
	Labels    map[string]int32   `json:"labels,omitempty"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	Finished  time.Time          `json:"finishedAt"`
}

type request struct {
	EntityID string    `json:"entityId"`
	Runs     []payload `json:"runs"`
}

func New(shutdownCh chan<- error, opts ...Option) (*manager, error) {
	m := &manager{
		shutdownCh: shutdownCh,
		pending:    map[string][]model.Run{},
		clients:    map[string]*http.Client{},
	}
	for _, f := range opts {
		f(m)
	}
	for _, target := range m.opts.targets {
		if err := target.HTTPConfig.Validate(); err != nil {
			return nil, fmt.Errorf("target %s config: %w", target.EntityID, err)
		}
		if _, ok := m.clients[target.EntityID]; !ok {
			client, err := httputil.NewClientFromConfig(target.HTTPConfig, true)
			if err != nil {
				return nil, fmt.Errorf("unable create client for entity %s: %v", target.EntityID, err)
			}
			m.clients[target.EntityID] = client
		}
	}
	return m, nil
}

type Notifier interface {
	Notify(runs ...model.Run)
}

type Manager interface {
	Notifier
	Run(context.Context) error
	Stop()
}

type manager struct {
	mtx        sync.RWMutex
	opts       Options
	shutdownCh chan<- error
	clients    map[string]*http.Client
	pending    map[string][]model.Run
	cancel     func()
}

func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.notifier(ctx)
	return nil
}

func (m *manager) Stop() {
	m.cancel()
}

// Notify queues finished runs for delivery on the next tick. Runs with no
// configured target sit in the batch until one appears or the process exits;
// the run store remains the source of truth either way.
func (m *manager) Notify(runs ...model.Run) {
	m.mtx.Lock()
	for i := range runs {
		m.pending[runs[i].EntityID] = append(m.pending[runs[i].EntityID], runs[i])
	}
	m.mtx.Unlock()
}

func (m *manager) notifier(ctx context.Context) {
	logger := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	rateCh := make(chan struct{}, m.opts.maxConcurrentRequest)
	defer close(errCh)
	defer close(rateCh)
	go func() {
		for err := range errCh {
			logger.Errorf("notify error: %v", err)
		}
	}()
	defer func() {
		m.shutdownCh <- nil
	}()
	wg := sync.WaitGroup{}
	ticker := time.NewTicker(m.opts.notifyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, target := range m.opts.targets {
				target := target
				m.mtx.RLock()
				runs := m.pending[target.EntityID]
				m.mtx.RUnlock()
				if len(runs) == 0 {
					continue
				}
				rworker.Job(&wg, func() error {
					if err := m.do(context.Background(), target, runs); err != nil {
						return fmt.Errorf("notify do request error: %v", err)
					}
					m.mtx.Lock()
					m.pending[target.EntityID] = m.pending[target.EntityID][len(runs):]
					m.mtx.Unlock()
					return nil
				}, rateCh, errCh)
			}
			wg.Wait()
		case <-ctx.Done():
			return
		}
	}
}

func statusOf(run model.Run) string {
	switch {
	case run.IsDone():
		return "done"
	case run.IsFailed():
		return "failed"
	}
	return "new"
}

func (m *manager) do(ctx context.Context, target Target, runs []model.Run) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.requestTimeout)
	defer cancel()

	payloads := make([]payload, len(runs))
	for i := range runs {
		payloads[i] = payload{
			RunID:     runs[i].ID.String(),
			EntityID:  runs[i].EntityID,
			Status:    statusOf(runs[i]),
			Clusters:  runs[i].Clusters,
			Labels:    runs[i].Labels,
			Error:     runs[i].Error,
			CreatedAt: runs[i].CreatedAt,
			Finished:  runs[i].FinishedAt,
		}
	}
	body, err := json.Marshal(request{EntityID: target.EntityID, Runs: payloads})
	if err != nil {
		return fmt.Errorf("unable encode json data: %w", err)
	}
	link, err := url.Parse(target.URL)
	if err != nil {
		return fmt.Errorf("url parsing error: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", link.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("User-Agent", UserAgent)

	client, ok := m.clients[target.EntityID]
	if !ok {
		return fmt.Errorf("client for entityID %s not defined", target.EntityID)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request error: %w", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("response was not 200 OK: %s", resp.Status)
	}
	return nil
}
