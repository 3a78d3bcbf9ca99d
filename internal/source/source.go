package source

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/go-dbscan/dbscan/internal/dispatcher"
	"github.com/go-dbscan/dbscan/internal/logging"
	"github.com/go-dbscan/dbscan/internal/run/model"
	"github.com/go-dbscan/dbscan/pkg/rworker"
)

// response is the dataset document a pull target serves. A poll that returns
// points produces one clustering run.
type response struct {
	EntityID  string  `json:"entity"`
	Eps       float64 `json:"eps"`
	MinPoints int     `json:"minPoints"`
	Metric    string  `json:"metric"`
	Data      []struct {
		ID        string    `json:"id"`
		Vec       []float64 `json:"vector"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"data"`
}

type Manager interface {
	Run(context.Context) error
	Stop()
}

type ProvideFn = func(dispatcher.Manager, chan<- error) (Manager, error)

const UserAgent = "DBS/0.1"

type Options struct {
	maxConcurrentRequest  int
	requestTimeout        time.Duration
	tlsHandshakeTimeout   time.Duration
	responseHeaderTimeout time.Duration
	pullInterval          time.Duration
}

type Option func(*manager)

func WithMaxConcurrentRequest(n int) Option {
	return func(o *manager) {
		o.opts.maxConcurrentRequest = n
	}
}

func WithInterval(t time.Duration) Option {
	return func(o *manager) {
		o.opts.pullInterval = t
	}
}

func WithRequestTimeout(t time.Duration) Option {
	return func(o *manager) {
		o.opts.requestTimeout = t
	}
}

func WithTargetUrls(m Targets) Option {
	return func(o *manager) {
		o.targets = m
	}
}

func New(disp dispatcher.Manager, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	if disp == nil {
		return nil, fmt.Errorf("dispatcher instance is not defined")
	}
	m := &manager{
		targets:    Targets{},
		shutdownCh: shutdownCh,
		dispatcher: disp,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.client = &http.Client{
		Transport: &http.Transport{
			TLSHandshakeTimeout:   m.opts.tlsHandshakeTimeout,
			ResponseHeaderTimeout: m.opts.responseHeaderTimeout,
		},
	}
	return m, nil
}

type manager struct {
	opts             Options
	targets          Targets
	dispatcher       dispatcher.Manager
	client           *http.Client
	shutdownCh       chan<- error
	cancelDispatcher func()
	cancel           func()
}

func (s *manager) Stop() {
	s.cancel()
}

func (s *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	c, cancel := context.WithCancel(context.Background())
	s.cancelDispatcher = cancel
	if err := s.dispatcher.Run(c); err != nil {
		return fmt.Errorf("dispatcher.Run: %w", err)
	}
	go func() {
		defer func() {
			s.shutdownCh <- nil
			s.cancelDispatcher()
		}()
		ticker := time.NewTicker(s.opts.pullInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.pulling(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *manager) pull(url string) (response, error) {
	var response response
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return response, fmt.Errorf("creating request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("User-Agent", UserAgent)
	req.Header.Add("Accept-Encoding", "gzip")
	resp, err := s.client.Do(req)
	if err != nil {
		return response, fmt.Errorf("sending request error: %w", err)
	}

	defer resp.Body.Close()

	var reader io.ReadCloser
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return response, fmt.Errorf("unable create gzip.NewReader: %w", err)
		}
		defer gz.Close()
		reader = gz
	default:
		reader = resp.Body
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return response, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return response, fmt.Errorf("response was not 200 OK: %s", body)
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	if err := decoder.Decode(&response); err != nil {
		return response, fmt.Errorf("decoding response error: %w", err)
	}

	return response, nil
}

func (s *manager) pulling(ctx context.Context) {
	wg := sync.WaitGroup{}
	logger := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	rateCh := make(chan struct{}, s.opts.maxConcurrentRequest)
	go func() {
		for err := range errCh {
			logger.Errorf("source manager error: %v", err)
		}
	}()
OuterLoop:
	for _, link := range s.targets {
		urlData, err := url.Parse(link.URL)
		if err != nil {
			errCh <- fmt.Errorf("url parsing error: %w", err)
			continue OuterLoop
		}
		rworker.Job(&wg, func() error {
			resp, err := s.pull(urlData.String())
			if err != nil {
				return fmt.Errorf("pull error: %w", err)
			}
			if len(resp.Data) == 0 {
				return nil
			}
			sort.Slice(resp.Data, func(i, j int) bool {
				return resp.Data[i].CreatedAt.Before(resp.Data[j].CreatedAt)
			})
			data := make([]model.DataPoint, len(resp.Data))
			for i, dat := range resp.Data {
				data[i] = model.DataPoint{ID: dat.ID, Vec: dat.Vec, CreatedAt: dat.CreatedAt}
			}
			run := model.NewRun(resp.EntityID, resp.Eps, resp.MinPoints, resp.Metric, data)
			if err := s.dispatcher.Submit(run); err != nil {
				return fmt.Errorf("send to submit error: %w", err)
			}
			return nil
		}, rateCh, errCh)
	}
	wg.Wait()
	close(errCh)
	close(rateCh)
}
