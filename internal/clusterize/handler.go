package clusterize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-dbscan/dbscan/internal/cluster"
	"github.com/go-dbscan/dbscan/internal/geom"
	"github.com/go-dbscan/dbscan/internal/httputil"
	"github.com/go-dbscan/dbscan/internal/logging"
	"github.com/go-dbscan/dbscan/pkg/container/kdtree"
	"golang.org/x/sync/errgroup"
)

const maxBodyBytes = 64 * 1024 * 1024

type dataset struct {
	ID   string `json:"id"`
	Data []struct {
		ID        string    `json:"id"`
		Vec       []float64 `json:"vector"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"data"`
}

type request struct {
	EntityID  string    `json:"entity"`
	Eps       float64   `json:"eps"`
	MinPoints int       `json:"minPoints"`
	Metric    string    `json:"metric"`
	Datasets  []dataset `json:"datasets"`
}

type partition struct {
	DatasetID string           `json:"datasetId"`
	Clusters  map[int][]string `json:"clusters"`
	Labels    map[string]int32 `json:"labels"`
}

type response struct {
	EntityID string      `json:"entity"`
	Results  []partition `json:"results"`
}

// NewHandler clusterizes the posted datasets synchronously and returns the
// partitions in the response. Nothing is persisted on this path.
func NewHandler(cfg *Config, provideFn cluster.ProvideFn) (http.Handler, error) {
	return &handler{
		provideFn: provideFn,
		cfg:       cfg,
	}, nil
}

type handler struct {
	provideFn cluster.ProvideFn
	cfg       *Config
}

func (h *handler) clusterize(req request, ds dataset) (partition, error) {
	metric, err := geom.MetricFor(geom.MetricFuncType(req.Metric))
	if err != nil {
		return partition{}, fmt.Errorf("unable resolve metric: %w", err)
	}
	clusterer, err := h.provideFn(req.Eps, req.MinPoints)
	if err != nil {
		return partition{}, fmt.Errorf("can not create clusterer instance: %w", err)
	}

	points := make([]kdtree.Point, len(ds.Data))
	for i, dat := range ds.Data {
		points[i] = geom.NewPoint(dat.ID, dat.Vec, metric)
	}

	result, err := clusterer.Run(points...)
	if err != nil {
		return partition{}, fmt.Errorf("clusterize error: %w", err)
	}

	p := partition{
		DatasetID: ds.ID,
		Clusters:  make(map[int][]string, len(result.Clusters)),
		Labels:    make(map[string]int32, len(result.Labels)),
	}
	for id, members := range result.Clusters {
		ids := make([]string, len(members))
		for i := range members {
			ids[i] = members[i].ID()
		}
		p.Clusters[id] = ids
	}
	for id, label := range result.Labels {
		p.Labels[id] = int32(label)
	}
	return p, nil
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if len(req.Datasets) > h.cfg.MaxDatasetsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "datasets is too large, max allowed len is %d"}`, h.cfg.MaxDatasetsLen)
		return
	}

	var results []partition
	errGrp := errgroup.Group{}
	mtx := sync.Mutex{}
	for _, ds := range req.Datasets {
		ds := ds
		errGrp.Go(func() error {
			p, err := h.clusterize(req, ds)
			if err != nil {
				return fmt.Errorf("dataset %s: %w", ds.ID, err)
			}
			mtx.Lock()
			results = append(results, p)
			mtx.Unlock()
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "clusterize processing error, %v"}`, err)
		return
	}

	resp := response{EntityID: req.EntityID, Results: results}
	encoded, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(encoded)
}
