package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-dbscan/dbscan/internal/dispatcher"
	"github.com/go-dbscan/dbscan/internal/httputil"
	"github.com/go-dbscan/dbscan/internal/logging"
	"github.com/go-dbscan/dbscan/internal/run/model"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
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

type response struct {
	RunID string `json:"runId"`
}

// NewHandler accepts a dataset and queues a clustering run. The run executes
// in the background; the response carries the id to poll results with.
func NewHandler(cfg *Config, submitter dispatcher.Submitter) (http.Handler, error) {
	return &handler{
		submitter: submitter,
		cfg:       cfg,
	}, nil
}

type handler struct {
	submitter dispatcher.Submitter
	cfg       *Config
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

	sort.Slice(req.Data, func(i, j int) bool {
		return req.Data[i].CreatedAt.Before(req.Data[j].CreatedAt)
	})
	data := make([]model.DataPoint, len(req.Data))
	for i, dat := range req.Data {
		data[i] = model.DataPoint{ID: dat.ID, Vec: dat.Vec, CreatedAt: dat.CreatedAt}
	}
	run := model.NewRun(req.EntityID, req.Eps, req.MinPoints, req.Metric, data)

	if err := h.submitter.Submit(run); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "error sending to submit service: %v"}`, err)
		return
	}

	logger.Infof("accepted run %s for entity %s", run.ID, req.EntityID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	encoded, err := json.Marshal(response{RunID: run.ID.String()})
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	_, _ = w.Write(encoded)
}
