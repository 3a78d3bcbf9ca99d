package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-dbscan/dbscan/internal/dispatcher"
	"github.com/go-dbscan/dbscan/internal/httputil"
	"github.com/go-dbscan/dbscan/internal/logging"
	runDb "github.com/go-dbscan/dbscan/internal/run/database"
	"github.com/go-dbscan/dbscan/internal/run/model"
	"github.com/google/uuid"
)

type response struct {
	RunID      string             `json:"runId"`
	EntityID   string             `json:"entityId"`
	Status     string             `json:"status"`
	Eps        float64            `json:"eps"`
	MinPoints  int32              `json:"minPoints"`
	Metric     string             `json:"metric"`
	Clusters   map[int32][]string `json:"clusters,omitempty"`
	Labels     map[string]int32   `json:"labels,omitempty"`
	Error      string             `json:"error,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	FinishedAt *time.Time         `json:"finishedAt,omitempty"`
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

// NewHandler reads a run back by id. Pending runs answer with status new and
// no partition.
func NewHandler(cfg *Config, finder dispatcher.Finder) (http.Handler, error) {
	return &handler{
		finder: finder,
		cfg:    cfg,
	}, nil
}

type handler struct {
	finder dispatcher.Finder
	cfg    *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	rawID := r.URL.Query().Get("id")
	if rawID == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "id query parameter is required"}`)
		return
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "id is not a valid uuid"}`)
		return
	}

	run, err := h.finder.FindRun(ctx, id)
	if err != nil {
		if errors.Is(err, runDb.ErrNotFound) {
			httputil.RespNotFound(ctx, w, `{"error": "run %s not found"}`, id)
			return
		}
		httputil.RespInternalError(ctx, w, `{"error": "find run error: %v"}`, err)
		return
	}

	resp := response{
		RunID:     run.ID.String(),
		EntityID:  run.EntityID,
		Status:    statusOf(run),
		Eps:       run.Eps,
		MinPoints: run.MinPoints,
		Metric:    run.Metric,
		Clusters:  run.Clusters,
		Labels:    run.Labels,
		Error:     run.Error,
		CreatedAt: run.CreatedAt,
	}
	if !run.FinishedAt.IsZero() {
		resp.FinishedAt = &run.FinishedAt
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(encoded)
}
