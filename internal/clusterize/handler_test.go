package clusterize

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-dbscan/dbscan/internal/cluster"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	h, err := NewHandler(
		&Config{RequestTimeout: time.Minute, MaxDatasetsLen: 16},
		func(eps float64, minPoints int) (*cluster.Clusterer, error) {
			return cluster.New(cluster.WithEps(eps), cluster.WithMinPoints(minPoints))
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return h
}

func TestHandlerClusterize(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	body := `{
		"entity": "orders",
		"eps": 5,
		"minPoints": 2,
		"metric": "EUCLIDEAN",
		"datasets": [{
			"id": "ds-1",
			"data": [
				{"id": "p-0", "vector": [1, 1]},
				{"id": "p-1", "vector": [2, 2]},
				{"id": "p-2", "vector": [3, 3]},
				{"id": "p-3", "vector": [2000, 2000]}
			]
		}]
	}`
	req := httptest.NewRequest("POST", "/cluster", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, expected 200: %s", w.Code, w.Body.String())
	}

	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("got %d results, expected 1", len(resp.Results))
	}
	p := resp.Results[0]
	if p.DatasetID != "ds-1" {
		t.Errorf("got dataset id %q, expected ds-1", p.DatasetID)
	}
	if len(p.Clusters) != 1 || len(p.Clusters[1]) != 3 {
		t.Errorf("got clusters %v, expected one cluster of three points", p.Clusters)
	}
	if p.Labels["p-3"] != -1 {
		t.Errorf("got label %d for the isolated point, expected noise", p.Labels["p-3"])
	}
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	req := httptest.NewRequest("GET", "/cluster", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("got status %d, expected 405", w.Code)
	}
}

func TestHandlerContentType(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	req := httptest.NewRequest("POST", "/cluster", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("got status %d, expected 415", w.Code)
	}
}

func TestHandlerInvalidParams(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	body := `{
		"entity": "orders",
		"eps": -1,
		"minPoints": 2,
		"metric": "EUCLIDEAN",
		"datasets": [{"id": "ds-1", "data": [{"id": "p-0", "vector": [1, 1]}]}]
	}`
	req := httptest.NewRequest("POST", "/cluster", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("got status %d, expected 400", w.Code)
	}
}

func TestHandlerMalformedJSON(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	req := httptest.NewRequest("POST", "/cluster", bytes.NewBufferString(`{"entity": `))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("got status %d, expected 400", w.Code)
	}
}
