package results

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	runDb "github.com/go-dbscan/dbscan/internal/run/database"
	"github.com/go-dbscan/dbscan/internal/run/model"
	"github.com/google/uuid"
)

type fakeFinder struct {
	runs map[uuid.UUID]model.Run
}

func (f *fakeFinder) FindRun(_ context.Context, id uuid.UUID) (model.Run, error) {
	run, ok := f.runs[id]
	if !ok {
		return model.Run{}, runDb.ErrNotFound
	}
	return run, nil
}

func newTestHandler(t *testing.T, finder *fakeFinder) http.Handler {
	t.Helper()
	h, err := NewHandler(&Config{RequestTimeout: 15 * time.Second}, finder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return h
}

func TestHandlerFound(t *testing.T) {
	t.Parallel()
	run := model.NewRun("orders", 0.5, 5, "EUCLIDEAN", nil)
	run.Status = model.StatusDone
	run.Clusters = map[int32][]string{1: {"p-0", "p-1"}}
	run.Labels = map[string]int32{"p-0": 1, "p-1": 1}
	run.FinishedAt = time.Now()

	h := newTestHandler(t, &fakeFinder{runs: map[uuid.UUID]model.Run{run.ID: run}})

	req := httptest.NewRequest("GET", "/results?id="+run.ID.String(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, expected 200: %s", w.Code, w.Body.String())
	}
	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "done" {
		t.Errorf("got status %q, expected done", resp.Status)
	}
	if len(resp.Clusters[1]) != 2 {
		t.Errorf("got clusters %v, expected the stored partition", resp.Clusters)
	}
	if resp.FinishedAt == nil {
		t.Errorf("finished timestamp is missing")
	}
}

func TestHandlerPendingRun(t *testing.T) {
	t.Parallel()
	run := model.NewRun("orders", 0.5, 5, "EUCLIDEAN", nil)
	h := newTestHandler(t, &fakeFinder{runs: map[uuid.UUID]model.Run{run.ID: run}})

	req := httptest.NewRequest("GET", "/results?id="+run.ID.String(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, expected 200", w.Code)
	}
	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "new" {
		t.Errorf("got status %q, expected new", resp.Status)
	}
	if resp.FinishedAt != nil {
		t.Errorf("pending run carries a finished timestamp")
	}
}

func TestHandlerNotFound(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, &fakeFinder{runs: map[uuid.UUID]model.Run{}})

	req := httptest.NewRequest("GET", "/results?id="+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("got status %d, expected 404", w.Code)
	}
}

func TestHandlerBadRequest(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, &fakeFinder{runs: map[uuid.UUID]model.Run{}})

	tests := []struct {
		name string
		url  string
	}{
		{name: "missing id", url: "/results"},
		{name: "invalid id", url: "/results?id=not-a-uuid"},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest("GET", test.url, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("got status %d, expected 400", w.Code)
			}
		})
	}
}
