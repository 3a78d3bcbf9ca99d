package database

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	db "github.com/go-dbscan/dbscan/internal/database"
	"github.com/go-dbscan/dbscan/internal/run/model"
	"github.com/google/uuid"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	sDB, err := db.NewFromEnv(context.Background(), &db.Config{
		FileName: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() {
		if err := sDB.Close(context.Background()); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return New(sDB)
}

func testRun(entityID string) model.Run {
	run := model.NewRun(entityID, 0.5, 5, "EUCLIDEAN", []model.DataPoint{
		{ID: "p-0", Vec: []float64{1, 2}, CreatedAt: time.Now().UTC().Truncate(time.Second)},
		{ID: "p-1", Vec: []float64{3, 4}, CreatedAt: time.Now().UTC().Truncate(time.Second)},
	})
	run.CreatedAt = run.CreatedAt.UTC().Truncate(time.Second)
	return run
}

func TestStoreFindByEntity(t *testing.T) {
	t.Parallel()
	runDB := newTestDB(t)
	ctx := context.Background()

	run := testRun("orders")
	if err := runDB.Store(ctx, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := runDB.FindByEntity("orders", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("got %d runs, expected 1", len(found))
	}
	if found[0].ID != run.ID {
		t.Errorf("got run %s, expected %s", found[0].ID, run.ID)
	}
	if len(found[0].Data) != 2 || !reflect.DeepEqual(found[0].Data[0].Vec, run.Data[0].Vec) {
		t.Errorf("run data did not round trip: %v", found[0].Data)
	}
}

func TestStoreStatusUpdate(t *testing.T) {
	t.Parallel()
	runDB := newTestDB(t)
	ctx := context.Background()

	run := testRun("orders")
	if err := runDB.Store(ctx, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	run.Status = model.StatusDone
	run.Clusters = map[int32][]string{1: {"p-0", "p-1"}}
	run.Labels = map[string]int32{"p-0": 1, "p-1": 1}
	if err := runDB.Store(ctx, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := runDB.FindByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found.IsDone() {
		t.Errorf("got status %d, expected done", found.Status)
	}
	if !reflect.DeepEqual(found.Clusters, run.Clusters) {
		t.Errorf("got clusters %v, expected %v", found.Clusters, run.Clusters)
	}
	if !reflect.DeepEqual(found.Labels, run.Labels) {
		t.Errorf("got labels %v, expected %v", found.Labels, run.Labels)
	}
}

func TestFindByIDNotFound(t *testing.T) {
	t.Parallel()
	runDB := newTestDB(t)
	if _, err := runDB.FindByID(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, expected ErrNotFound", err)
	}
}

func TestAppendManyAndKeys(t *testing.T) {
	t.Parallel()
	runDB := newTestDB(t)
	ctx := context.Background()

	runs := []model.Run{testRun("orders"), testRun("orders"), testRun("users")}
	if err := runDB.AppendMany(ctx, runs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	keys, err := runDB.Keys()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got keys %v, expected two entities", keys)
	}

	n, err := runDB.CountByEntity("orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("got %d runs for orders, expected 2", n)
	}
}

func TestDeleteMany(t *testing.T) {
	t.Parallel()
	runDB := newTestDB(t)
	ctx := context.Background()

	runs := []model.Run{testRun("orders"), testRun("orders"), testRun("orders")}
	if err := runDB.AppendMany(ctx, runs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := runDB.DeleteMany(ctx, runs[:2]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := runDB.FindAll(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("got %d runs, expected 1", len(found))
	}
	if found[0].ID != runs[2].ID {
		t.Errorf("got run %s, expected %s", found[0].ID, runs[2].ID)
	}
}

func TestFindAllFiltered(t *testing.T) {
	t.Parallel()
	runDB := newTestDB(t)
	ctx := context.Background()

	done := testRun("orders")
	done.Status = model.StatusDone
	if err := runDB.AppendMany(ctx, []model.Run{testRun("orders"), done}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := runDB.FindAll(ctx, func(run model.Run) bool { return run.IsNew() })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 || !found[0].IsNew() {
		t.Errorf("got %v, expected the single new run", found)
	}
}
