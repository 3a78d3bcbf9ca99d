package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-dbscan/dbscan/internal/logging"
	"github.com/go-dbscan/dbscan/internal/run/model"
)

// Scheduler options
type dbSchedulerConfig struct {
	deps           pullDependencies
	maxItemsStored int
	maxStorageTime time.Duration
	rebuildDBTime  time.Duration
}

func newDBScheduler(config dbSchedulerConfig) *dbScheduler {
	return &dbScheduler{opts: config}
}

// The scheduler is responsible for deleting old runs from the DB.
// It can maintain the required amount of runs in the DB or delete old runs
// depending on the configuration. Unfinished runs are never touched.
type dbScheduler struct {
	opts dbSchedulerConfig
}

// TODO: delete by key range instead of fetching the full entity
// processOutdatedRuns retrieves all finished runs for the specified entity
// older than the configured storage time and performs bulk deletion.
func (s *dbScheduler) processOutdatedRuns(entityID string) error {
	runs, err := s.opts.deps.fetchRunsByEntity(entityID, func(run model.Run) bool {
		return !run.IsNew() && time.Since(run.CreatedAt) > s.opts.maxStorageTime
	})
	if err != nil {
		return fmt.Errorf("unable find runs by entity %s: %v", entityID, err)
	}

	if err := s.opts.deps.deleteRuns(context.Background(), runs); err != nil {
		return fmt.Errorf("unable delete outdated runs entity %s: %v", entityID, err)
	}
	return nil
}

// processOverSizeRuns retrieves all finished runs for the specified entity,
// sorts by creation date and deletes the oldest ones beyond the configured
// size.
func (s *dbScheduler) processOverSizeRuns(entityID string) error {
	runs, err := s.opts.deps.fetchRunsByEntity(entityID, func(run model.Run) bool {
		return !run.IsNew()
	})
	if err != nil {
		return fmt.Errorf("unable find runs by entity %s: %v", entityID, err)
	}

	if len(runs) <= s.opts.maxItemsStored {
		return nil
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.UnixNano() < runs[j].CreatedAt.UnixNano()
	})

	if err := s.opts.deps.deleteRuns(context.Background(), runs[:len(runs)-s.opts.maxItemsStored]); err != nil {
		return fmt.Errorf("unable delete oversize runs entity %s: %v", entityID, err)
	}
	return nil
}

// rebuildOutdated gets all entity keys and checks each entity for outdated
// runs
func (s *dbScheduler) rebuildOutdated() error {
	keys, err := s.opts.deps.fetchKeys()
	if err != nil {
		return fmt.Errorf("unable to fetch run keys: %v", err)
	}
	for i := range keys {
		if err := s.processOutdatedRuns(keys[i]); err != nil {
			return fmt.Errorf("unable process runs: %v", err)
		}
	}
	return nil
}

// rebuildSize gets all entity keys and checks the number of stored runs for
// each entity
func (s *dbScheduler) rebuildSize() error {
	keys, err := s.opts.deps.fetchKeys()
	if err != nil {
		return fmt.Errorf("unable fetch keys: %v", err)
	}
	for i := range keys {
		length, err := s.opts.deps.countByEntity(keys[i])
		if err != nil {
			return fmt.Errorf("unable count by entity %s: %v", keys[i], err)
		}
		if length > s.opts.maxItemsStored {
			if err := s.processOverSizeRuns(keys[i]); err != nil {
				return fmt.Errorf("unable process runs: %v", err)
			}
		}
	}

	return nil
}

// Scheduler for running data cleanup functions in the DB
func (s *dbScheduler) schedule(ctx context.Context) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(s.opts.rebuildDBTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.opts.maxItemsStored > 0 {
				if err := s.rebuildSize(); err != nil {
					logger.Errorf("unable db rebuild size: %v", err)
				}
			}
			if s.opts.maxStorageTime > 0 {
				if err := s.rebuildOutdated(); err != nil {
					logger.Errorf("unable db rebuild outdated: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
