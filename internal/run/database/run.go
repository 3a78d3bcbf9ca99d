package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/davecgh/go-xdr/xdr2"
	"github.com/go-dbscan/dbscan/internal/byteutil"
	"github.com/go-dbscan/dbscan/internal/database"
	"github.com/go-dbscan/dbscan/internal/run/model"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const (
	entityKeys = "entity:keys:"
	prefix     = "run:"
)

var ErrNotFound = errors.New("run not found")

type FilterFn func(run model.Run) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func encodeRun(run model.Run) ([]byte, error) {
	buf := byteutil.GetBytesBuf()
	defer byteutil.PutBytesBuf(buf)
	if _, err := xdr.Marshal(buf, run); err != nil {
		return nil, fmt.Errorf("xdr marshal run: %w", err)
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decodeRun(data []byte) (model.Run, error) {
	var run model.Run
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &run); err != nil {
		return model.Run{}, fmt.Errorf("xdr unmarshal run: %w", err)
	}
	return run, nil
}

func (db *DB) extractKey(key string) string {
	prefixPos := strings.Index(key, prefix)

	return key[prefixPos+len(prefix):]
}

func (db *DB) Keys() ([]string, error) {
	var bucketKeys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(entityKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			bucketKeys = append(bucketKeys, db.extractKey(string(k)))
		}
		return nil
	})

	return bucketKeys, err
}

func (db *DB) Store(_ context.Context, run model.Run) error {
	var b *bolt.Bucket
	encoded, err := encodeRun(run)
	if err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b = tx.Bucket([]byte(prefix + run.EntityID))
		if b == nil {
			b, err = tx.CreateBucket([]byte(prefix + run.EntityID))
			if err != nil {
				return fmt.Errorf("create bucket: %w", err)
			}
		}
		if err := b.Put([]byte(run.ID.String()), encoded); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		b = tx.Bucket([]byte(entityKeys))
		if b == nil {
			b, err = tx.CreateBucket([]byte(entityKeys))
			if err != nil {
				return fmt.Errorf("unable create entities bucket: %w", err)
			}
		}
		if err := b.Put([]byte(prefix+run.EntityID), []byte{0x0}); err != nil {
			return fmt.Errorf("unable put to entities bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) AppendMany(_ context.Context, runs []model.Run) error {
	var b *bolt.Bucket
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, run := range runs {
			b = tx.Bucket([]byte(prefix + run.EntityID))
			if b == nil {
				entityBucket, err := tx.CreateBucket([]byte(prefix + run.EntityID))
				if err != nil {
					return fmt.Errorf("create bucket: %w", err)
				}
				b = entityBucket
			}
			encoded, err := encodeRun(run)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(run.ID.String()), encoded); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
			b = tx.Bucket([]byte(entityKeys))
			if b == nil {
				keysBucket, err := tx.CreateBucket([]byte(entityKeys))
				if err != nil {
					return fmt.Errorf("unable create entities bucket: %w", err)
				}
				b = keysBucket
			}
			if err := b.Put([]byte(prefix+run.EntityID), []byte{0x0}); err != nil {
				return fmt.Errorf("unable put to entities bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) DeleteMany(_ context.Context, runs []model.Run) error {
	var b *bolt.Bucket
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, run := range runs {
			b = tx.Bucket([]byte(prefix + run.EntityID))
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(run.ID.String())); err != nil {
				return fmt.Errorf("unable delete: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) Delete(_ context.Context, run model.Run) error {
	var b *bolt.Bucket
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b = tx.Bucket([]byte(prefix + run.EntityID))
		if b == nil {
			return nil
		}

		return b.Delete([]byte(run.ID.String()))
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]model.Run, error) {
	var (
		keys []string
		runs []model.Run
	)
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(entityKeys))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}

		for _, key := range keys {
			b := tx.Bucket([]byte(key))
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				run, err := decodeRun(v)
				if err != nil {
					return err
				}
				if filter == nil || filter(run) {
					runs = append(runs, run)
				}
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %v", err)
	}

	return runs, nil
}

func (db *DB) FindByEntity(entityID string, filter FilterFn) ([]model.Run, error) {
	var list []model.Run
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + entityID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			run, err := decodeRun(v)
			if err != nil {
				return fmt.Errorf("decode error, %q", err)
			}
			if filter == nil || filter(run) {
				list = append(list, run)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %v", err)
	}

	return list, nil
}

// FindByID scans every entity bucket.
// TODO: secondary index by run id
func (db *DB) FindByID(_ context.Context, id uuid.UUID) (model.Run, error) {
	var (
		found bool
		run   model.Run
	)
	key := []byte(id.String())
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(entityKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			entity := tx.Bucket(k)
			if entity == nil {
				continue
			}
			v := entity.Get(key)
			if v == nil {
				continue
			}
			decoded, err := decodeRun(v)
			if err != nil {
				return err
			}
			run = decoded
			found = true
			return nil
		}
		return nil
	}); err != nil {
		return model.Run{}, fmt.Errorf("view transaction error: %v", err)
	}
	if !found {
		return model.Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}

	return run, nil
}

func (db *DB) CountByEntity(entityID string) (int, error) {
	var length int
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + entityID))
		if b == nil {
			length = 0
			return nil
		}
		stats := b.Stats()
		length = stats.KeyN
		return nil
	}); err != nil {
		return 0, fmt.Errorf("view transaction error: %v", err)
	}

	return length, nil
}
