package checkpoint

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	bolt "go.etcd.io/bbolt"
)

// RUNS is the bucket holding one nested bucket per configuration.
var RUNS = []byte("runs")

// namespace of configuration fingerprints.
var namespace = uuid.MustParse("6f1c5b9e-3d1a-4c55-9a6e-2f0e7d9b8a41")

// Fingerprint returns a name-based UUID of the JSON encoding of v.
// Equal configurations give equal fingerprints.
func Fingerprint(v any) (uuid.UUID, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return uuid.Nil, fmt.Errorf("fingerprint: %w", err)
	}
	return uuid.NewSHA1(namespace, b), nil
}

// Runs stores numbered results of independent runs of one
// configuration. A nil database stores nothing.
type Runs struct {
	db  *bolt.DB
	key []byte
}

// NewRuns creates a run store for configuration key.
func NewRuns(db *bolt.DB, key uuid.UUID) *Runs {
	return &Runs{db: db, key: []byte(key.String())}
}

func runKey(i int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(i))
	return k
}

// Put stores the result of run i. It is safe to call from multiple
// goroutines.
func (r *Runs) Put(i int, v any) error {
	if r == nil || r.db == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(RUNS)
		if err != nil {
			return err
		}
		bk, err := root.CreateBucketIfNotExists(r.key)
		if err != nil {
			return err
		}
		return bk.Put(runKey(i), b)
	})
}

// Load decodes every stored run with index below n. newV returns a
// value to decode run i into.
func (r *Runs) Load(n int, newV func(i int) any) (found []int, err error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	err = r.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(RUNS)
		if root == nil {
			return nil
		}
		bk := root.Bucket(r.key)
		if bk == nil {
			return nil
		}
		return bk.ForEach(func(k, v []byte) error {
			if len(k) != 8 {
				return nil
			}
			i := int(binary.BigEndian.Uint64(k))
			if i >= n {
				return nil
			}
			if err := json.Unmarshal(v, newV(i)); err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			found = append(found, i)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Ints(found)
	if len(found) > 0 {
		log.Noticef("Found %d completed runs in checkpoint", len(found))
	}
	return found, nil
}

// Clear removes all runs of the configuration.
func (r *Runs) Clear() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(RUNS)
		if root == nil || root.Bucket(r.key) == nil {
			return nil
		}
		return root.DeleteBucket(r.key)
	})
}
