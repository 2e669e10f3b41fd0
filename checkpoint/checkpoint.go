// Package checkpoint keeps intermediate results in a bolt database: the
// best point of a running calibration and the completed runs of a
// simulation. Entries are keyed by a fingerprint of the configuration,
// so a changed configuration never resumes from stale results.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"
)

var log = logging.MustGetLogger("checkpoint")

// CALIBRATION is the bucket of calibration states.
var CALIBRATION = []byte("calibration")

// Open opens or creates the checkpoint database.
func Open(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open checkpoint %s: %w", path, err)
	}
	return db, nil
}

// State is the best point of a calibration.
type State struct {
	Parameters  map[string]float64 `json:"parameters"`
	Loss        float64            `json:"loss"`
	Evaluations int                `json:"evaluations"`
	// Final is set once the calibration converged.
	Final bool `json:"final"`
}

// Calibration stores the state of one calibration problem. A nil
// database stores nothing.
type Calibration struct {
	db    *bolt.DB
	key   []byte
	every time.Duration
	saved time.Time
}

// NewCalibration creates the checkpoint of the problem with the given
// fingerprint. Due reports true at most once per every.
func NewCalibration(db *bolt.DB, key uuid.UUID, every time.Duration) *Calibration {
	return &Calibration{db: db, key: []byte(key.String()), every: every}
}

// Due tells whether the last save is older than the save interval.
func (c *Calibration) Due() bool {
	return time.Since(c.saved) > c.every
}

// Save stores st. Failures are logged and returned; the save time is
// updated either way.
func (c *Calibration) Save(st *State) error {
	c.saved = time.Now()
	b, err := json.Marshal(st)
	if err != nil {
		log.Error("Error serializing calibration state:", err)
		return err
	}
	if err := put(c.db, CALIBRATION, c.key, b); err != nil {
		log.Error("Error saving calibration state:", err)
		return err
	}
	return nil
}

// Load returns the stored state or nil if there is none.
func (c *Calibration) Load() (*State, error) {
	b, err := get(c.db, CALIBRATION, c.key)
	if err != nil || b == nil {
		return nil, err
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("calibration state: %w", err)
	}
	if len(st.Parameters) == 0 {
		return nil, nil
	}
	if st.Final {
		log.Noticef("Found finished calibration (evaluations=%v, loss=%v)", st.Evaluations, st.Loss)
	} else {
		log.Noticef("Found unfinished calibration (evaluations=%v, loss=%v)", st.Evaluations, st.Loss)
	}
	return &st, nil
}

// Clear removes the stored state.
func (c *Calibration) Clear() error {
	if c.db == nil {
		return nil
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(CALIBRATION)
		if b == nil {
			return nil
		}
		return b.Delete(c.key)
	})
}

func put(db *bolt.DB, bucket, key, value []byte) error {
	if db == nil {
		return nil
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return err
		}
		return b.Put(key, value)
	})
}

// get returns a copy of the stored value; missing keys give nil.
func get(db *bolt.DB, bucket, key []byte) (value []byte, err error) {
	if db == nil {
		return nil, nil
	}
	err = db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucket); b != nil {
			if v := b.Get(key); v != nil {
				value = append([]byte(nil), v...)
			}
		}
		return nil
	})
	return
}
