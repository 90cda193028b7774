package photo

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	batchBucketName    = "batches"
	documentBucketName = "documents"
)

// ErrBatchNotFound is returned when no batch has the requested ID
var ErrBatchNotFound = errors.New("batch not found")

// DB defines the interface for batch history operations
type DB interface {
	// SaveBatch saves a batch and its document
	SaveBatch(batch *Batch) error

	// GetBatch retrieves a batch, document included, by ID
	GetBatch(id string) (*Batch, error)

	// ListBatches returns all batches, newest first, without documents
	ListBatches() ([]*Batch, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(batchBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(documentBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveBatch stores the batch entry and its document in one transaction.
// The document is kept verbatim so it reads back byte for byte.
func (b *BoltDB) SaveBatch(batch *Batch) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(batch)
		if err != nil {
			return fmt.Errorf("marshaling batch: %w", err)
		}
		if err := tx.Bucket([]byte(batchBucketName)).Put([]byte(batch.ID), data); err != nil {
			return err
		}
		return tx.Bucket([]byte(documentBucketName)).Put([]byte(batch.ID), batch.Document)
	})
}

// GetBatch retrieves a batch by ID
func (b *BoltDB) GetBatch(id string) (*Batch, error) {
	var batch *Batch
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(batchBucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrBatchNotFound, id)
		}
		if err := json.Unmarshal(data, &batch); err != nil {
			return fmt.Errorf("unmarshaling batch: %w", err)
		}
		// Values are only valid inside the transaction
		doc := tx.Bucket([]byte(documentBucketName)).Get([]byte(id))
		batch.Document = append([]byte(nil), doc...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// ListBatches returns all batches, newest first
func (b *BoltDB) ListBatches() ([]*Batch, error) {
	batches := make([]*Batch, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(batchBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var batch Batch
			if err := json.Unmarshal(v, &batch); err != nil {
				return fmt.Errorf("unmarshaling batch: %w", err)
			}
			batches = append(batches, &batch)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})
	return batches, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
