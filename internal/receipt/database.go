package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	recordsBucket = "records"
	sourcesBucket = "sources" // source ID -> record ID
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// DB defines the interface for database operations
type DB interface {
	// SaveRecord saves a record, indexing it by source ID
	SaveRecord(record *Record) error

	// GetRecord retrieves a record by ID
	GetRecord(id string) (*Record, error)

	// FindBySource retrieves the record produced from a source
	FindBySource(sourceID string) (*Record, error)

	// ListRecords returns all records, newest first
	ListRecords() ([]*Record, error)

	// DeleteRecord removes a record and its source index entry
	DeleteRecord(id string) error

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
		for _, name := range []string{recordsBucket, sourcesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveRecord saves a record to the database
func (b *BoltDB) SaveRecord(record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(recordsBucket)).Put([]byte(record.ID), data); err != nil {
			return err
		}
		if record.SourceID == "" {
			return nil
		}
		return tx.Bucket([]byte(sourcesBucket)).Put([]byte(record.SourceID), []byte(record.ID))
	})
}

// GetRecord retrieves a record by ID
func (b *BoltDB) GetRecord(id string) (*Record, error) {
	var record *Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		record, err = getRecord(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FindBySource retrieves the record produced from sourceID
func (b *BoltDB) FindBySource(sourceID string) (*Record, error) {
	var record *Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket([]byte(sourcesBucket)).Get([]byte(sourceID))
		if id == nil {
			return fmt.Errorf("%w: source %s", ErrNotFound, sourceID)
		}
		var err error
		record, err = getRecord(tx, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func getRecord(tx *bbolt.Tx, id string) (*Record, error) {
	data := tx.Bucket([]byte(recordsBucket)).Get([]byte(id))
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling record: %w", err)
	}
	return &record, nil
}

// ListRecords returns all records, newest first
func (b *BoltDB) ListRecords() ([]*Record, error) {
	records := make([]*Record, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(recordsBucket)).ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// DeleteRecord removes a record from the database
func (b *BoltDB) DeleteRecord(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		record, err := getRecord(tx, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if record.SourceID != "" {
			sources := tx.Bucket([]byte(sourcesBucket))
			if string(sources.Get([]byte(record.SourceID))) == id {
				if err := sources.Delete([]byte(record.SourceID)); err != nil {
					return err
				}
			}
		}
		return tx.Bucket([]byte(recordsBucket)).Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
