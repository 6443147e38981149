package repository

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// ErrKeyNotFound is returned by Get when the key has never been written.
var ErrKeyNotFound = errors.New("key not found")

type DBRepository interface {
	View(fn func(txn *badger.Txn) error) error
	Update(fn func(txn *badger.Txn) error) error
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Close() error
}

type BadgerDBRepository struct {
	db *badger.DB
}

// OpenBadger opens (creating if needed) a Badger database in dir with
// Badger's own logging disabled.
func OpenBadger(dir string) (*BadgerDBRepository, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dir, err)
	}
	return NewBadgerDBRepository(db), nil
}

func NewBadgerDBRepository(db *badger.DB) *BadgerDBRepository {
	return &BadgerDBRepository{db: db}
}

func (r *BadgerDBRepository) View(fn func(txn *badger.Txn) error) error {
	return r.db.View(fn)
}

func (r *BadgerDBRepository) Update(fn func(txn *badger.Txn) error) error {
	return r.db.Update(fn)
}

// Get returns a copy of the value stored under key.
func (r *BadgerDBRepository) Get(key []byte) ([]byte, error) {
	var out []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

// Set writes value under key in its own transaction.
func (r *BadgerDBRepository) Set(key, value []byte) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (r *BadgerDBRepository) Close() error {
	return r.db.Close()
}
