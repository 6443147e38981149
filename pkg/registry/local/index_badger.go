package localregistry

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignitionstack/modelreg/internal/repository"
	"github.com/ignitionstack/modelreg/pkg/registry"
)

const BadgerIndexDir = "index.db"

var indexKey = []byte("registry:index")

// badgerIndexStore keeps the encoded index under a single key, so each Save
// is one Badger transaction.
type badgerIndexStore struct {
	dbRepo repository.DBRepository
}

func NewBadgerIndexStore(dbRepo repository.DBRepository) registry.IndexStore {
	return &badgerIndexStore{dbRepo: dbRepo}
}

// OpenBadgerIndexStore opens the database at dir.
func OpenBadgerIndexStore(dir string) (registry.IndexStore, error) {
	repo, err := repository.OpenBadger(dir)
	if err != nil {
		return nil, err
	}
	return NewBadgerIndexStore(repo), nil
}

func (s *badgerIndexStore) Load(ctx context.Context) (*registry.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	val, err := s.dbRepo.Get(indexKey)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return registry.NewIndex(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	return registry.DecodeIndex(val)
}

func (s *badgerIndexStore) Save(ctx context.Context, idx *registry.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := idx.Validate(); err != nil {
		return fmt.Errorf("refusing to save index: %w", err)
	}

	val, err := registry.EncodeIndex(idx)
	if err != nil {
		return err
	}
	if err := s.dbRepo.Set(indexKey, val); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

func (s *badgerIndexStore) Close() error {
	return s.dbRepo.Close()
}
