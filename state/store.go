package state

import (
	"encoding/json"

	"github.com/axiomesh/axiom-kit/storage"
	"github.com/pkg/errors"
)

// Store is the persisted state shared by the governor and the local contracts.
type Store struct {
	db storage.Storage
}

func New(db storage.Storage) *Store {
	return &Store{db: db}
}

func (s *Store) Get(key []byte) []byte {
	return s.db.Get(key)
}

func (s *Store) Has(key []byte) bool {
	return s.db.Has(key)
}

// GetJSON decodes the value under key into v. It reports false when the key is absent.
func (s *Store) GetJSON(key []byte, v any) (bool, error) {
	return decode(key, s.db.Get(key), v)
}

// NewTxn opens an overlay transaction. Nothing reaches the database until Commit.
func (s *Store) NewTxn() *Txn {
	return &Txn{
		store:   s,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

// Update runs fn inside a transaction. Any error returned by fn discards every write made by fn.
func (s *Store) Update(fn func(*Txn) error) error {
	txn := s.NewTxn()
	if err := fn(txn); err != nil {
		txn.Rollback()
		return err
	}
	return txn.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func decode(key, data []byte, v any) (bool, error) {
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrapf(err, "decode state key %x", key)
	}
	return true, nil
}
