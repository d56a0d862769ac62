package state

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrTxnFinished  = errors.New("transaction already finished")
	ErrCommitFailed = errors.New("commit state batch")
)

// Txn buffers writes and deletes on top of the committed store.
// Reads see the buffered writes first.
type Txn struct {
	store    *Store
	writes   map[string][]byte
	deletes  map[string]struct{}
	finished bool
}

func (t *Txn) Get(key []byte) []byte {
	k := string(key)
	if v, ok := t.writes[k]; ok {
		return v
	}
	if _, ok := t.deletes[k]; ok {
		return nil
	}
	return t.store.db.Get(key)
}

func (t *Txn) Has(key []byte) bool {
	return t.Get(key) != nil
}

func (t *Txn) Put(key, value []byte) {
	k := string(key)
	delete(t.deletes, k)
	t.writes[k] = append([]byte(nil), value...)
}

func (t *Txn) Delete(key []byte) {
	k := string(key)
	delete(t.writes, k)
	t.deletes[k] = struct{}{}
}

func (t *Txn) GetJSON(key []byte, v any) (bool, error) {
	return decode(key, t.Get(key), v)
}

func (t *Txn) PutJSON(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode state key %x", key)
	}
	t.Put(key, data)
	return nil
}

// Commit flushes the buffered changes in a single batch, keys in sorted order.
// A failed database write is returned as ErrCommitFailed.
func (t *Txn) Commit() (err error) {
	if t.finished {
		return ErrTxnFinished
	}
	t.finished = true

	if len(t.writes) == 0 && len(t.deletes) == 0 {
		return nil
	}

	batch := t.store.db.NewBatch()
	for _, k := range sortedKeys(t.deletes) {
		batch.Delete([]byte(k))
	}
	for _, k := range sortedKeys(t.writes) {
		batch.Put([]byte(k), t.writes[k])
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrCommitFailed, "%v", r)
		}
	}()
	batch.Commit()

	return nil
}

// Rollback drops the buffered changes. It is safe to call after Commit.
func (t *Txn) Rollback() {
	t.finished = true
	t.writes = make(map[string][]byte)
	t.deletes = make(map[string]struct{})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
