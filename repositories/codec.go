package repositories

import (
	"dm-lab/errors"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

func getJSON[T any](txn *badger.Txn, key []byte, notFound error) (T, error) {
	var value T
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return value, notFound
	}
	if err != nil {
		return value, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &value)
	})
	return value, err
}

func setJSON(txn *badger.Txn, key []byte, value any) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return txn.Set(key, bytes)
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// keysWithPrefix collects index keys without fetching values.
func keysWithPrefix(txn *badger.Txn, prefix []byte) [][]byte {
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	options.Prefix = prefix
	it := txn.NewIterator(options)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

const maxTxnAttempts = 5

// updateWithRetry reruns fn when its commit loses Badger's serializable conflict check.
// fn must start from scratch on every call.
func updateWithRetry(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		if err = db.Update(fn); !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// mapTxnError turns Badger's serializable conflict into the domain Conflict kind.
func mapTxnError(err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %v", errors.ErrConflict, err)
	}
	return err
}

func decodeItem(item *badger.Item, value any) error {
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, value)
	})
}
