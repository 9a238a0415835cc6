package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// schemaVersion is bumped when the on-disk record layout changes
// incompatibly.
const schemaVersion = "1"

// EnsureSchema writes the schema marker on first use and verifies it on
// every subsequent run. Safe to call repeatedly; a version mismatch is
// fatal rather than silently migrated.
func (s *Store) EnsureSchema() error {
	return s.backend.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaMarkerKey))
		if err != nil {
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			return txn.Set([]byte(schemaMarkerKey), []byte(schemaVersion))
		}

		return item.Value(func(val []byte) error {
			if string(val) != schemaVersion {
				return fmt.Errorf("unsupported schema version '%s', want '%s'", val, schemaVersion)
			}
			return nil
		})
	})
}
