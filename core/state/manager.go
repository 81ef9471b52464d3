package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"uniart/storage"
)

// Manager provides a typed key-value view over the raw storage backend. Values
// are RLP encoded; keys are plain prefixed byte strings so whole key ranges
// (for example every balance row of a collection) can be removed with a single
// prefix delete. Native modules consume the manager through their own narrow
// Storage interfaces.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// KVPut RLP-encodes value and stores it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, encoded)
}

// KVGet loads the value stored under key into out. The boolean reports whether
// the key was present.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, fmt.Errorf("state: manager not initialised")
	}
	data, ok, err := m.db.Get(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// KVDelete removes the entry stored under key, if any.
func (m *Manager) KVDelete(key []byte) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	return m.db.Delete(key)
}

// KVDeletePrefix removes every entry whose key starts with prefix. Used by
// collection destruction to purge per-collection key ranges.
func (m *Manager) KVDeletePrefix(prefix []byte) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	keys := make([][]byte, 0)
	err := m.db.IteratePrefix(prefix, func(key, _ []byte) error {
		keys = append(keys, append([]byte(nil), key...))
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := m.db.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
