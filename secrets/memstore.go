// Package secrets provides host-side SecretStore implementations: an
// in-memory store for tests and embedders that persist elsewhere, and a
// JSON file store for hosts that want bonds to survive restarts. Both
// enumerate in insertion order, which is what makes the bond bridge's
// ascending index walk deterministic.
package secrets

import (
	"encoding/hex"
	"fmt"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/rigado/bleport"
)

type memEntry struct {
	kind  bleport.SecretKind
	value []byte
}

// MemStore keeps secrets in process memory, insertion ordered.
type MemStore struct {
	mu      sync.Mutex
	entries *orderedmap.OrderedMap[string, *memEntry]
}

func NewMemStore() *MemStore {
	return &MemStore{entries: orderedmap.New[string, *memEntry]()}
}

func memKey(kind bleport.SecretKind, key []byte) string {
	return fmt.Sprintf("%d/%s", kind, hex.EncodeToString(key))
}

// GetSecret looks up by key, or, with a nil key, returns the index-th
// entry of that kind in insertion order.
func (m *MemStore) GetSecret(kind bleport.SecretKind, key []byte, index int) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if key != nil {
		e, ok := m.entries.Get(memKey(kind, key))
		if !ok {
			return nil, false
		}
		return e.value, true
	}

	if index < 0 {
		return nil, false
	}
	n := 0
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.kind != kind {
			continue
		}
		if n == index {
			return pair.Value.value, true
		}
		n++
	}
	return nil, false
}

// SetSecret stores value under key; a nil value deletes instead. Deleting
// an absent entry reports false, everything else succeeds.
func (m *MemStore) SetSecret(kind bleport.SecretKind, key, value []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memKey(kind, key)
	if value == nil {
		_, present := m.entries.Delete(k)
		return present
	}

	v := make([]byte, len(value))
	copy(v, value)
	if e, ok := m.entries.Get(k); ok {
		// Overwrite in place keeps the entry's enumeration position.
		e.value = v
		return true
	}
	m.entries.Set(k, &memEntry{kind: kind, value: v})
	return true
}

// Len reports the number of stored entries across all kinds.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.Len()
}
