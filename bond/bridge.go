// Package bond routes the stack's pairing-key persistence through the
// host's generic secret store. Key material travels as one opaque blob
// per peer, and an in-memory registry mirrors what the store holds so
// the stack reads keys without touching the host after startup.
package bond

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/rigado/bleport"
)

// MaxBonds is the default bonded-peer capacity; LoadAll enumerates at
// most this many stored entries.
const MaxBonds = 4

var (
	// ErrTooLarge rejects key material that does not fit one blob.
	ErrTooLarge = errors.New("bond: key material too large")

	// ErrStoreRefused wraps a write the host store declined.
	ErrStoreRefused = errors.New("bond: store refused")

	// ErrNoStore reports a bridge used before a store was bound.
	ErrNoStore = errors.New("bond: no secret store bound")
)

var (
	loggerOnce sync.Once
	logger     bleport.Logger
)

func log() bleport.Logger {
	loggerOnce.Do(func() {
		logger = bleport.GetLogger().ChildLogger(map[string]interface{}{"pkg": "bond"})
	})
	return logger
}

// Bridge translates between the stack's store/delete/load-all settings
// calls and the host's two secret callbacks.
type Bridge struct {
	store    bleport.SecretStore
	reg      *Registry
	maxBonds int
}

// NewBridge builds a bridge over store. A nil reg gets a fresh registry;
// maxBonds <= 0 selects the default capacity.
func NewBridge(store bleport.SecretStore, reg *Registry, maxBonds int) *Bridge {
	if reg == nil {
		reg = NewRegistry()
	}
	if maxBonds <= 0 {
		maxBonds = MaxBonds
	}
	return &Bridge{store: store, reg: reg, maxBonds: maxBonds}
}

// Registry exposes the in-memory key state the bridge maintains.
func (b *Bridge) Registry() *Registry { return b.reg }

// StoreKeys persists material for the peer at addr under identity id.
// Oversize material fails before the host sees anything. The lookup key
// is the peer address alone; id is carried inside the blob only, so a
// second identity bonded to the same address overwrites the first.
func (b *Bridge) StoreKeys(id uint8, addr bleport.PeerAddr, material []byte) error {
	if b.store == nil {
		return ErrNoStore
	}
	if len(material) > MaxKeyMaterial {
		return errors.Wrapf(ErrTooLarge, "%d bytes", len(material))
	}

	blob := appendKeyBlob(make([]byte, 0, blobHeaderLen+len(material)), id, addr, material)
	if !b.store.SetSecret(bleport.KindBondKeys, addr.Bytes(), blob) {
		return errors.Wrapf(ErrStoreRefused, "store keys for %s", addr)
	}

	k := b.reg.GetOrAdd(id, addr)
	k.ID = id
	k.Material = append(k.Material[:0], material...)
	log().Debugf("stored %d key bytes for %s", len(material), addr)
	return nil
}

// DeleteKeys removes the peer's stored entry and drops it from the
// registry. id does not participate in the lookup, same as StoreKeys.
func (b *Bridge) DeleteKeys(id uint8, addr bleport.PeerAddr) error {
	if b.store == nil {
		return ErrNoStore
	}
	_ = id

	if !b.store.SetSecret(bleport.KindBondKeys, addr.Bytes(), nil) {
		return errors.Wrapf(ErrStoreRefused, "delete keys for %s", addr)
	}
	b.reg.Drop(addr)
	log().Debugf("deleted keys for %s", addr)
	return nil
}

// LoadAll repopulates the registry from the store at startup. It walks
// ascending indexes until the store reports no more entries, at most
// maxBonds of them. An entry too short for the blob header is corrupt:
// logged and skipped, never fatal, the bond is simply forgotten.
// Returns the number of bonds loaded.
func (b *Bridge) LoadAll() (int, error) {
	if b.store == nil {
		return 0, ErrNoStore
	}

	loaded := 0
	for idx := 0; idx < b.maxBonds; idx++ {
		blob, ok := b.store.GetSecret(bleport.KindBondKeys, nil, idx)
		if !ok {
			break
		}

		id, addr, material, err := parseKeyBlob(blob)
		if err != nil {
			log().Warnf("skipping stored entry %d: %v", idx, err)
			continue
		}
		if len(material) > MaxKeyMaterial {
			log().Warnf("skipping stored entry %d: %d material bytes", idx, len(material))
			continue
		}

		k := b.reg.GetOrAdd(id, addr)
		k.ID = id
		k.Material = material
		loaded++
	}

	log().Infof("loaded %d bonds", loaded)
	return loaded, nil
}
