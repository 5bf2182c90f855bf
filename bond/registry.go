package bond

import (
	"encoding/hex"

	"github.com/cornelk/hashmap"
	"github.com/pkg/errors"

	"github.com/rigado/bleport"
)

// ErrNotFound reports a peer with no key material in the registry.
var ErrNotFound = errors.New("bond: peer not found")

// Keys is the in-memory key state for one bonded peer.
type Keys struct {
	Addr     bleport.PeerAddr
	ID       uint8
	Material []byte
}

// Registry holds the key state the stack reads after startup. Lookup is
// by peer address alone; the identity id rides along in the entry but is
// not part of the key, so two identities bonded to the same peer address
// share one slot. Single-identity hosts never notice.
type Registry struct {
	peers *hashmap.Map[string, *Keys]
}

func NewRegistry() *Registry {
	return &Registry{peers: hashmap.New[string, *Keys]()}
}

func regKey(addr bleport.PeerAddr) string {
	return hex.EncodeToString(addr.Bytes())
}

// GetOrAdd returns the entry for addr, creating an empty one under id if
// none exists yet.
func (r *Registry) GetOrAdd(id uint8, addr bleport.PeerAddr) *Keys {
	k, _ := r.peers.GetOrInsert(regKey(addr), &Keys{Addr: addr, ID: id})
	return k
}

// Find returns the entry for addr or ErrNotFound.
func (r *Registry) Find(addr bleport.PeerAddr) (*Keys, error) {
	k, ok := r.peers.Get(regKey(addr))
	if !ok {
		return nil, errors.Wrap(ErrNotFound, addr.String())
	}
	return k, nil
}

// Drop removes addr's entry. Reports whether one existed.
func (r *Registry) Drop(addr bleport.PeerAddr) bool {
	key := regKey(addr)
	_, ok := r.peers.Get(key)
	if ok {
		r.peers.Del(key)
	}
	return ok
}

// Range visits every entry until fn returns false.
func (r *Registry) Range(fn func(*Keys) bool) {
	r.peers.Range(func(_ string, k *Keys) bool {
		return fn(k)
	})
}

func (r *Registry) Len() int { return r.peers.Len() }

// Clear empties the registry.
func (r *Registry) Clear() {
	r.peers.Range(func(key string, _ *Keys) bool {
		r.peers.Del(key)
		return true
	})
}
