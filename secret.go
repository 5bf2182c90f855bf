package bleport

// SecretKind selects the class of secret a store call refers to. The port
// itself only ever reads and writes bond key material; the kind value keeps
// the stored namespace open for hosts that multiplex other secrets into the
// same store.
type SecretKind int

// KindBondKeys is pairing key material for one bonded peer, keyed by the
// peer address in stored form.
const KindBondKeys SecretKind = 1

// SecretStore is the downward interface to the host runtime's persistent
// secret storage. The stack never touches it directly; the bond bridge
// translates between the stack's settings calls and these two entry points.
//
// GetSecret looks up by key, or enumerates when key is nil: index then
// selects the index-th stored entry of that kind and the second return
// reports whether one exists. SetSecret with a nil value deletes the entry.
// SetSecret returns false when the host refused the write.
type SecretStore interface {
	GetSecret(kind SecretKind, key []byte, index int) ([]byte, bool)
	SetSecret(kind SecretKind, key, value []byte) bool
}
