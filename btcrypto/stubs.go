//go:build !bleport_crypto

package btcrypto

import (
	"crypto"

	"github.com/rigado/bleport"
)

// Available reports whether the real crypto backend is compiled in.
func Available() bool { return false }

func AESCMAC(key, msg []byte) ([]byte, error) {
	return nil, ErrNotImplemented
}

func F4(u, v, x []byte, z uint8) ([]byte, error) {
	return nil, ErrNotImplemented
}

func F5(w, n1, n2 []byte, a1, a2 bleport.PeerAddr) ([]byte, []byte, error) {
	return nil, nil, ErrNotImplemented
}

func F6(w, n1, n2, r, ioCap []byte, a1, a2 bleport.PeerAddr) ([]byte, error) {
	return nil, ErrNotImplemented
}

func G2(u, v, x, y []byte) (uint32, error) {
	return 0, ErrNotImplemented
}

func GenerateKeys() (*ECDHKeys, error) {
	return nil, ErrNotImplemented
}

func UnmarshalPublicKey(b []byte) (crypto.PublicKey, bool) {
	return nil, false
}

func MarshalPublicKeyXY(k crypto.PublicKey) []byte {
	return nil
}

func SharedSecret(prv crypto.PrivateKey, pub crypto.PublicKey) ([]byte, error) {
	return nil, ErrNotImplemented
}
