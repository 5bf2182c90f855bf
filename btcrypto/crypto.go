// Package btcrypto is the pairing crypto surface of the port: AES-CMAC,
// the f4/f5/f6/g2 confirm and key derivation functions, and P-256 key
// agreement. The default build compiles stubs that fail hard with
// ErrNotImplemented; real implementations come in behind the
// bleport_crypto tag. There is deliberately no in-between: a host
// without the tag gets no pairing, not weak pairing.
package btcrypto

import (
	"crypto"

	"github.com/pkg/errors"
)

// ErrNotImplemented is returned by every operation in a build without
// the crypto backend. Callers must fail the pairing path on it.
var ErrNotImplemented = errors.New("btcrypto: not implemented in this build")

// ECDHKeys is a P-256 key pair for pairing key agreement.
type ECDHKeys struct {
	public  crypto.PublicKey
	private crypto.PrivateKey
}

func (k *ECDHKeys) Public() crypto.PublicKey   { return k.public }
func (k *ECDHKeys) Private() crypto.PrivateKey { return k.private }
