//go:build bleport_crypto

package btcrypto

import (
	"crypto"
	"crypto/aes"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/binary"

	"github.com/aead/cmac"
	"github.com/pkg/errors"
	"github.com/wsddn/go-ecdh"

	"github.com/rigado/bleport"
	"github.com/rigado/bleport/sliceops"
)

// Available reports whether the real crypto backend is compiled in.
func Available() bool { return true }

// AESCMAC computes AES-CMAC in the air convention: key, message and
// result all little endian, each flipped around the MSB-first core.
func AESCMAC(key, msg []byte) ([]byte, error) {
	mCipher, err := aes.NewCipher(sliceops.SwapBuf(key))
	if err != nil {
		return nil, err
	}

	mMac, err := cmac.New(mCipher)
	if err != nil {
		return nil, err
	}
	mMac.Write(sliceops.SwapBuf(msg))

	return sliceops.SwapBuf(mMac.Sum(nil)), nil
}

// addrLE is the 7-byte address form the derivation messages carry:
// value bytes in transmission order, then the type byte.
func addrLE(a bleport.PeerAddr) []byte {
	le := make([]byte, 0, bleport.PeerAddrLen)
	le = append(le, a.Val[:]...)
	le = append(le, a.Type)
	return le
}

// F4 is the pairing confirm value function: AES-CMAC X(U || V || Z).
func F4(u, v, x []byte, z uint8) ([]byte, error) {
	if len(u) != 32 || len(v) != 32 || len(x) != 16 {
		return nil, errors.New("f4: length error")
	}

	m := make([]byte, 0, 65)
	m = append(m, z)
	m = append(m, v...)
	m = append(m, u...)

	return AESCMAC(x, m)
}

var f5Salt = []byte{0xbe, 0x83, 0x60, 0x5a, 0xdb, 0x0b, 0x37, 0x60,
	0x38, 0xa5, 0xf5, 0xaa, 0x91, 0x83, 0x88, 0x6c}

// "btle", little endian.
var f5KeyID = []byte{0x65, 0x6c, 0x74, 0x62}

// F5 derives the MacKey and LTK from the shared secret w and the
// pairing nonces and addresses. Two CMAC passes over one message that
// differs only in the counter byte.
func F5(w, n1, n2 []byte, a1, a2 bleport.PeerAddr) ([]byte, []byte, error) {
	switch {
	case len(w) != 32:
		return nil, nil, errors.New("f5: length error w")
	case len(n1) != 16:
		return nil, nil, errors.New("f5: length error n1")
	case len(n2) != 16:
		return nil, nil, errors.New("f5: length error n2")
	}

	t, err := AESCMAC(f5Salt, w)
	if err != nil {
		return nil, nil, errors.Wrap(err, "f5 key")
	}

	m := make([]byte, 0, 53)
	m = append(m, 0x00, 0x01) // length, 256
	m = append(m, addrLE(a2)...)
	m = append(m, addrLE(a1)...)
	m = append(m, n2...)
	m = append(m, n1...)
	m = append(m, f5KeyID...)
	m = append(m, 0x00) // counter 0: MacKey

	macKey, err := AESCMAC(t, m)
	if err != nil {
		return nil, nil, errors.Wrap(err, "f5 macKey")
	}

	m[52] = 0x01 // counter 1: LTK
	ltk, err := AESCMAC(t, m)
	if err != nil {
		return nil, nil, errors.Wrap(err, "f5 ltk")
	}

	return macKey, ltk, nil
}

// F6 is the check value function:
// AES-CMAC W(N1 || N2 || R || IOcap || A1 || A2).
func F6(w, n1, n2, r, ioCap []byte, a1, a2 bleport.PeerAddr) ([]byte, error) {
	if len(w) != 16 || len(n1) != 16 || len(n2) != 16 || len(r) != 16 || len(ioCap) != 3 {
		return nil, errors.New("f6: length error")
	}

	m := make([]byte, 0, 53)
	m = append(m, addrLE(a2)...)
	m = append(m, addrLE(a1)...)
	m = append(m, ioCap...)
	m = append(m, r...)
	m = append(m, n2...)
	m = append(m, n1...)

	return AESCMAC(w, m)
}

// G2 is the numeric comparison value function:
// AES-CMAC X(U || V || Y) mod 2^32, folded to six digits.
func G2(u, v, x, y []byte) (uint32, error) {
	if len(u) != 32 || len(v) != 32 || len(x) != 16 || len(y) != 16 {
		return 0, errors.New("g2: length error")
	}

	m := make([]byte, 0, 80)
	m = append(m, y...)
	m = append(m, v...)
	m = append(m, u...)

	h, err := AESCMAC(x, m)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(h[:4]) % 1000000, nil
}

// GenerateKeys makes a fresh P-256 pair for pairing key agreement.
func GenerateKeys() (*ECDHKeys, error) {
	e := ecdh.NewEllipticECDH(elliptic.P256())

	priv, pub, err := e.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generate key pair")
	}
	return &ECDHKeys{public: pub, private: priv}, nil
}

// UnmarshalPublicKey decodes the 64-byte X||Y air form, little endian
// per coordinate.
func UnmarshalPublicKey(b []byte) (crypto.PublicKey, bool) {
	if len(b) != 64 {
		return nil, false
	}
	e := ecdh.NewEllipticECDH(elliptic.P256())

	r := append([]byte{0x04}, sliceops.SwapBuf(b[:32])...)
	r = append(r, sliceops.SwapBuf(b[32:])...)

	return e.Unmarshal(r)
}

// MarshalPublicKeyXY encodes k into the 64-byte air form.
func MarshalPublicKeyXY(k crypto.PublicKey) []byte {
	e := ecdh.NewEllipticECDH(elliptic.P256())

	ba := e.Marshal(k)
	ba = ba[1:] // strip the uncompressed-point header

	out := sliceops.SwapBuf(ba[:32])
	return append(out, sliceops.SwapBuf(ba[32:])...)
}

// SharedSecret runs the ECDH agreement and returns the DHKey little
// endian, the order f5 consumes it in.
func SharedSecret(prv crypto.PrivateKey, pub crypto.PublicKey) ([]byte, error) {
	e := ecdh.NewEllipticECDH(elliptic.P256())

	b, err := e.GenerateSharedSecret(prv, pub)
	if err != nil {
		return nil, errors.Wrap(err, "shared secret")
	}
	return sliceops.SwapBuf(b), nil
}
